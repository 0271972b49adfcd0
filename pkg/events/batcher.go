package events

import (
	"sync"
	"time"
)

// EventBatcher 事件批量处理器
//
// 将事件收集成批次再交给下游（例如数据库批量写入）。
// 缓冲区达到 batchSize 或距离上次刷新超过 timeout 时输出一个批次。
type EventBatcher struct {
	// batchSize 触发批量输出的事件数量
	batchSize int

	// timeout 最大等待时间
	timeout time.Duration

	// input 输入通道
	input chan Event

	// output 输出通道，Stop 后关闭
	output chan []Event

	// mu 保护 running / closed
	mu      sync.Mutex
	running bool
	closed  bool

	// done 处理循环退出信号
	done chan struct{}
}

// NewEventBatcher 创建事件批量处理器
//
// Parameters:
//   - batchSize: 批次大小
//   - timeout: 超时时间
//
// Returns: *EventBatcher - 新创建的事件批量处理器实例
func NewEventBatcher(batchSize int, timeout time.Duration) *EventBatcher {
	if batchSize <= 0 {
		batchSize = 1
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	return &EventBatcher{
		batchSize: batchSize,
		timeout:   timeout,
		input:     make(chan Event, max(batchSize*2, 64)),
		output:    make(chan []Event, 16),
		done:      make(chan struct{}),
	}
}

// Start 启动后台处理协程
func (b *EventBatcher) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running || b.closed {
		return
	}
	b.running = true
	go b.processLoop()
}

// Stop 停止批量处理器
//
// 已进入输入通道的事件会被刷新成最后一个批次，然后关闭输出通道。
func (b *EventBatcher) Stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	wasRunning := b.running
	close(b.input)
	b.mu.Unlock()

	if wasRunning {
		<-b.done
	} else {
		close(b.output)
	}
}

// Add 添加事件
//
// 非阻塞；通道已满或处理器已停止时返回 false。
func (b *EventBatcher) Add(event Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	select {
	case b.input <- event:
		return true
	default:
		return false
	}
}

// Output 返回批次输出通道
func (b *EventBatcher) Output() <-chan []Event {
	return b.output
}

// IsRunning 检查运行状态
func (b *EventBatcher) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running && !b.closed
}

func (b *EventBatcher) processLoop() {
	defer close(b.done)
	defer close(b.output)

	buffer := make([]Event, 0, b.batchSize)
	flush := func() {
		if len(buffer) == 0 {
			return
		}
		batch := make([]Event, len(buffer))
		copy(batch, buffer)
		buffer = buffer[:0]
		b.output <- batch
	}

	ticker := time.NewTicker(b.timeout)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-b.input:
			if !ok {
				flush()
				return
			}
			buffer = append(buffer, event)
			if len(buffer) >= b.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
