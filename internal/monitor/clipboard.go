package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/chenyang-zz/selgrab/internal/platform"
	"github.com/chenyang-zz/selgrab/pkg/events"
	"github.com/chenyang-zz/selgrab/pkg/logger"
	"go.uber.org/zap"
)

// ClipboardWatcher 剪贴板轮询监控器
//
// 按固定间隔读取剪贴板文本，与上一次的内容比较：
//   - 启动时记录当前内容作为基准，不会发布
//   - 内容非空且与上次不同时发布 clipboard 事件
//   - 读取失败视为空内容，不更新基准
type ClipboardWatcher struct {
	// clipboard 剪贴板访问
	clipboard platform.Clipboard

	// eventBus 事件总线，用于发布剪贴板事件
	eventBus *events.EventBus

	// interval 检查间隔
	interval time.Duration

	// isRunning 监控器运行状态标志
	isRunning bool

	// mu 读写锁，保护并发访问
	mu sync.RWMutex

	// stopChan 停止信号
	stopChan chan struct{}

	// doneChan 轮询协程退出信号
	doneChan chan struct{}

	// lastContent 上一次记录的剪贴板内容，用于去重
	lastContent string
}

// NewClipboardWatcher 创建剪贴板轮询监控器
//
// Parameters:
//   - eventBus: 事件总线实例
//   - clipboard: 剪贴板访问
//   - interval: 检查间隔，<=0 时使用 PollInterval
//
// Returns: *ClipboardWatcher - 未启动的监控器
func NewClipboardWatcher(eventBus *events.EventBus, clipboard platform.Clipboard, interval time.Duration) *ClipboardWatcher {
	if interval <= 0 {
		interval = PollInterval
	}
	return &ClipboardWatcher{
		clipboard: clipboard,
		eventBus:  eventBus,
		interval:  interval,
	}
}

// Start 启动剪贴板轮询
//
// Returns: error - 剪贴板不可用时返回错误
func (cw *ClipboardWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.isRunning {
		logger.Debug("剪贴板监控器已在运行", zap.String("component", "clipboard"))
		return nil
	}

	if err := cw.clipboard.Open(); err != nil {
		logger.Error("剪贴板不可用", zap.String("component", "clipboard"), zap.Error(err))
		return fmt.Errorf("open clipboard: %w", err)
	}

	baseline, _ := cw.clipboard.ReadText()
	cw.lastContent = baseline
	cw.stopChan = make(chan struct{})
	cw.doneChan = make(chan struct{})
	cw.isRunning = true

	go cw.loop(cw.stopChan, cw.doneChan)

	logger.Info("剪贴板监控器启动成功",
		zap.String("component", "clipboard"),
		zap.Duration("interval", cw.interval),
	)
	return nil
}

// Stop 停止剪贴板轮询
func (cw *ClipboardWatcher) Stop() error {
	cw.mu.Lock()
	if !cw.isRunning {
		cw.mu.Unlock()
		logger.Debug("剪贴板监控器未运行", zap.String("component", "clipboard"))
		return nil
	}
	close(cw.stopChan)
	done := cw.doneChan
	cw.isRunning = false
	cw.mu.Unlock()

	<-done

	logger.Info("剪贴板监控器已停止", zap.String("component", "clipboard"))
	return nil
}

// IsRunning 检查运行状态
func (cw *ClipboardWatcher) IsRunning() bool {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.isRunning
}

func (cw *ClipboardWatcher) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cw.check()
		}
	}
}

// check 检查一次剪贴板
func (cw *ClipboardWatcher) check() {
	current, err := cw.clipboard.ReadText()
	if err != nil || current == "" {
		return
	}

	cw.mu.Lock()
	if current == cw.lastContent {
		cw.mu.Unlock()
		return
	}
	cw.lastContent = current
	cw.mu.Unlock()

	logger.Info("检测到剪贴板内容变化",
		zap.String("component", "clipboard"),
		zap.Int("length", len([]rune(current))),
		zap.String("preview", previewText(current, 100)),
	)

	data := events.ClipboardEventData{Content: current, Length: len([]rune(current))}
	event := events.NewEvent(events.EventTypeClipboard, data.ToMap())
	if err := cw.eventBus.Publish(*event); err != nil {
		logger.Error("发布剪贴板事件失败",
			zap.String("component", "clipboard"),
			zap.Error(err),
		)
	}
}
