package storage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/chenyang-zz/selgrab/pkg/events"
	"github.com/chenyang-zz/selgrab/pkg/logger"
	"go.uber.org/zap"
)

/**
 * RecorderConfig 捕获记录器配置
 */
type RecorderConfig struct {
	// BatchSize 批量大小（达到此数量时立即写入）
	BatchSize int

	// FlushInterval 刷新间隔（定时写入）
	FlushInterval time.Duration
}

/**
 * DefaultRecorderConfig 默认配置
 */
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		BatchSize:     20,
		FlushInterval: 2 * time.Second,
	}
}

/**
 * RecorderStats 记录器统计信息
 */
type RecorderStats struct {
	// Received 收到的事件数
	Received int64

	// Persisted 成功写入的记录数
	Persisted int64

	// Failed 写入失败的记录数
	Failed int64

	// Dropped 缓冲区已满被丢弃的事件数
	Dropped int64
}

/**
 * Recorder 捕获记录器
 *
 * 订阅 selection 和 clipboard 事件，经 EventBatcher 攒批后写入 CaptureRepository。
 * 事件总线的处理协程只做非阻塞入队，数据库写入在独立协程中完成。
 */
type Recorder struct {
	repo    CaptureRepository
	bus     *events.EventBus
	batcher *events.EventBatcher
	config  RecorderConfig

	subscriptions []string
	done          chan struct{}

	received  atomic.Int64
	persisted atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	mu      sync.Mutex
	started bool
	stopped bool
}

/**
 * NewRecorder 创建捕获记录器
 *
 * Parameters:
 *   - bus: 事件总线
 *   - repo: 捕获记录仓储
 *   - config: 配置（使用 DefaultRecorderConfig() 获取默认配置）
 *
 * Returns: *Recorder - 未启动的记录器
 */
func NewRecorder(bus *events.EventBus, repo CaptureRepository, config RecorderConfig) *Recorder {
	return &Recorder{
		repo:    repo,
		bus:     bus,
		batcher: events.NewEventBatcher(config.BatchSize, config.FlushInterval),
		config:  config,
		done:    make(chan struct{}),
	}
}

/**
 * Start 开始订阅并写入
 *
 * 记录器只能启动一次，Stop 之后再次 Start 不生效
 */
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started || r.stopped {
		logger.Warn("捕获记录器已经启动", zap.String("component", "recorder"))
		return
	}
	r.started = true

	r.batcher.Start()
	go r.consume()

	r.subscriptions = append(r.subscriptions,
		r.bus.Subscribe(string(events.EventTypeSelection), r.handle),
		r.bus.Subscribe(string(events.EventTypeClipboard), r.handle),
	)

	logger.Info("捕获记录器已启动",
		zap.String("component", "recorder"),
		zap.Int("batch_size", r.config.BatchSize),
		zap.Duration("flush_interval", r.config.FlushInterval),
	)
}

/**
 * Stop 停止记录器
 *
 * 取消订阅，刷新缓冲区并等待最后一批写入完成
 */
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	subscriptions := r.subscriptions
	r.subscriptions = nil
	r.mu.Unlock()

	for _, id := range subscriptions {
		r.bus.Unsubscribe(id)
	}

	r.batcher.Stop()
	<-r.done

	stats := r.Stats()
	logger.Info("捕获记录器已停止",
		zap.String("component", "recorder"),
		zap.Int64("persisted", stats.Persisted),
		zap.Int64("failed", stats.Failed),
		zap.Int64("dropped", stats.Dropped),
	)
}

/**
 * Stats 获取统计信息
 */
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Received:  r.received.Load(),
		Persisted: r.persisted.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
	}
}

// handle 事件总线回调，只做非阻塞入队
func (r *Recorder) handle(event events.Event) error {
	r.received.Add(1)
	if !r.batcher.Add(event) {
		r.dropped.Add(1)
		logger.Warn("捕获记录缓冲区已满，事件丢弃",
			zap.String("component", "recorder"),
			zap.String("event_id", event.ID),
		)
	}
	return nil
}

// consume 把批次写入仓储，直到批量处理器关闭输出通道
func (r *Recorder) consume() {
	defer close(r.done)

	for batch := range r.batcher.Output() {
		captures := make([]Capture, 0, len(batch))
		for _, event := range batch {
			if capture, ok := CaptureFromEvent(event); ok {
				captures = append(captures, capture)
			}
		}
		if len(captures) == 0 {
			continue
		}

		start := time.Now()
		if err := r.repo.SaveBatch(captures); err != nil {
			r.failed.Add(int64(len(captures)))
			logger.Error("批量写入捕获记录失败",
				zap.String("component", "recorder"),
				zap.Int("count", len(captures)),
				zap.Error(err),
			)
			continue
		}
		r.persisted.Add(int64(len(captures)))

		logger.Debug("批量刷新完成",
			zap.String("component", "recorder"),
			zap.Int("count", len(captures)),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

/**
 * Prune 删除超过保留天数的记录
 *
 * Parameters:
 *   - repo: 捕获记录仓储
 *   - days: 保留天数，<=0 表示永久保留
 *   - now: 当前时间
 *
 * Returns: int64 - 删除的记录数, error - 错误信息
 */
func Prune(repo CaptureRepository, days int, now time.Time) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	return repo.DeleteOlderThan(now.AddDate(0, 0, -days))
}
