/**
 * Package events 提供事件总线实现
 *
 * EventBus 是发布-订阅模式的核心实现，支持：
 * - 按类型订阅和通配符订阅
 * - 每个订阅者独立的异步投递通道
 * - 中间件链
 * - 带超时的优雅关闭
 */

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chenyang-zz/selgrab/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBusStopped 事件总线已停止
var ErrBusStopped = errors.New("event bus is stopped")

/**
 * EventHandler 事件处理函数类型
 */
type EventHandler func(event Event) error

/**
 * EventFilter 事件过滤器函数类型
 *
 * 返回 true 表示事件应该被处理，false 表示跳过
 */
type EventFilter func(event Event) bool

/**
 * Middleware 中间件类型
 */
type Middleware func(EventHandler) EventHandler

/**
 * Subscriber 订阅者信息
 */
type Subscriber struct {
	// ID 订阅者唯一标识
	ID string

	// Handler 事件处理函数
	Handler EventHandler

	// Filter 事件过滤器，为 nil 时接收全部事件
	Filter EventFilter

	// Chan 订阅者专用通道（用于异步交付）
	Chan chan Event

	// closed 通道是否已关闭，受 mu 保护
	closed bool

	// mu 保护 Chan 的发送和关闭
	mu sync.RWMutex
}

/**
 * EventBus 事件总线
 */
type EventBus struct {
	// subscribers 订阅者映射：事件类型 -> 订阅者列表
	subscribers map[string][]*Subscriber

	// mutex 保护 subscribers 和 middleware
	mutex sync.RWMutex

	// wg 等待所有订阅者协程退出
	wg sync.WaitGroup

	// stopChan 停止信号通道
	stopChan chan struct{}

	// middleware 中间件链
	middleware []Middleware

	// stopped 原子标志，标记总线是否已停止
	stopped atomic.Bool

	// bufferSize 每个订阅者的缓冲区大小
	bufferSize int
}

/**
 * Option 配置选项类型
 */
type Option func(*EventBus)

/**
 * WithBufferSize 设置订阅者缓冲区大小
 *
 * 缓冲区满时 Publish 丢弃该订阅者的事件，<=0 时保留默认值 256
 */
func WithBufferSize(size int) Option {
	return func(bus *EventBus) {
		if size > 0 {
			bus.bufferSize = size
		}
	}
}

/**
 * NewEventBus 创建新的事件总线
 *
 * Parameters:
 *   - opts: 配置选项（可选）
 *
 * Returns:
 *   - *EventBus: 新创建的事件总线
 */
func NewEventBus(opts ...Option) *EventBus {
	bus := &EventBus{
		subscribers: make(map[string][]*Subscriber),
		stopChan:    make(chan struct{}),
		bufferSize:  256,
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

/**
 * Subscribe 订阅事件
 *
 * Parameters:
 *   - eventType: 事件类型，使用 "*" 订阅所有事件
 *   - handler: 事件处理函数
 *
 * Returns:
 *   - string: 订阅者 ID，用于取消订阅
 */
func (bus *EventBus) Subscribe(eventType string, handler EventHandler) string {
	return bus.SubscribeWithFilter(eventType, handler, nil)
}

/**
 * SubscribeWithFilter 带过滤器订阅事件
 *
 * 过滤器在 Publish 时同步执行，被拒绝的事件不占用订阅者缓冲区
 */
func (bus *EventBus) SubscribeWithFilter(eventType string, handler EventHandler, filter EventFilter) string {
	subscriber := &Subscriber{
		ID:      "sub-" + uuid.New().String(),
		Handler: handler,
		Filter:  filter,
		Chan:    make(chan Event, bus.bufferSize),
	}

	bus.mutex.Lock()
	bus.subscribers[eventType] = append(bus.subscribers[eventType], subscriber)
	bus.mutex.Unlock()

	logger.Debug("订阅事件",
		zap.String("event_type", eventType),
		zap.String("subscriber_id", subscriber.ID),
	)

	bus.wg.Add(1)
	go bus.processSubscriber(subscriber)

	return subscriber.ID
}

/**
 * Unsubscribe 取消订阅
 *
 * Parameters:
 *   - subscriberID: 订阅者 ID
 */
func (bus *EventBus) Unsubscribe(subscriberID string) {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	for eventType, subscribers := range bus.subscribers {
		for i, sub := range subscribers {
			if sub.ID != subscriberID {
				continue
			}
			bus.subscribers[eventType] = append(subscribers[:i:i], subscribers[i+1:]...)

			sub.mu.Lock()
			if !sub.closed {
				sub.closed = true
				close(sub.Chan)
			}
			sub.mu.Unlock()

			logger.Debug("取消订阅",
				zap.String("event_type", eventType),
				zap.String("subscriber_id", subscriberID),
			)
			return
		}
	}
}

/**
 * Publish 发布事件
 *
 * 事件投递到每个匹配订阅者的通道后立即返回；
 * 订阅者缓冲区满时丢弃该订阅者的这条事件。
 *
 * Parameters:
 *   - event: 事件对象，按 event.Type 路由
 *
 * Returns:
 *   - error: 总线已停止时返回 ErrBusStopped
 */
func (bus *EventBus) Publish(event Event) error {
	if bus.stopped.Load() {
		return ErrBusStopped
	}

	eventType := string(event.Type)

	bus.mutex.RLock()
	subscribers := bus.getSubscribers(eventType)
	bus.mutex.RUnlock()

	for _, subscriber := range subscribers {
		if subscriber.Filter != nil && !subscriber.Filter(event) {
			continue
		}

		subscriber.mu.RLock()
		if !subscriber.closed {
			select {
			case subscriber.Chan <- event:
			default:
				logger.Warn("事件缓冲区满，丢弃事件",
					zap.String("subscriber_id", subscriber.ID),
					zap.String("event_type", eventType),
				)
			}
		}
		subscriber.mu.RUnlock()
	}

	return nil
}

/**
 * Use 添加中间件
 *
 * 中间件按添加顺序由外向内执行
 */
func (bus *EventBus) Use(middleware Middleware) {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	bus.middleware = append(bus.middleware, middleware)
}

/**
 * Stop 优雅停止事件总线
 *
 * Parameters:
 *   - timeout: 等待订阅者退出的超时时间
 *
 * Returns:
 *   - error: 超时返回错误
 */
func (bus *EventBus) Stop(timeout time.Duration) error {
	if !bus.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(bus.stopChan)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		bus.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for event bus to stop")
	}
}

// processSubscriber 在独立协程中消费订阅者通道
//
// 总线停止时先处理完通道中已排队的事件再退出。
func (bus *EventBus) processSubscriber(subscriber *Subscriber) {
	defer bus.wg.Done()

	for {
		select {
		case event, ok := <-subscriber.Chan:
			if !ok {
				return
			}
			bus.handle(subscriber, event)

		case <-bus.stopChan:
			for {
				select {
				case event, ok := <-subscriber.Chan:
					if !ok {
						return
					}
					bus.handle(subscriber, event)
				default:
					return
				}
			}
		}
	}
}

// handle 执行订阅者处理函数，错误只记录日志
func (bus *EventBus) handle(subscriber *Subscriber, event Event) {
	handler := bus.applyMiddleware(subscriber.Handler)
	if err := handler(event); err != nil {
		logger.Error("事件处理错误",
			zap.String("subscriber_id", subscriber.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// getSubscribers 获取事件类型的订阅者，包括通配符订阅者
func (bus *EventBus) getSubscribers(eventType string) []*Subscriber {
	subscribers := make([]*Subscriber, 0, len(bus.subscribers[eventType])+len(bus.subscribers["*"]))
	subscribers = append(subscribers, bus.subscribers[eventType]...)
	if eventType != "*" {
		subscribers = append(subscribers, bus.subscribers["*"]...)
	}
	return subscribers
}

// applyMiddleware 应用中间件链（洋葱模型）
func (bus *EventBus) applyMiddleware(handler EventHandler) EventHandler {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	for i := len(bus.middleware) - 1; i >= 0; i-- {
		handler = bus.middleware[i](handler)
	}
	return handler
}

/**
 * RecoveryMiddleware 恢复中间件
 *
 * 防止事件处理函数中的 panic 导致程序崩溃
 */
func RecoveryMiddleware() Middleware {
	return func(next EventHandler) EventHandler {
		return func(event Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()
			return next(event)
		}
	}
}

/**
 * LoggingMiddleware 日志中间件
 *
 * 以 Debug 级别记录每个被处理的事件
 */
func LoggingMiddleware() Middleware {
	return func(next EventHandler) EventHandler {
		return func(event Event) error {
			logger.Debug("处理事件",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
			)
			return next(event)
		}
	}
}
