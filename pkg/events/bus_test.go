package events

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector 收集订阅者收到的事件
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

/**
 * TestSubscribe 测试按类型订阅
 */
func TestSubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Stop(time.Second)

	c := &collector{}
	id := bus.Subscribe(string(EventTypeSelection), c.handle)
	assert.NotEmpty(t, id)

	require.NoError(t, bus.Publish(*NewEvent(EventTypeSelection, map[string]interface{}{"text": "hello"})))
	require.NoError(t, bus.Publish(*NewEvent(EventTypeFocus, nil)))

	assert.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "hello", c.events[0].String("text"))
}

/**
 * TestSubscribeWildcard 测试通配符订阅
 */
func TestSubscribeWildcard(t *testing.T) {
	bus := NewEventBus()
	defer bus.Stop(time.Second)

	c := &collector{}
	bus.Subscribe("*", c.handle)

	for _, typ := range []EventType{EventTypeSelection, EventTypeDiagnostic, EventTypeFocus} {
		require.NoError(t, bus.Publish(*NewEvent(typ, nil)))
	}

	assert.Eventually(t, func() bool { return c.count() == 3 }, time.Second, 10*time.Millisecond)
}

/**
 * TestSubscribeWithFilter 测试带过滤器的订阅
 */
func TestSubscribeWithFilter(t *testing.T) {
	bus := NewEventBus()
	defer bus.Stop(time.Second)

	c := &collector{}
	bus.SubscribeWithFilter(string(EventTypeSelection), c.handle, func(e Event) bool {
		return e.String("source") == string(SourceHook)
	})

	hook := SelectionEventData{Source: SourceHook, Text: "a"}
	poll := SelectionEventData{Source: SourceAccessibility, Text: "b"}
	require.NoError(t, bus.Publish(*NewEvent(EventTypeSelection, hook.ToMap())))
	require.NoError(t, bus.Publish(*NewEvent(EventTypeSelection, poll.ToMap())))

	assert.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, c.count())
}

/**
 * TestWithBufferSize 测试订阅者缓冲区大小
 *
 * 测试场景：
 *  1. 处理函数阻塞时超出缓冲区的事件被丢弃，Publish 不阻塞
 *  2. 非正数保留默认大小
 */
func TestWithBufferSize(t *testing.T) {
	assert.Equal(t, 256, NewEventBus(WithBufferSize(0)).bufferSize)

	bus := NewEventBus(WithBufferSize(2))
	defer bus.Stop(time.Second)

	release := make(chan struct{})
	var handled atomic.Int32
	bus.Subscribe(string(EventTypeStatus), func(Event) error {
		<-release
		handled.Add(1)
		return nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(*NewEvent(EventTypeStatus, nil)))
	}
	close(release)

	// 一个事件正在处理，两个在缓冲区中
	assert.Eventually(t, func() bool { return handled.Load() >= 2 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, handled.Load(), int32(3))
}

/**
 * TestUnsubscribe 测试取消订阅后不再收到事件
 */
func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Stop(time.Second)

	c := &collector{}
	id := bus.Subscribe(string(EventTypeStatus), c.handle)
	bus.Unsubscribe(id)
	bus.Unsubscribe(id)

	require.NoError(t, bus.Publish(*NewEvent(EventTypeStatus, nil)))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, c.count())
}

/**
 * TestStop 测试停止后拒绝发布并处理完已排队事件
 */
func TestStop(t *testing.T) {
	bus := NewEventBus()

	var handled atomic.Int32
	bus.Subscribe("*", func(Event) error {
		handled.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(*NewEvent(EventTypeStatus, nil)))
	}

	require.NoError(t, bus.Stop(time.Second))
	assert.Equal(t, int32(5), handled.Load())
	assert.ErrorIs(t, bus.Publish(*NewEvent(EventTypeStatus, nil)), ErrBusStopped)
	assert.NoError(t, bus.Stop(time.Second), "重复停止应为空操作")
}

/**
 * TestRecoveryMiddleware 测试 panic 恢复中间件
 */
func TestRecoveryMiddleware(t *testing.T) {
	bus := NewEventBus()
	defer bus.Stop(time.Second)
	bus.Use(RecoveryMiddleware())
	bus.Use(LoggingMiddleware())

	c := &collector{}
	var calls atomic.Int32
	bus.Subscribe(string(EventTypeError), func(e Event) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return c.handle(e)
	})

	require.NoError(t, bus.Publish(*NewEvent(EventTypeError, nil)))
	require.NoError(t, bus.Publish(*NewEvent(EventTypeError, nil)))

	assert.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 10*time.Millisecond)
}

/**
 * TestHandlerError 测试处理函数返回错误不影响后续事件
 */
func TestHandlerError(t *testing.T) {
	bus := NewEventBus()
	defer bus.Stop(time.Second)

	var calls atomic.Int32
	bus.Subscribe(string(EventTypeStatus), func(Event) error {
		calls.Add(1)
		return errors.New("handler failed")
	})

	require.NoError(t, bus.Publish(*NewEvent(EventTypeStatus, nil)))
	require.NoError(t, bus.Publish(*NewEvent(EventTypeStatus, nil)))

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 10*time.Millisecond)
}
