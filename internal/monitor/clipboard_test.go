package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/chenyang-zz/selgrab/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewClipboardWatcher 测试剪贴板监控器的创建
//
// 测试场景：
//  1. 创建后未运行
//  2. 间隔 <=0 时使用默认间隔
func TestNewClipboardWatcher(t *testing.T) {
	bus, _ := newRecorder(t)
	watcher := NewClipboardWatcher(bus, &memClipboard{}, 0)

	assert.NotNil(t, watcher)
	assert.False(t, watcher.IsRunning())
	assert.Equal(t, PollInterval, watcher.interval)
}

// TestClipboardWatcher_StartStop 测试启动和停止的幂等性
func TestClipboardWatcher_StartStop(t *testing.T) {
	bus, _ := newRecorder(t)
	watcher := NewClipboardWatcher(bus, &memClipboard{}, testInterval)

	require.NoError(t, watcher.Start())
	assert.True(t, watcher.IsRunning())
	assert.NoError(t, watcher.Start())

	require.NoError(t, watcher.Stop())
	assert.False(t, watcher.IsRunning())
	assert.NoError(t, watcher.Stop())
}

// TestClipboardWatcher_Unavailable 测试剪贴板不可用时启动失败
func TestClipboardWatcher_Unavailable(t *testing.T) {
	bus, _ := newRecorder(t)
	watcher := NewClipboardWatcher(bus, &memClipboard{openErr: errors.New("no clipboard")}, testInterval)

	assert.Error(t, watcher.Start())
	assert.False(t, watcher.IsRunning())
}

// TestClipboardWatcher_DetectsChanges 测试剪贴板内容变化检测
//
// 测试场景：
//  1. 启动时已有的内容不发布
//  2. 新内容发布一次 clipboard 事件
//  3. 清空剪贴板和读取失败不发布
//  4. 再次变化后发布第二个事件
func TestClipboardWatcher_DetectsChanges(t *testing.T) {
	bus, rec := newRecorder(t)
	cb := &memClipboard{text: "baseline"}
	watcher := NewClipboardWatcher(bus, cb, testInterval)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	time.Sleep(5 * testInterval)
	assert.Empty(t, rec.ofType(events.EventTypeClipboard))

	require.NoError(t, cb.WriteText("第一次复制"))
	require.Eventually(t, func() bool {
		return len(rec.ofType(events.EventTypeClipboard)) == 1
	}, time.Second, testInterval)

	first := rec.ofType(events.EventTypeClipboard)[0]
	assert.Equal(t, "第一次复制", first.String("content"))
	assert.Equal(t, string(events.SourceClipboard), first.String("source"))
	assert.Equal(t, 5, first.Data["length"])

	require.NoError(t, cb.WriteText(""))
	cb.setReadErr(errors.New("busy"))
	time.Sleep(5 * testInterval)
	assert.Len(t, rec.ofType(events.EventTypeClipboard), 1)

	cb.setReadErr(nil)
	require.NoError(t, cb.WriteText("second"))
	require.Eventually(t, func() bool {
		return len(rec.ofType(events.EventTypeClipboard)) == 2
	}, time.Second, testInterval)
}
