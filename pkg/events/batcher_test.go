package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receiveBatch 在超时内读取一个批次
func receiveBatch(t *testing.T, b *EventBatcher, timeout time.Duration) []Event {
	t.Helper()
	select {
	case batch, ok := <-b.Output():
		require.True(t, ok, "输出通道不应已关闭")
		return batch
	case <-time.After(timeout):
		t.Fatalf("未能在 %v 内收到批次", timeout)
		return nil
	}
}

// TestEventBatcher_FlushBySize 测试按大小触发批量输出
func TestEventBatcher_FlushBySize(t *testing.T) {
	batcher := NewEventBatcher(3, time.Hour)
	batcher.Start()
	defer batcher.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, batcher.Add(*NewEvent(EventTypeSelection, map[string]interface{}{"index": i})))
	}

	batch := receiveBatch(t, batcher, time.Second)
	assert.Len(t, batch, 3)
	assert.Equal(t, 0, batch[0].Data["index"])
}

// TestEventBatcher_FlushByTimeout 测试按超时触发批量输出
func TestEventBatcher_FlushByTimeout(t *testing.T) {
	batcher := NewEventBatcher(10, 50*time.Millisecond)
	batcher.Start()
	defer batcher.Stop()

	batcher.Add(*NewEvent(EventTypeSelection, nil))

	assert.Len(t, receiveBatch(t, batcher, time.Second), 1)
}

// TestEventBatcher_StopFlushesRemaining 测试停止时刷新剩余事件并关闭输出
func TestEventBatcher_StopFlushesRemaining(t *testing.T) {
	batcher := NewEventBatcher(10, time.Hour)
	batcher.Start()
	assert.True(t, batcher.IsRunning())

	batcher.Add(*NewEvent(EventTypeClipboard, nil))
	batcher.Add(*NewEvent(EventTypeClipboard, nil))
	batcher.Stop()

	assert.False(t, batcher.IsRunning())
	batch := receiveBatch(t, batcher, time.Second)
	assert.Len(t, batch, 2)

	_, ok := <-batcher.Output()
	assert.False(t, ok, "停止后输出通道应关闭")
}

// TestEventBatcher_AddAfterStop 测试停止后添加事件被拒绝
func TestEventBatcher_AddAfterStop(t *testing.T) {
	batcher := NewEventBatcher(10, time.Hour)
	batcher.Stop()
	batcher.Stop()

	assert.False(t, batcher.Add(*NewEvent(EventTypeClipboard, nil)))
	_, ok := <-batcher.Output()
	assert.False(t, ok)
}

// TestEventBatcher_MultipleBatches 测试连续输出多个批次
func TestEventBatcher_MultipleBatches(t *testing.T) {
	batcher := NewEventBatcher(2, time.Hour)
	batcher.Start()

	for i := 0; i < 6; i++ {
		require.True(t, batcher.Add(*NewEvent(EventTypeSelection, nil)))
	}
	batcher.Stop()

	total, batches := 0, 0
	for batch := range batcher.Output() {
		batches++
		total += len(batch)
	}
	assert.Equal(t, 6, total)
	assert.Equal(t, 3, batches)
}
