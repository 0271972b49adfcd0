package capture

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDebouncer_Accept 测试防抖窗口
//
// 测试场景：
//  1. 第一次触发总是被接受
//  2. 窗口内的触发被拒绝
//  3. 恰好间隔一个窗口的触发被接受
//  4. 被拒绝的触发不刷新窗口起点
//  5. 墙上时钟回拨后点击仍按间隔被接受
func TestDebouncer_Accept(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("窗口边界", func(t *testing.T) {
		d := NewDebouncer(DebounceWindow)
		assert.True(t, d.Accept(base))
		assert.False(t, d.Accept(base.Add(299*time.Millisecond)))
		assert.True(t, d.Accept(base.Add(300*time.Millisecond)))
	})

	t.Run("每100ms一次点击", func(t *testing.T) {
		d := NewDebouncer(DebounceWindow)
		var accepted []int
		for i := 0; i < 7; i++ {
			if d.Accept(base.Add(time.Duration(i) * 100 * time.Millisecond)) {
				accepted = append(accepted, i)
			}
		}
		assert.Equal(t, []int{0, 3, 6}, accepted)
	})

	t.Run("时钟回拨", func(t *testing.T) {
		d := NewDebouncer(DebounceWindow)
		assert.True(t, d.Accept(base))

		stepped := base.Add(-time.Hour)
		accepted := 0
		for i := 0; i < 10; i++ {
			if d.Accept(stepped.Add(time.Duration(i) * time.Second)) {
				accepted++
			}
		}
		assert.Equal(t, 10, accepted)
		assert.False(t, d.Accept(stepped.Add(9*time.Second+100*time.Millisecond)))
	})

	t.Run("单调时钟", func(t *testing.T) {
		d := NewDebouncer(DebounceWindow)
		now := time.Now()
		assert.True(t, d.Accept(now))
		assert.False(t, d.Accept(now.Add(100*time.Millisecond)))
		assert.True(t, d.Accept(now.Add(DebounceWindow)))
	})

	t.Run("Reset后重新接受", func(t *testing.T) {
		d := NewDebouncer(DebounceWindow)
		assert.True(t, d.Accept(base))
		d.Reset()
		assert.True(t, d.Accept(base.Add(time.Millisecond)))
	})
}

// TestDebouncer_Concurrent 测试并发触发同一窗口内至多接受一次
func TestDebouncer_Concurrent(t *testing.T) {
	d := NewDebouncer(DebounceWindow)
	now := time.Now()

	var wg sync.WaitGroup
	var accepted atomic.Int32
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.Accept(now) {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}
