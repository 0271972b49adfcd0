package capture

import (
	"math"
	"sync/atomic"
	"time"
)

// DebounceWindow 两次被接受的触发之间的最小间隔
const DebounceWindow = 300 * time.Millisecond

// noTrigger 尚未接受过任何触发
const noTrigger = math.MinInt64

// Debouncer 无锁防抖器
//
// 可在钩子回调中调用：只做一次原子读和至多一次 CAS，不阻塞。
type Debouncer struct {
	window time.Duration
	// base 创建时刻，带单调时钟读数
	base time.Time
	// last 上次被接受的触发相对 base 的偏移
	last atomic.Int64
}

// NewDebouncer 创建防抖器
func NewDebouncer(window time.Duration) *Debouncer {
	d := &Debouncer{window: window, base: time.Now()}
	d.last.Store(noTrigger)
	return d
}

// Accept 判断 now 时刻的触发是否被接受
//
// 之前没有被接受的触发，或距上次被接受的触发不少于 window 时返回 true 并记录 now。
// 间隔按 now.Sub(base) 计算，now 来自 time.Now() 时使用单调时钟；
// 没有单调读数的 now 早于上次触发时视为时钟回拨，直接接受。
// 并发调用时同一窗口内至多一个返回 true。
func (d *Debouncer) Accept(now time.Time) bool {
	ts := int64(now.Sub(d.base))
	for {
		last := d.last.Load()
		if last != noTrigger && ts >= last && ts-last < int64(d.window) {
			return false
		}
		if d.last.CompareAndSwap(last, ts) {
			return true
		}
	}
}

// Reset 清除上次触发时间
func (d *Debouncer) Reset() {
	d.last.Store(noTrigger)
}
