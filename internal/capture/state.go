package capture

import (
	"sync/atomic"

	"github.com/chenyang-zz/selgrab/internal/platform"
)

// EngineState 钩子回调、控制台信号线程与消息泵线程共享的状态
//
// 全部字段为原子值，读写不需要加锁。
type EngineState struct {
	ownerThread atomic.Uint32
	shouldExit  atomic.Bool
	simulating  atomic.Bool
	debouncer   *Debouncer
}

// NewEngineState 创建引擎共享状态
func NewEngineState() *EngineState {
	return &EngineState{debouncer: NewDebouncer(DebounceWindow)}
}

// Reset 在每次运行开始时清空状态
//
// 已请求的退出保留，运行开始前调用的 Stop 仍然生效。
func (s *EngineState) Reset() {
	s.ownerThread.Store(0)
	s.simulating.Store(false)
	s.debouncer.Reset()
}

// ClearExit 清除退出请求，在一次运行结束时调用
func (s *EngineState) ClearExit() {
	s.shouldExit.Store(false)
}

// OwnerThread 消息泵线程 ID，0 表示尚未设置
func (s *EngineState) OwnerThread() platform.ThreadID {
	return platform.ThreadID(s.ownerThread.Load())
}

// SetOwnerThread 记录消息泵线程 ID
func (s *EngineState) SetOwnerThread(id platform.ThreadID) {
	s.ownerThread.Store(uint32(id))
}

// ShouldExit 是否已请求退出
func (s *EngineState) ShouldExit() bool {
	return s.shouldExit.Load()
}

// RequestExit 请求退出
func (s *EngineState) RequestExit() {
	s.shouldExit.Store(true)
}

// Simulating 合成复制按键是否处于生效窗口内
func (s *EngineState) Simulating() bool {
	return s.simulating.Load()
}

// SetSimulating 设置合成按键标志
func (s *EngineState) SetSimulating(v bool) {
	s.simulating.Store(v)
}

// Debouncer 返回触发防抖器
func (s *EngineState) Debouncer() *Debouncer {
	return s.debouncer
}
