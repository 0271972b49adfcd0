package capture

import (
	"time"

	"github.com/chenyang-zz/selgrab/internal/platform"
)

// HandlePointerEvent 鼠标钩子决策
//
// 只有左键抬起会触发捕获请求；请求经防抖后投递给消息泵线程。
// 不做剪贴板或按键注入，不阻塞。
//
// Parameters:
//   - ev: 鼠标事件
//   - state: 引擎共享状态
//   - now: 事件时间
//
// Returns: HookDecision - 鼠标事件始终继续传递
func HandlePointerEvent(ev platform.PointerEvent, state *EngineState, now time.Time) platform.HookDecision {
	if ev.Action != platform.PointerLeftUp || state.ShouldExit() {
		return platform.HookDecision{}
	}
	if !state.Debouncer().Accept(now) {
		return platform.HookDecision{}
	}
	return platform.HookDecision{Post: platform.MessageCaptureRequested}
}

// HandleKeyEvent 键盘钩子决策
//
// 用户按下 Esc 时请求退出并吞掉该按键。合成的 Esc 不视为退出意图。
//
// Parameters:
//   - ev: 键盘事件
//   - state: 引擎共享状态
//
// Returns: HookDecision - Esc 按下时抑制传递并投递退出消息
func HandleKeyEvent(ev platform.KeyEvent, state *EngineState) platform.HookDecision {
	if ev.Action != platform.KeyDown || ev.VKCode != platform.VKEscape || ev.Injected {
		return platform.HookDecision{}
	}
	state.RequestExit()
	return platform.HookDecision{Suppress: true, Post: platform.MessageQuit}
}
