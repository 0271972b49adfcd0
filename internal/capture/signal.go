package capture

import (
	"time"

	"github.com/chenyang-zz/selgrab/internal/platform"
)

// ShutdownGrace 关闭类信号处理后留给消息泵清理钩子的时间
const ShutdownGrace = 100 * time.Millisecond

// NewControlHandler 创建控制台信号处理函数
//
// 中断类信号（Ctrl+C / Ctrl+Break）：
//   - simulating 为 true 时视为本进程注入的复制按键，吞掉且不做任何事
//   - 否则请求退出并唤醒消息泵
//
// 关闭类信号（关闭窗口 / 注销 / 关机）：请求退出，唤醒消息泵，
// 等待 ShutdownGrace 后返回已处理。其他信号返回未处理。
//
// Parameters:
//   - state: 引擎共享状态
//   - wake: 向消息泵投递退出消息
//   - sleep: 休眠函数，nil 时使用 time.Sleep
//
// Returns: platform.ControlHandler - 信号处理函数
func NewControlHandler(state *EngineState, wake func(), sleep func(time.Duration)) platform.ControlHandler {
	if sleep == nil {
		sleep = time.Sleep
	}
	return func(sig platform.ControlSignal) bool {
		switch sig {
		case platform.SignalInterrupt, platform.SignalBreak:
			if state.Simulating() {
				return true
			}
			state.RequestExit()
			wake()
			return true

		case platform.SignalClose, platform.SignalLogoff, platform.SignalShutdown:
			state.RequestExit()
			wake()
			sleep(ShutdownGrace)
			return true

		default:
			return false
		}
	}
}
