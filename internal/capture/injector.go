package capture

import (
	"fmt"
	"time"

	"github.com/chenyang-zz/selgrab/internal/platform"
)

// InjectionWindow 提交合成按键后等待目标应用处理的时间
//
// 这段时间内 simulating 标志保持为 true。
const InjectionWindow = 50 * time.Millisecond

// copySequence LCtrl↓ C↓ C↑ LCtrl↑
var copySequence = []platform.KeyInput{
	{VKCode: platform.VKLControl},
	{VKCode: platform.VKC},
	{VKCode: platform.VKC, Up: true},
	{VKCode: platform.VKLControl, Up: true},
}

// CopyInjector 向前台窗口注入复制快捷键
type CopyInjector struct {
	sender platform.KeySender
	state  *EngineState
	sleep  func(time.Duration)
}

// NewCopyInjector 创建复制按键注入器
//
// Parameters:
//   - sender: 按键注入实现
//   - state: 引擎共享状态，用于设置 simulating 标志
//   - sleep: 休眠函数，nil 时使用 time.Sleep
func NewCopyInjector(sender platform.KeySender, state *EngineState, sleep func(time.Duration)) *CopyInjector {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &CopyInjector{sender: sender, state: state, sleep: sleep}
}

// InjectCopy 以一个批次提交 LCtrl+C
//
// 提交前置位 simulating，等待 InjectionWindow 后清除，
// 因此注入引起的控制台 Ctrl+C 信号会在标志为 true 时到达。
//
// Returns:
//   - int: 被系统接受的按键数
//   - error: 少于 4 个时返回包装 ErrInjectionPartial 的错误
func (c *CopyInjector) InjectCopy() (int, error) {
	c.state.SetSimulating(true)
	defer c.state.SetSimulating(false)

	accepted, err := c.sender.SendKeys(copySequence)
	c.sleep(InjectionWindow)

	if accepted < len(copySequence) {
		if err != nil {
			return accepted, fmt.Errorf("%w: %d of %d: %v", ErrInjectionPartial, accepted, len(copySequence), err)
		}
		return accepted, fmt.Errorf("%w: %d of %d", ErrInjectionPartial, accepted, len(copySequence))
	}
	return accepted, nil
}
