//go:build !windows

package platform

import (
	"os"
	"sync"
)

// StubHookHost 非 Windows 平台的钩子宿主
//
// 钩子安装总是失败，消息队列只用于投递退出消息。
type StubHookHost struct {
	queue chan MessageKind
	once  sync.Once
}

// NewHookHost 创建钩子宿主（非 Windows 平台为存根）
func NewHookHost() HookHost {
	return &StubHookHost{}
}

func (s *StubHookHost) init() {
	s.once.Do(func() { s.queue = make(chan MessageKind, 16) })
}

// CurrentThreadID 返回进程 ID 作为线程标识
func (s *StubHookHost) CurrentThreadID() ThreadID {
	return ThreadID(os.Getpid())
}

// InstallKeyboardHook 总是返回 ErrUnsupported
func (s *StubHookHost) InstallKeyboardHook(KeyHandler) (HookHandle, error) {
	return 0, ErrUnsupported
}

// InstallPointerHook 总是返回 ErrUnsupported
func (s *StubHookHost) InstallPointerHook(PointerHandler) (HookHandle, error) {
	return 0, ErrUnsupported
}

// UninstallHook 总是返回 ErrUnsupported
func (s *StubHookHost) UninstallHook(HookHandle) error {
	return ErrUnsupported
}

// NextMessage 阻塞等待投递的消息
func (s *StubHookHost) NextMessage() (Message, error) {
	s.init()
	return Message{Kind: <-s.queue}, nil
}

// DispatchMessage 空操作
func (s *StubHookHost) DispatchMessage(Message) {}

// PostMessage 投递消息到内部队列
func (s *StubHookHost) PostMessage(_ ThreadID, kind MessageKind) error {
	s.init()
	select {
	case s.queue <- kind:
		return nil
	default:
		return ErrUnsupported
	}
}

// DrainMessages 清空内部队列
func (s *StubHookHost) DrainMessages() int {
	s.init()
	n := 0
	for {
		select {
		case <-s.queue:
			n++
		default:
			return n
		}
	}
}

// StubKeySender 非 Windows 平台的按键注入器
type StubKeySender struct{}

// NewKeySender 创建按键注入器（非 Windows 平台为存根）
func NewKeySender() KeySender {
	return StubKeySender{}
}

// SendKeys 总是返回 ErrUnsupported
func (StubKeySender) SendKeys([]KeyInput) (int, error) {
	return 0, ErrUnsupported
}

// NewAccessibility 非 Windows 平台不支持 UI Automation
func NewAccessibility() (Accessibility, error) {
	return nil, ErrUnsupported
}
