package platform

import "errors"

// ErrUnsupported 当前平台不支持该能力
//
// 非 Windows 平台上的钩子、按键注入和 UI Automation 均返回此错误。
var ErrUnsupported = errors.New("platform: not supported on this operating system")

// HookHandle 已安装钩子的不透明句柄
//
// 由引擎持有，安装时创建，卸载后失效。零值表示无效句柄。
type HookHandle uintptr

// ThreadID 操作系统线程 ID
type ThreadID uint32

// 虚拟键码
const (
	VKEscape   uint16 = 0x1B
	VKLControl uint16 = 0xA2
	VKC        uint16 = 0x43
)

// PointerAction 指针事件类型
type PointerAction int

const (
	PointerOther PointerAction = iota
	PointerLeftDown
	PointerLeftUp
)

// PointerEvent 低级鼠标钩子事件
type PointerEvent struct {
	// Action 事件类型，只有 PointerLeftUp 会触发捕获
	Action PointerAction
	// X, Y 屏幕坐标
	X, Y int32
	// Injected 是否为合成输入
	Injected bool
}

// KeyAction 键盘事件类型
type KeyAction int

const (
	KeyOther KeyAction = iota
	KeyDown
	KeyUp
)

// KeyEvent 低级键盘钩子事件
type KeyEvent struct {
	// Action 按下或抬起
	Action KeyAction
	// VKCode 虚拟键码
	VKCode uint16
	// Injected 是否为合成输入（包括本程序自己注入的按键）
	Injected bool
}

// MessageKind 线程消息类型
type MessageKind int

const (
	// MessageOther 需要正常分发的其他消息
	MessageOther MessageKind = iota
	// MessageQuit 结束消息泵
	MessageQuit
	// MessageCaptureRequested 钩子回调请求在消息泵线程上执行一次捕获
	MessageCaptureRequested
)

// String 返回消息类型名称
func (k MessageKind) String() string {
	switch k {
	case MessageQuit:
		return "quit"
	case MessageCaptureRequested:
		return "capture_requested"
	default:
		return "other"
	}
}

// Message 从线程消息队列取出的消息
type Message struct {
	Kind MessageKind
	// Raw 平台相关的原始消息，DispatchMessage 时原样交回
	Raw any
}

// HookDecision 钩子回调对一个事件的处理结果
type HookDecision struct {
	// Suppress 为 true 时事件不再传递给下一个钩子
	Suppress bool
	// Post 需要投递给消息泵线程的消息，MessageOther 表示不投递
	Post MessageKind
}

// PointerHandler 鼠标钩子回调
//
// 在钩子线程上同步执行，必须立即返回。
type PointerHandler func(PointerEvent) HookDecision

// KeyHandler 键盘钩子回调
type KeyHandler func(KeyEvent) HookDecision

// HookHost 全局钩子与线程消息队列
//
// 安装钩子的线程必须同时运行消息泵，所有方法（PostMessage 除外）
// 都应在同一个锁定的 OS 线程上调用。
type HookHost interface {
	// CurrentThreadID 返回调用线程的 ID
	CurrentThreadID() ThreadID

	// InstallKeyboardHook 安装全局低级键盘钩子
	InstallKeyboardHook(handler KeyHandler) (HookHandle, error)

	// InstallPointerHook 安装全局低级鼠标钩子
	InstallPointerHook(handler PointerHandler) (HookHandle, error)

	// UninstallHook 卸载钩子
	UninstallHook(handle HookHandle) error

	// NextMessage 阻塞直到取得下一条线程消息
	NextMessage() (Message, error)

	// DispatchMessage 翻译并分发普通消息
	DispatchMessage(msg Message)

	// PostMessage 向指定线程投递消息，可在任意线程调用
	PostMessage(thread ThreadID, kind MessageKind) error

	// DrainMessages 丢弃调用线程队列中尚未取出的消息，返回丢弃数量
	DrainMessages() int
}

// KeyInput 一次合成按键
type KeyInput struct {
	VKCode uint16
	Up     bool
}

// KeySender 合成键盘输入
type KeySender interface {
	// SendKeys 以一个批次提交按键，返回被系统接受的数量
	SendKeys(keys []KeyInput) (int, error)
}

// ControlSignal 控制台控制信号
type ControlSignal int

const (
	SignalInterrupt ControlSignal = iota // Ctrl+C
	SignalBreak                          // Ctrl+Break
	SignalClose                          // 关闭控制台窗口
	SignalLogoff                         // 用户注销
	SignalShutdown                       // 系统关机
	SignalUnknown
)

// String 返回信号名称
func (s ControlSignal) String() string {
	switch s {
	case SignalInterrupt:
		return "interrupt"
	case SignalBreak:
		return "break"
	case SignalClose:
		return "close"
	case SignalLogoff:
		return "logoff"
	case SignalShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// ControlHandler 控制信号处理函数
//
// 返回 true 表示信号已处理，系统不再执行默认动作（终止进程）。
type ControlHandler func(ControlSignal) bool

// SignalHost 进程级控制信号注册
type SignalHost interface {
	Install(handler ControlHandler) error
	Remove() error
}

// Clipboard 系统剪贴板文本访问
//
// 每次调用独立打开和关闭系统剪贴板，不跨调用持有剪贴板。
type Clipboard interface {
	// Open 检查剪贴板是否可用
	Open() error
	// ReadText 读取 Unicode 文本，剪贴板无文本时返回错误
	ReadText() (string, error)
	// WriteText 清空剪贴板并写入文本
	WriteText(text string) error
}

// WindowHandle 顶层窗口句柄
type WindowHandle uintptr

// ControlType UI Automation 控件类型 ID
type ControlType int32

const (
	ControlTypeEdit     ControlType = 50004
	ControlTypeText     ControlType = 50020
	ControlTypeDocument ControlType = 50030
)

// IsTextual 是否为可能包含文本的控件（编辑框、文档、文本）
func (c ControlType) IsTextual() bool {
	return c == ControlTypeEdit || c == ControlTypeDocument || c == ControlTypeText
}

// Element UI Automation 元素
//
// 持有 COM 引用，使用完毕必须调用 Release。
type Element interface {
	ControlType() (ControlType, error)
	Name() (string, error)
	// SelectedText 通过 TextPattern 读取所有选区并拼接，
	// 元素不支持该模式时第二个返回值为 false
	SelectedText() (string, bool, error)
	// Value 通过 ValuePattern 读取当前值
	Value() (string, bool, error)
	Release()
}

// Accessibility UI Automation 客户端
//
// 实现绑定创建它的 OS 线程（COM 单元），必须在同一线程上使用和关闭。
type Accessibility interface {
	// ForegroundWindow 返回前台窗口句柄和标题
	ForegroundWindow() (WindowHandle, string)
	// FocusedElement 返回当前焦点元素
	FocusedElement() (Element, error)
	// ElementAtCursor 返回鼠标指针下的元素
	ElementAtCursor() (Element, error)
	Close()
}

// AccessibilityFactory 在调用线程上创建 Accessibility
type AccessibilityFactory func() (Accessibility, error)
