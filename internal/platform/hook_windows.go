//go:build windows

package platform

import (
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	procPeekMessage         = user32.NewProc("PeekMessageW")

	kernel32            = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle = kernel32.NewProc("GetModuleHandleW")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14
	hcAction     = 0

	pmRemove = 0x0001

	wmQuit             = 0x0012
	wmUser             = 0x0400
	wmCaptureRequested = wmUser + 1

	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202

	llkhfInjected = 0x00000010
	llmhfInjected = 0x00000001
)

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

// 系统回调只能通过包级函数进入 Go，处理函数经原子指针路由。
// 回调只创建一次，避免 syscall.NewCallback 的数量上限。
var (
	keyboardHandler atomic.Pointer[KeyHandler]
	pointerHandler  atomic.Pointer[PointerHandler]
	keyboardHook    atomic.Uintptr
	pointerHook     atomic.Uintptr

	keyboardCallback = syscall.NewCallback(keyboardProc)
	pointerCallback  = syscall.NewCallback(pointerProc)
)

// WindowsHookHost 基于 Win32 低级钩子和线程消息队列的 HookHost
//
// 一个进程同一时间只能有一个键盘钩子和一个鼠标钩子由它安装。
type WindowsHookHost struct{}

// NewHookHost 创建 Windows 钩子宿主
func NewHookHost() HookHost {
	return &WindowsHookHost{}
}

// CurrentThreadID 返回调用线程 ID
func (h *WindowsHookHost) CurrentThreadID() ThreadID {
	return ThreadID(windows.GetCurrentThreadId())
}

// InstallKeyboardHook 安装 WH_KEYBOARD_LL 钩子
func (h *WindowsHookHost) InstallKeyboardHook(handler KeyHandler) (HookHandle, error) {
	if !keyboardHandler.CompareAndSwap(nil, &handler) {
		return 0, errors.New("keyboard hook already installed")
	}
	handle, err := setHook(whKeyboardLL, keyboardCallback)
	if err != nil {
		keyboardHandler.Store(nil)
		return 0, fmt.Errorf("install keyboard hook: %w", err)
	}
	keyboardHook.Store(uintptr(handle))
	return handle, nil
}

// InstallPointerHook 安装 WH_MOUSE_LL 钩子
func (h *WindowsHookHost) InstallPointerHook(handler PointerHandler) (HookHandle, error) {
	if !pointerHandler.CompareAndSwap(nil, &handler) {
		return 0, errors.New("pointer hook already installed")
	}
	handle, err := setHook(whMouseLL, pointerCallback)
	if err != nil {
		pointerHandler.Store(nil)
		return 0, fmt.Errorf("install pointer hook: %w", err)
	}
	pointerHook.Store(uintptr(handle))
	return handle, nil
}

// UninstallHook 卸载钩子并清除对应的处理函数
func (h *WindowsHookHost) UninstallHook(handle HookHandle) error {
	if handle == 0 {
		return errors.New("invalid hook handle")
	}
	ret, _, err := procUnhookWindowsHookEx.Call(uintptr(handle))
	// 无论系统调用是否成功都释放处理函数，允许下次重新安装
	if keyboardHook.CompareAndSwap(uintptr(handle), 0) {
		keyboardHandler.Store(nil)
	}
	if pointerHook.CompareAndSwap(uintptr(handle), 0) {
		pointerHandler.Store(nil)
	}
	if ret == 0 {
		return fmt.Errorf("UnhookWindowsHookEx: %w", err)
	}
	return nil
}

// NextMessage 调用 GetMessageW 阻塞等待下一条消息
func (h *WindowsHookHost) NextMessage() (Message, error) {
	var m msg
	ret, _, err := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
	switch int32(ret) {
	case -1:
		return Message{}, fmt.Errorf("GetMessageW: %w", err)
	case 0:
		return Message{Kind: MessageQuit}, nil
	}
	if m.Hwnd == 0 && m.Message == wmCaptureRequested {
		return Message{Kind: MessageCaptureRequested}, nil
	}
	return Message{Kind: MessageOther, Raw: &m}, nil
}

// DispatchMessage 翻译并分发消息
func (h *WindowsHookHost) DispatchMessage(message Message) {
	m, ok := message.Raw.(*msg)
	if !ok {
		return
	}
	procTranslateMessage.Call(uintptr(unsafe.Pointer(m)))
	procDispatchMessage.Call(uintptr(unsafe.Pointer(m)))
}

// PostMessage 通过 PostThreadMessageW 投递消息
func (h *WindowsHookHost) PostMessage(thread ThreadID, kind MessageKind) error {
	var id uintptr
	switch kind {
	case MessageQuit:
		id = wmQuit
	case MessageCaptureRequested:
		id = wmCaptureRequested
	default:
		return fmt.Errorf("cannot post message kind %s", kind)
	}
	ret, _, err := procPostThreadMessage.Call(uintptr(thread), id, 0, 0)
	if ret == 0 {
		return fmt.Errorf("PostThreadMessageW: %w", err)
	}
	return nil
}

// DrainMessages 用 PeekMessageW(PM_REMOVE) 清空调用线程的消息队列
func (h *WindowsHookHost) DrainMessages() int {
	var m msg
	n := 0
	for {
		ret, _, _ := procPeekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if ret == 0 {
			return n
		}
		n++
	}
}

func setHook(kind int, callback uintptr) (HookHandle, error) {
	module, _, _ := procGetModuleHandle.Call(0)
	ret, _, err := procSetWindowsHookEx.Call(uintptr(kind), callback, module, 0)
	if ret == 0 {
		return 0, fmt.Errorf("SetWindowsHookExW: %w", err)
	}
	return HookHandle(ret), nil
}

func callNext(nCode int, wParam, lParam uintptr) uintptr {
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func keyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode != hcAction {
		return callNext(nCode, wParam, lParam)
	}
	handler := keyboardHandler.Load()
	if handler == nil {
		return callNext(nCode, wParam, lParam)
	}

	kbd := (*kbdllHookStruct)(unsafe.Pointer(lParam))
	ev := KeyEvent{
		VKCode:   uint16(kbd.VkCode),
		Injected: kbd.Flags&llkhfInjected != 0,
	}
	switch wParam {
	case wmKeyDown, wmSysKeyDown:
		ev.Action = KeyDown
	case wmKeyUp, wmSysKeyUp:
		ev.Action = KeyUp
	}

	if invokeKey(*handler, ev).Suppress {
		return 1
	}
	return callNext(nCode, wParam, lParam)
}

func pointerProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode != hcAction {
		return callNext(nCode, wParam, lParam)
	}
	handler := pointerHandler.Load()
	if handler == nil {
		return callNext(nCode, wParam, lParam)
	}

	ms := (*msllHookStruct)(unsafe.Pointer(lParam))
	ev := PointerEvent{
		X:        ms.Pt.X,
		Y:        ms.Pt.Y,
		Injected: ms.Flags&llmhfInjected != 0,
	}
	switch wParam {
	case wmLButtonDown:
		ev.Action = PointerLeftDown
	case wmLButtonUp:
		ev.Action = PointerLeftUp
	}

	if invokePointer(*handler, ev).Suppress {
		return 1
	}
	return callNext(nCode, wParam, lParam)
}

// invokeKey 调用处理函数，panic 时按未处理转发
func invokeKey(handler KeyHandler, ev KeyEvent) (decision HookDecision) {
	defer func() {
		if recover() != nil {
			decision = HookDecision{}
		}
	}()
	return handler(ev)
}

func invokePointer(handler PointerHandler, ev PointerEvent) (decision HookDecision) {
	defer func() {
		if recover() != nil {
			decision = HookDecision{}
		}
	}()
	return handler(ev)
}
