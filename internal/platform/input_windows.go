//go:build windows

package platform

import (
	"fmt"
	"syscall"
	"unsafe"
)

var procSendInput = user32.NewProc("SendInput")

const (
	inputKeyboard  = 1
	keyEventFKeyUp = 0x0002
)

type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type input struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte // 补齐到 INPUT 联合体中最大成员 MOUSEINPUT 的尺寸
}

// WindowsKeySender 基于 SendInput 的按键注入
type WindowsKeySender struct{}

// NewKeySender 创建 Windows 按键注入器
func NewKeySender() KeySender {
	return &WindowsKeySender{}
}

// SendKeys 将所有按键作为一个 SendInput 批次提交
//
// 返回系统接受的输入数量；被 UIPI 拦截或输入被其他线程阻塞时少于 len(keys)。
func (s *WindowsKeySender) SendKeys(keys []KeyInput) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	inputs := make([]input, len(keys))
	for i, k := range keys {
		inputs[i].Type = inputKeyboard
		inputs[i].Ki.WVk = k.VKCode
		if k.Up {
			inputs[i].Ki.DwFlags = keyEventFKeyUp
		}
	}

	ret, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	accepted := int(ret)
	if accepted < len(keys) {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return accepted, fmt.Errorf("SendInput: %w", errno)
		}
		return accepted, fmt.Errorf("SendInput accepted %d of %d inputs", accepted, len(keys))
	}
	return accepted, nil
}
