//go:build windows

package platform

import (
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
)

var procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")

const (
	ctrlCEvent        = 0
	ctrlBreakEvent    = 1
	ctrlCloseEvent    = 2
	ctrlLogoffEvent   = 5
	ctrlShutdownEvent = 6
)

var (
	consoleHandler  atomic.Pointer[ControlHandler]
	consoleCallback = syscall.NewCallback(consoleProc)
)

// ConsoleSignalHost 通过 SetConsoleCtrlHandler 接收控制台信号
//
// 系统在独立线程上调用处理函数。
type ConsoleSignalHost struct{}

// NewSignalHost 创建控制台信号宿主
func NewSignalHost() SignalHost {
	return &ConsoleSignalHost{}
}

// Install 注册控制台信号处理函数
func (c *ConsoleSignalHost) Install(handler ControlHandler) error {
	if !consoleHandler.CompareAndSwap(nil, &handler) {
		return errors.New("console control handler already installed")
	}
	ret, _, err := procSetConsoleCtrlHandler.Call(consoleCallback, 1)
	if ret == 0 {
		consoleHandler.Store(nil)
		return fmt.Errorf("SetConsoleCtrlHandler: %w", err)
	}
	return nil
}

// Remove 注销控制台信号处理函数
func (c *ConsoleSignalHost) Remove() error {
	if consoleHandler.Swap(nil) == nil {
		return nil
	}
	ret, _, err := procSetConsoleCtrlHandler.Call(consoleCallback, 0)
	if ret == 0 {
		return fmt.Errorf("SetConsoleCtrlHandler remove: %w", err)
	}
	return nil
}

func consoleProc(ctrlType uint32) uintptr {
	handler := consoleHandler.Load()
	if handler == nil {
		return 0
	}

	var sig ControlSignal
	switch ctrlType {
	case ctrlCEvent:
		sig = SignalInterrupt
	case ctrlBreakEvent:
		sig = SignalBreak
	case ctrlCloseEvent:
		sig = SignalClose
	case ctrlLogoffEvent:
		sig = SignalLogoff
	case ctrlShutdownEvent:
		sig = SignalShutdown
	default:
		sig = SignalUnknown
	}

	if (*handler)(sig) {
		return 1
	}
	return 0
}
