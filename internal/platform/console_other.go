//go:build !windows

package platform

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// NotifySignalHost 基于 os/signal 的控制信号宿主
//
// SIGINT 映射为 SignalInterrupt，SIGTERM 为 SignalShutdown，SIGHUP 为 SignalClose。
// 处理函数返回 false 时恢复默认行为并重新发送信号给自身。
type NotifySignalHost struct {
	mu   sync.Mutex
	ch   chan os.Signal
	done chan struct{}
}

// NewSignalHost 创建信号宿主
func NewSignalHost() SignalHost {
	return &NotifySignalHost{}
}

// Install 开始接收信号
func (n *NotifySignalHost) Install(handler ControlHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != nil {
		return errors.New("signal handler already installed")
	}
	n.ch = make(chan os.Signal, 4)
	n.done = make(chan struct{})
	signal.Notify(n.ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func(ch chan os.Signal, done chan struct{}) {
		for {
			select {
			case s := <-ch:
				if !handler(mapSignal(s)) {
					signal.Reset(s)
					if p, err := os.FindProcess(os.Getpid()); err == nil {
						_ = p.Signal(s)
					}
				}
			case <-done:
				return
			}
		}
	}(n.ch, n.done)

	return nil
}

// Remove 停止接收信号
func (n *NotifySignalHost) Remove() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch == nil {
		return nil
	}
	signal.Stop(n.ch)
	close(n.done)
	n.ch = nil
	n.done = nil
	return nil
}

func mapSignal(s os.Signal) ControlSignal {
	switch s {
	case syscall.SIGINT:
		return SignalInterrupt
	case syscall.SIGTERM:
		return SignalShutdown
	case syscall.SIGHUP:
		return SignalClose
	default:
		return SignalUnknown
	}
}
