package capture

import (
	"errors"
	"sync"
	"time"

	"github.com/chenyang-zz/selgrab/internal/platform"
)

var errNoText = errors.New("clipboard has no text")

// fakeClipboard 内存剪贴板
type fakeClipboard struct {
	mu       sync.Mutex
	text     string
	present  bool
	openErr  error
	readErr  error
	writeErr error
	writes   []string
}

func newFakeClipboard(text string) *fakeClipboard {
	return &fakeClipboard{text: text, present: true}
}

func (c *fakeClipboard) Open() error {
	return c.openErr
}

func (c *fakeClipboard) ReadText() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return "", c.readErr
	}
	if !c.present {
		return "", errNoText
	}
	return c.text, nil
}

func (c *fakeClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.text = text
	c.present = true
	c.writes = append(c.writes, text)
	return nil
}

// set 模拟目标应用响应 Ctrl+C 写入剪贴板
func (c *fakeClipboard) set(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.present = true
}

func (c *fakeClipboard) current() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, c.present
}

// fakeSender 记录注入的按键
type fakeSender struct {
	mu       sync.Mutex
	batches  [][]platform.KeyInput
	accepted int // <0 表示全部接受
	err      error
	onSend   func()
}

func newFakeSender(onSend func()) *fakeSender {
	return &fakeSender{accepted: -1, onSend: onSend}
}

func (s *fakeSender) SendKeys(keys []platform.KeyInput) (int, error) {
	s.mu.Lock()
	batch := make([]platform.KeyInput, len(keys))
	copy(batch, keys)
	s.batches = append(s.batches, batch)
	accepted := s.accepted
	s.mu.Unlock()

	if s.onSend != nil {
		s.onSend()
	}
	if accepted < 0 {
		return len(keys), nil
	}
	return accepted, s.err
}

func (s *fakeSender) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// fakeInjector 固定返回值的注入器
type fakeInjector struct {
	accepted int
	err      error
	onInject func()
	calls    int
}

func (f *fakeInjector) InjectCopy() (int, error) {
	f.calls++
	if f.onInject != nil {
		f.onInject()
	}
	return f.accepted, f.err
}

// fakeHost 以通道模拟线程消息队列的钩子宿主
type fakeHost struct {
	mu          sync.Mutex
	thread      platform.ThreadID
	queue       chan platform.MessageKind
	keyboardErr error
	pointerErr  error
	uninstall   map[platform.HookHandle]error
	uninstalled []platform.HookHandle
	dispatched  int
	drained     int
	onDispatch  func()
	onKey       platform.KeyHandler
	onPointer   platform.PointerHandler
}

const (
	keyboardHandle platform.HookHandle = 1
	pointerHandle  platform.HookHandle = 2
)

func newFakeHost() *fakeHost {
	return &fakeHost{
		thread:    42,
		queue:     make(chan platform.MessageKind, 64),
		uninstall: make(map[platform.HookHandle]error),
	}
}

func (h *fakeHost) CurrentThreadID() platform.ThreadID {
	return h.thread
}

func (h *fakeHost) InstallKeyboardHook(handler platform.KeyHandler) (platform.HookHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.keyboardErr != nil {
		return 0, h.keyboardErr
	}
	h.onKey = handler
	return keyboardHandle, nil
}

func (h *fakeHost) InstallPointerHook(handler platform.PointerHandler) (platform.HookHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pointerErr != nil {
		return 0, h.pointerErr
	}
	h.onPointer = handler
	return pointerHandle, nil
}

func (h *fakeHost) UninstallHook(handle platform.HookHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uninstalled = append(h.uninstalled, handle)
	return h.uninstall[handle]
}

func (h *fakeHost) NextMessage() (platform.Message, error) {
	kind := <-h.queue
	return platform.Message{Kind: kind}, nil
}

func (h *fakeHost) DispatchMessage(platform.Message) {
	h.mu.Lock()
	h.dispatched++
	onDispatch := h.onDispatch
	h.mu.Unlock()
	if onDispatch != nil {
		onDispatch()
	}
}

func (h *fakeHost) DrainMessages() int {
	n := 0
	for {
		select {
		case <-h.queue:
			n++
		default:
			h.mu.Lock()
			h.drained += n
			h.mu.Unlock()
			return n
		}
	}
}

// pending 队列中尚未取出的消息数
func (h *fakeHost) pending() int {
	return len(h.queue)
}

func (h *fakeHost) PostMessage(thread platform.ThreadID, kind platform.MessageKind) error {
	if thread != h.thread {
		return errors.New("unknown thread")
	}
	h.queue <- kind
	return nil
}

// pointer 模拟一次鼠标钩子回调
func (h *fakeHost) pointer(ev platform.PointerEvent) platform.HookDecision {
	h.mu.Lock()
	handler := h.onPointer
	h.mu.Unlock()
	return handler(ev)
}

// key 模拟一次键盘钩子回调
func (h *fakeHost) key(ev platform.KeyEvent) platform.HookDecision {
	h.mu.Lock()
	handler := h.onKey
	h.mu.Unlock()
	return handler(ev)
}

func (h *fakeHost) uninstallOrder() []platform.HookHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]platform.HookHandle, len(h.uninstalled))
	copy(out, h.uninstalled)
	return out
}

// fakeSignals 记录注册的控制台信号处理函数
type fakeSignals struct {
	mu         sync.Mutex
	handler    platform.ControlHandler
	installErr error
	removed    bool
}

func (s *fakeSignals) Install(handler platform.ControlHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installErr != nil {
		return s.installErr
	}
	s.handler = handler
	return nil
}

func (s *fakeSignals) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = true
	s.handler = nil
	return nil
}

func (s *fakeSignals) raise(sig platform.ControlSignal) bool {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler == nil {
		return false
	}
	return handler(sig)
}

func (s *fakeSignals) isRemoved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

// sleepRecorder 记录休眠时长而不真正休眠
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, d)
}

func (r *sleepRecorder) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.calls))
	copy(out, r.calls)
	return out
}

func noSleep(time.Duration) {}
