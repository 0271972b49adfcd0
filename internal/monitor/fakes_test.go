package monitor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chenyang-zz/selgrab/internal/platform"
	"github.com/chenyang-zz/selgrab/pkg/events"
)

var errNotFound = errors.New("element not found")

// memClipboard 内存剪贴板
type memClipboard struct {
	mu      sync.Mutex
	text    string
	openErr error
	readErr error
}

func (c *memClipboard) Open() error { return c.openErr }

func (c *memClipboard) ReadText() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return "", c.readErr
	}
	return c.text, nil
}

func (c *memClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *memClipboard) setReadErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

// fakeElement 可配置的 UI Automation 元素
type fakeElement struct {
	controlType platform.ControlType
	name        string
	selection   string
	hasPattern  bool
	value       string
	hasValue    bool
	mu          sync.Mutex
	released    int
}

func (e *fakeElement) ControlType() (platform.ControlType, error) { return e.controlType, nil }
func (e *fakeElement) Name() (string, error)                      { return e.name, nil }
func (e *fakeElement) SelectedText() (string, bool, error)        { return e.selection, e.hasPattern, nil }
func (e *fakeElement) Value() (string, bool, error)               { return e.value, e.hasValue, nil }

func (e *fakeElement) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released++
}

// fakeAccessibility 可在测试中切换状态的 UI Automation 客户端
type fakeAccessibility struct {
	mu      sync.Mutex
	hwnd    platform.WindowHandle
	title   string
	focused platform.Element
	cursor  platform.Element
	closed  bool
}

func (a *fakeAccessibility) ForegroundWindow() (platform.WindowHandle, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hwnd, a.title
}

func (a *fakeAccessibility) FocusedElement() (platform.Element, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.focused == nil {
		return nil, errNotFound
	}
	return a.focused, nil
}

func (a *fakeAccessibility) ElementAtCursor() (platform.Element, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cursor == nil {
		return nil, errNotFound
	}
	return a.cursor, nil
}

func (a *fakeAccessibility) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

func (a *fakeAccessibility) setWindow(hwnd platform.WindowHandle, title string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hwnd = hwnd
	a.title = title
}

func (a *fakeAccessibility) setFocused(el platform.Element) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.focused = el
}

func (a *fakeAccessibility) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *fakeAccessibility) factory() platform.AccessibilityFactory {
	return func() (platform.Accessibility, error) { return a, nil }
}

// recorder 订阅事件总线并记录事件
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecorder(t *testing.T) (*events.EventBus, *recorder) {
	t.Helper()
	bus := events.NewEventBus()
	r := &recorder{}
	bus.Subscribe("*", func(event events.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, event)
		return nil
	})
	t.Cleanup(func() { _ = bus.Stop(time.Second) })
	return bus, r
}

func (r *recorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
