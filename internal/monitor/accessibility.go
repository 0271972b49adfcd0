package monitor

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chenyang-zz/selgrab/internal/platform"
	"github.com/chenyang-zz/selgrab/pkg/events"
	"github.com/chenyang-zz/selgrab/pkg/logger"
	"go.uber.org/zap"
)

// MinTextLength 去除首尾空白后少于该字符数的文本不发布
const MinTextLength = 2

// extraction 文本提取策略
type extraction struct {
	label   string
	extract func(platform.Element) (string, bool, error)
}

// strategies 按顺序尝试，第一个得到有效文本的策略生效
var strategies = []extraction{
	{label: "选中文本", extract: platform.Element.SelectedText},
	{label: "输入框内容", extract: platform.Element.Value},
}

// AccessibilityPoller UI Automation 轮询监控器
//
// 在独占的 OS 线程上初始化 COM 并创建 UI Automation 客户端，每个周期：
//   1. 检查前台窗口，切换时发布 focus_change 事件
//   2. 读取焦点元素，按控件类型和提取策略取文本
//   3. 探测鼠标指针下的元素
//
// 任何 UI Automation 调用失败都视为本周期没有结果。
type AccessibilityPoller struct {
	// factory 在轮询线程上创建 UI Automation 客户端
	factory platform.AccessibilityFactory

	// eventBus 事件总线，用于发布焦点和文本事件
	eventBus *events.EventBus

	// interval 轮询间隔
	interval time.Duration

	// isRunning 监控器运行状态标志
	isRunning bool

	// mu 读写锁，保护并发访问
	mu sync.RWMutex

	stopChan chan struct{}
	doneChan chan struct{}

	// 以下字段只在轮询线程上访问
	lastWindow platform.WindowHandle
	lastTitle  string
	// lastText 每个来源最近一次读到的有效文本
	lastText map[events.Source]string
}

// NewAccessibilityPoller 创建 UI Automation 轮询监控器
//
// Parameters:
//   - eventBus: 事件总线实例
//   - factory: UI Automation 客户端工厂，通常为 platform.NewAccessibility
//   - interval: 轮询间隔，<=0 时使用 PollInterval
//
// Returns: *AccessibilityPoller - 未启动的监控器
func NewAccessibilityPoller(eventBus *events.EventBus, factory platform.AccessibilityFactory, interval time.Duration) *AccessibilityPoller {
	if interval <= 0 {
		interval = PollInterval
	}
	return &AccessibilityPoller{
		factory:  factory,
		eventBus: eventBus,
		interval: interval,
	}
}

// Start 启动轮询
//
// 阻塞直到 UI Automation 客户端在轮询线程上创建完成。
//
// Returns: error - COM 初始化或客户端创建失败时返回错误
func (ap *AccessibilityPoller) Start() error {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	if ap.isRunning {
		logger.Debug("UI Automation 监控器已在运行", zap.String("component", "accessibility"))
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	ready := make(chan error, 1)

	go ap.loop(stop, done, ready)

	if err := <-ready; err != nil {
		<-done
		logger.Error("初始化 UI Automation 失败", zap.String("component", "accessibility"), zap.Error(err))
		return fmt.Errorf("init ui automation: %w", err)
	}

	ap.stopChan = stop
	ap.doneChan = done
	ap.isRunning = true

	logger.Info("UI Automation 监控器启动成功",
		zap.String("component", "accessibility"),
		zap.Duration("interval", ap.interval),
	)
	return nil
}

// Stop 停止轮询并释放 UI Automation 客户端
func (ap *AccessibilityPoller) Stop() error {
	ap.mu.Lock()
	if !ap.isRunning {
		ap.mu.Unlock()
		logger.Debug("UI Automation 监控器未运行", zap.String("component", "accessibility"))
		return nil
	}
	close(ap.stopChan)
	done := ap.doneChan
	ap.isRunning = false
	ap.mu.Unlock()

	<-done

	logger.Info("UI Automation 监控器已停止", zap.String("component", "accessibility"))
	return nil
}

// IsRunning 检查运行状态
func (ap *AccessibilityPoller) IsRunning() bool {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return ap.isRunning
}

func (ap *AccessibilityPoller) loop(stop <-chan struct{}, done chan<- struct{}, ready chan<- error) {
	defer close(done)

	// COM 单元绑定线程
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	client, err := ap.factory()
	if err != nil {
		ready <- err
		return
	}
	defer client.Close()

	ap.lastWindow = 0
	ap.lastTitle = ""
	ap.lastText = make(map[events.Source]string, 2)
	ready <- nil

	ticker := time.NewTicker(ap.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ap.poll(client)
		}
	}
}

// poll 执行一个轮询周期
func (ap *AccessibilityPoller) poll(client platform.Accessibility) {
	hwnd, title := client.ForegroundWindow()
	if hwnd != 0 && hwnd != ap.lastWindow {
		ap.lastWindow = hwnd
		ap.lastTitle = title

		logger.Debug("前台窗口切换", zap.String("component", "accessibility"), zap.String("title", title))
		data := events.FocusEventData{Title: title}
		ap.publish(events.NewEvent(events.EventTypeFocus, data.ToMap()))
	}

	if el, err := client.FocusedElement(); err == nil && el != nil {
		ap.inspect(el, events.SourceAccessibility)
		el.Release()
	}

	if el, err := client.ElementAtCursor(); err == nil && el != nil {
		ap.inspect(el, events.SourcePointerProbe)
		el.Release()
	}
}

// inspect 从元素提取文本，得到新文本时发布 selection 事件
func (ap *AccessibilityPoller) inspect(el platform.Element, source events.Source) {
	controlType, err := el.ControlType()
	if err != nil || !controlType.IsTextual() {
		return
	}

	for _, s := range strategies {
		text, ok, err := s.extract(el)
		if err != nil || !ok {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextLength {
			continue
		}
		if ap.isDuplicate(source, text) {
			return
		}

		name, _ := el.Name()
		logger.Info("UI Automation 捕获到文本",
			zap.String("component", "accessibility"),
			zap.String("source", string(source)),
			zap.String("label", s.label),
			zap.Int("length", utf8.RuneCountInString(text)),
		)

		data := events.SelectionEventData{Source: source, Text: text, Label: s.label}
		event := events.NewEvent(events.EventTypeSelection, data.ToMap()).
			WithContext(&events.EventContext{
				WindowTitle: ap.lastTitle,
				ElementName: name,
				Selection:   text,
			})
		ap.publish(event)
		return
	}
}

// isDuplicate 记录该来源读到的文本，与上次相同时返回 true
//
// 指针下的元素就是焦点元素时，两个来源读到同一段文本，只发布焦点来源的那一次。
func (ap *AccessibilityPoller) isDuplicate(source events.Source, text string) bool {
	previous := ap.lastText[source]
	ap.lastText[source] = text
	if previous == text {
		return true
	}
	return source == events.SourcePointerProbe && ap.lastText[events.SourceAccessibility] == text
}

func (ap *AccessibilityPoller) publish(event *events.Event) {
	if err := ap.eventBus.Publish(*event); err != nil {
		logger.Error("发布 UI Automation 事件失败",
			zap.String("component", "accessibility"),
			zap.Error(err),
		)
	}
}
