package capture

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/chenyang-zz/selgrab/internal/platform"
	"github.com/chenyang-zz/selgrab/pkg/events"
	"github.com/chenyang-zz/selgrab/pkg/logger"
	"go.uber.org/zap"
)

// Phase 引擎生命周期阶段
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseHooksInstalling
	PhasePumping
	PhaseDraining
	PhaseHooksRemoved
	PhaseStopped
)

// String 返回阶段名称
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseHooksInstalling:
		return "hooks_installing"
	case PhasePumping:
		return "pumping"
	case PhaseDraining:
		return "draining"
	case PhaseHooksRemoved:
		return "hooks_removed"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Dependencies 引擎依赖的平台能力
type Dependencies struct {
	Hooks     platform.HookHost
	Keys      platform.KeySender
	Clipboard platform.Clipboard
	Signals   platform.SignalHost

	// Bus 事件总线（可选）
	Bus *events.EventBus

	// Now 时钟，nil 时使用 time.Now
	Now func() time.Time
	// Sleep 休眠函数，nil 时使用 time.Sleep
	Sleep func(time.Duration)
}

// Engine 全局选中文本捕获引擎
//
// 在一个锁定的 OS 线程上安装键盘和鼠标低级钩子并运行消息泵。
// 鼠标左键抬起经防抖后请求一次捕获，捕获在消息泵线程上同步执行；
// Esc、控制台信号或 context 取消结束消息泵并卸载钩子。
type Engine struct {
	hooks     platform.HookHost
	signals   platform.SignalHost
	clipboard platform.Clipboard
	bus       *events.EventBus

	state    *EngineState
	workflow *Workflow
	now      func() time.Time
	sleep    func(time.Duration)

	phase   atomic.Int32
	running atomic.Bool
}

// NewEngine 创建捕获引擎
//
// Parameters:
//   - deps: 平台依赖
//
// Returns: *Engine - 处于 PhaseIdle 的引擎
func NewEngine(deps Dependencies) *Engine {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	state := NewEngineState()
	injector := NewCopyInjector(deps.Keys, state, sleep)

	return &Engine{
		hooks:     deps.Hooks,
		signals:   deps.Signals,
		clipboard: deps.Clipboard,
		bus:       deps.Bus,
		state:     state,
		workflow:  NewWorkflow(deps.Clipboard, injector, sleep),
		now:       now,
		sleep:     sleep,
	}
}

// Phase 返回当前阶段
func (e *Engine) Phase() Phase {
	return Phase(e.phase.Load())
}

// State 返回共享状态
func (e *Engine) State() *EngineState {
	return e.state
}

// Stop 请求引擎退出
//
// 可在任意协程调用；消息泵在下一次取消息时退出。
func (e *Engine) Stop() {
	e.state.RequestExit()
	e.wake()
}

// Run 运行引擎直到退出
//
// 阻塞调用，期间锁定当前 OS 线程。初始化失败返回包装 ErrInitialization 的错误，
// 已安装的钩子在任何返回路径上都会被卸载。
//
// Parameters:
//   - ctx: 取消时请求退出
//
// Returns: error - 初始化、消息泵或卸载钩子时的错误
func (e *Engine) Run(ctx context.Context) (err error) {
	if !e.running.CompareAndSwap(false, true) {
		return ErrEngineRunning
	}
	defer e.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	log := logger.With(zap.String("component", "capture_engine"))

	// 线程归还前清空队列，残留的退出消息不能影响之后在同一线程上的运行
	defer e.drainQueue(log)

	e.state.Reset()
	defer e.state.ClearExit()
	e.setPhase(PhaseHooksInstalling)
	defer e.setPhase(PhaseStopped)

	if e.signals != nil {
		if err := e.signals.Install(NewControlHandler(e.state, e.wake, e.sleep)); err != nil {
			log.Warn("注册控制台信号处理失败", zap.Error(err))
		} else {
			defer func() {
				if err := e.signals.Remove(); err != nil {
					log.Warn("注销控制台信号处理失败", zap.Error(err))
				}
			}()
		}
	}

	thread := e.hooks.CurrentThreadID()
	if thread == 0 {
		return fmt.Errorf("%w: cannot determine owner thread", ErrInitialization)
	}
	e.state.SetOwnerThread(thread)

	if err := e.clipboard.Open(); err != nil {
		return fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	keyboard, err := e.hooks.InstallKeyboardHook(e.onKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	pointer, err := e.hooks.InstallPointerHook(e.onPointer)
	if err != nil {
		initErr := fmt.Errorf("%w: %v", ErrInitialization, err)
		if uninstallErr := e.hooks.UninstallHook(keyboard); uninstallErr != nil {
			log.Error("卸载键盘钩子失败", zap.Error(uninstallErr))
			return errors.Join(initErr, fmt.Errorf("uninstall keyboard hook: %w", uninstallErr))
		}
		return initErr
	}

	log.Info("全局钩子已安装，松开鼠标左键捕获选中文本，按 Esc 退出",
		zap.Uint32("thread", uint32(thread)))
	e.publish(events.NewEvent(events.EventTypeStatus, map[string]interface{}{
		"status": "started",
		"source": string(events.SourceHook),
	}))

	watchDone := make(chan struct{})
	watchExited := make(chan struct{})
	go func() {
		defer close(watchExited)
		select {
		case <-ctx.Done():
			e.Stop()
		case <-watchDone:
		}
	}()
	defer func() {
		close(watchDone)
		<-watchExited
	}()

	e.setPhase(PhasePumping)
	pumpErr := e.pump()
	if pumpErr != nil {
		log.Error("消息泵异常退出", zap.Error(pumpErr))
	}

	e.setPhase(PhaseDraining)
	teardownErr := e.teardown(pointer, keyboard)
	e.setPhase(PhaseHooksRemoved)

	log.Info("全局钩子已卸载")
	e.publish(events.NewEvent(events.EventTypeStatus, map[string]interface{}{
		"status": "stopped",
		"source": string(events.SourceHook),
	}))

	return errors.Join(pumpErr, teardownErr)
}

// pump 消息泵主循环
func (e *Engine) pump() error {
	for {
		if e.state.ShouldExit() {
			return nil
		}

		msg, err := e.hooks.NextMessage()
		if err != nil {
			return fmt.Errorf("message pump: %w", err)
		}

		switch msg.Kind {
		case platform.MessageQuit:
			return nil
		case platform.MessageCaptureRequested:
			if e.state.ShouldExit() {
				return nil
			}
			e.report(e.workflow.CaptureOnce())
		default:
			e.hooks.DispatchMessage(msg)
		}
	}
}

// teardown 先卸载鼠标钩子再卸载键盘钩子，两者都会尝试
func (e *Engine) teardown(pointer, keyboard platform.HookHandle) error {
	var errs []error
	if err := e.hooks.UninstallHook(pointer); err != nil {
		logger.Error("卸载鼠标钩子失败", zap.String("component", "capture_engine"), zap.Error(err))
		errs = append(errs, fmt.Errorf("uninstall pointer hook: %w", err))
	}
	if err := e.hooks.UninstallHook(keyboard); err != nil {
		logger.Error("卸载键盘钩子失败", zap.String("component", "capture_engine"), zap.Error(err))
		errs = append(errs, fmt.Errorf("uninstall keyboard hook: %w", err))
	}
	return errors.Join(errs...)
}

// onPointer 鼠标钩子回调，不记录日志、不阻塞
func (e *Engine) onPointer(ev platform.PointerEvent) platform.HookDecision {
	decision := HandlePointerEvent(ev, e.state, e.now())
	if decision.Post != platform.MessageOther {
		_ = e.hooks.PostMessage(e.state.OwnerThread(), decision.Post)
	}
	return decision
}

// onKey 键盘钩子回调，不记录日志、不阻塞
func (e *Engine) onKey(ev platform.KeyEvent) platform.HookDecision {
	decision := HandleKeyEvent(ev, e.state)
	if decision.Post != platform.MessageOther {
		_ = e.hooks.PostMessage(e.state.OwnerThread(), decision.Post)
	}
	return decision
}

// wake 向消息泵投递退出消息
func (e *Engine) wake() {
	thread := e.state.OwnerThread()
	if thread == 0 {
		return
	}
	_ = e.hooks.PostMessage(thread, platform.MessageQuit)
}

// drainQueue 丢弃消息泵退出后仍在队列中的消息
func (e *Engine) drainQueue(log *zap.Logger) {
	if n := e.hooks.DrainMessages(); n > 0 {
		log.Debug("丢弃线程队列中的残留消息", zap.Int("count", n))
	}
}

// report 记录并发布一次捕获结果
func (e *Engine) report(result Result) {
	log := logger.With(zap.String("component", "capture_engine"))

	if result.InjectErr != nil {
		log.Warn("复制按键未完全注入", zap.Int("accepted", result.Injected), zap.Error(result.InjectErr))
	}
	if result.RestoreErr != nil {
		log.Warn("恢复剪贴板失败", zap.Error(result.RestoreErr))
		e.publish(events.NewEvent(events.EventTypeError, map[string]interface{}{
			"source": string(events.SourceHook),
			"error":  result.RestoreErr.Error(),
		}))
	}

	if result.Kind == ResultNewText {
		log.Info("捕获到选中文本", zap.Int("length", len([]rune(result.Text))))
		data := events.SelectionEventData{Source: events.SourceHook, Text: result.Text, Label: "选中文本"}
		e.publish(events.NewEvent(events.EventTypeSelection, data.ToMap()))
		return
	}

	detail := ""
	if result.Err != nil {
		detail = result.Err.Error()
		log.Warn("读取剪贴板失败", zap.Error(result.Err))
	} else {
		log.Debug("未捕获到新文本", zap.String("kind", result.Kind.String()))
	}
	data := events.DiagnosticEventData{Kind: result.Kind.String(), Detail: detail, Injected: result.Injected}
	e.publish(events.NewEvent(events.EventTypeDiagnostic, data.ToMap()))
}

func (e *Engine) publish(event *events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(*event); err != nil {
		logger.Debug("发布事件失败", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func (e *Engine) setPhase(p Phase) {
	e.phase.Store(int32(p))
}
