package capture

import "errors"

var (
	// ErrInitialization 钩子安装、线程 ID 获取或剪贴板检查失败，引擎未进入消息泵
	ErrInitialization = errors.New("capture engine initialization failed")

	// ErrTransientCapture 单次捕获中的剪贴板访问失败，引擎继续运行
	ErrTransientCapture = errors.New("transient capture failure")

	// ErrInjectionPartial 合成按键未被系统全部接受
	ErrInjectionPartial = errors.New("synthetic input partially accepted")

	// ErrEngineRunning 引擎已在运行
	ErrEngineRunning = errors.New("capture engine already running")
)
