package monitor

import "time"

// PollInterval 轮询类监控器的默认检查间隔
const PollInterval = 500 * time.Millisecond

// Monitor 监控器统一接口
//
// 所有轮询类监控器（剪贴板、UI Automation）都实现此接口，
// Start/Stop 均为幂等操作。
type Monitor interface {
	// Start 启动监控
	// Returns: error - 启动失败时返回错误（如平台不支持、剪贴板不可用）
	Start() error

	// Stop 停止监控并等待后台协程退出
	// Returns: error - 停止失败时返回错误
	Stop() error

	// IsRunning 检查运行状态
	IsRunning() bool
}

// previewText 截取日志预览，避免日志过长
func previewText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
