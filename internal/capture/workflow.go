package capture

import (
	"fmt"
	"time"

	"github.com/chenyang-zz/selgrab/internal/platform"
)

// SettleDelay 注入复制按键后等待目标应用写入剪贴板的时间
const SettleDelay = 150 * time.Millisecond

// Injector 复制按键注入
type Injector interface {
	InjectCopy() (int, error)
}

// Workflow 单次文本捕获流程
//
// 备份剪贴板 → 注入 LCtrl+C → 等待 → 读取 → 分类 → 恢复剪贴板。
// 只在消息泵线程上调用，同一时刻至多一个实例在执行。
type Workflow struct {
	tx        *ClipboardTransaction
	clipboard platform.Clipboard
	injector  Injector
	sleep     func(time.Duration)
}

// NewWorkflow 创建捕获流程
//
// Parameters:
//   - clipboard: 剪贴板
//   - injector: 复制按键注入器
//   - sleep: 休眠函数，nil 时使用 time.Sleep
func NewWorkflow(clipboard platform.Clipboard, injector Injector, sleep func(time.Duration)) *Workflow {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Workflow{
		tx:        NewClipboardTransaction(clipboard),
		clipboard: clipboard,
		injector:  injector,
		sleep:     sleep,
	}
}

// CaptureOnce 执行一次捕获
//
// 注入部分失败时仍然读取剪贴板。剪贴板最终总是恢复为调用前的内容。
//
// Returns: Result - 捕获结果
func (w *Workflow) CaptureOnce() Result {
	return w.tx.WithBackupAndRestore(func(snapshot Snapshot) Result {
		injected, injectErr := w.injector.InjectCopy()

		w.sleep(SettleDelay)

		text, readErr := w.clipboard.ReadText()
		if readErr != nil {
			readErr = fmt.Errorf("%w: %v", ErrTransientCapture, readErr)
		}

		result := Classify(snapshot, text, readErr)
		result.Injected = injected
		result.InjectErr = injectErr
		return result
	})
}
