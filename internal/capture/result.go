package capture

import "strings"

// ResultKind 单次捕获的结果类型
type ResultKind int

const (
	// ResultEmpty 注入后剪贴板为空或只有空白
	ResultEmpty ResultKind = iota
	// ResultUnchanged 剪贴板内容与备份相同，目标应用没有复制任何内容
	ResultUnchanged
	// ResultNewText 捕获到新的选中文本
	ResultNewText
	// ResultClipboardError 剪贴板访问失败
	ResultClipboardError
)

// String 返回结果类型名称
func (k ResultKind) String() string {
	switch k {
	case ResultEmpty:
		return "empty"
	case ResultUnchanged:
		return "unchanged_from_backup"
	case ResultNewText:
		return "new_text"
	case ResultClipboardError:
		return "clipboard_error"
	default:
		return "unknown"
	}
}

// Result 单次捕获结果
type Result struct {
	Kind ResultKind
	// Text 仅 ResultNewText 时有效
	Text string
	// Err ResultClipboardError 时的原因
	Err error
	// InjectErr 合成按键未被全部接受时的错误，不影响 Kind
	InjectErr error
	// Injected 被系统接受的按键数
	Injected int
	// RestoreErr 恢复剪贴板失败时的错误
	RestoreErr error
}

// Snapshot 捕获前的剪贴板备份
type Snapshot struct {
	Text string
	// Present 为 false 表示备份时剪贴板中没有文本
	Present bool
}

// Classify 按决策表对注入后读取的剪贴板内容分类
//
//	读取失败                          → ResultClipboardError
//	内容为空或只有空白                 → ResultEmpty
//	备份存在且与备份相同               → ResultUnchanged
//	其他                              → ResultNewText
//
// Parameters:
//   - snapshot: 注入前的备份
//   - text: 注入后读取的内容
//   - readErr: 读取错误
//
// Returns: Result - 分类结果（未设置 Injected / RestoreErr）
func Classify(snapshot Snapshot, text string, readErr error) Result {
	switch {
	case readErr != nil:
		return Result{Kind: ResultClipboardError, Err: readErr}
	case strings.TrimSpace(text) == "":
		return Result{Kind: ResultEmpty}
	case snapshot.Present && text == snapshot.Text:
		return Result{Kind: ResultUnchanged}
	default:
		return Result{Kind: ResultNewText, Text: text}
	}
}
