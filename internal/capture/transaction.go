package capture

import (
	"fmt"

	"github.com/chenyang-zz/selgrab/internal/platform"
)

// ClipboardTransaction 剪贴板备份-使用-恢复事务
type ClipboardTransaction struct {
	clipboard platform.Clipboard
}

// NewClipboardTransaction 创建剪贴板事务
func NewClipboardTransaction(clipboard platform.Clipboard) *ClipboardTransaction {
	return &ClipboardTransaction{clipboard: clipboard}
}

// WithBackupAndRestore 备份剪贴板，执行 body，然后恢复备份
//
// 读取备份失败视为剪贴板中没有文本；没有文本的备份恢复为空字符串。
// body panic 时同样先恢复，再继续向上 panic。
//
// Parameters:
//   - body: 使用剪贴板的操作，参数为备份内容
//
// Returns: Result - body 的结果；剪贴板不可用或恢复失败时附带错误
func (t *ClipboardTransaction) WithBackupAndRestore(body func(Snapshot) Result) (result Result) {
	if err := t.clipboard.Open(); err != nil {
		return Result{
			Kind: ResultClipboardError,
			Err:  fmt.Errorf("%w: open clipboard: %v", ErrTransientCapture, err),
		}
	}

	snapshot := Snapshot{}
	if text, err := t.clipboard.ReadText(); err == nil {
		snapshot = Snapshot{Text: text, Present: true}
	}

	defer func() {
		restoreErr := t.restore(snapshot)
		if r := recover(); r != nil {
			panic(r)
		}
		result.RestoreErr = restoreErr
	}()

	return body(snapshot)
}

func (t *ClipboardTransaction) restore(snapshot Snapshot) error {
	// 备份为空时写入空串，清空本次复制的内容
	if err := t.clipboard.WriteText(snapshot.Text); err != nil {
		return fmt.Errorf("%w: restore clipboard: %v", ErrTransientCapture, err)
	}
	return nil
}
