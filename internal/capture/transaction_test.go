package capture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClipboardTransaction_Restore 测试剪贴板备份与恢复
//
// 测试场景：
//  1. body 修改剪贴板后恢复为原内容
//  2. 原剪贴板没有文本时恢复为空字符串
//  3. body panic 时仍然恢复，并继续向上 panic
//  4. 剪贴板不可用时不执行 body
//  5. 恢复失败时附带 RestoreErr
func TestClipboardTransaction_Restore(t *testing.T) {
	t.Run("恢复原内容", func(t *testing.T) {
		cb := newFakeClipboard("A")
		tx := NewClipboardTransaction(cb)

		result := tx.WithBackupAndRestore(func(s Snapshot) Result {
			assert.Equal(t, Snapshot{Text: "A", Present: true}, s)
			cb.set("Hello")
			return Result{Kind: ResultNewText, Text: "Hello"}
		})

		assert.Equal(t, ResultNewText, result.Kind)
		assert.NoError(t, result.RestoreErr)
		text, _ := cb.current()
		assert.Equal(t, "A", text)
	})

	t.Run("原剪贴板无文本", func(t *testing.T) {
		cb := &fakeClipboard{}
		tx := NewClipboardTransaction(cb)

		tx.WithBackupAndRestore(func(s Snapshot) Result {
			assert.False(t, s.Present)
			cb.set("copied")
			return Result{Kind: ResultNewText, Text: "copied"}
		})

		text, present := cb.current()
		assert.True(t, present)
		assert.Equal(t, "", text)
	})

	t.Run("body panic", func(t *testing.T) {
		cb := newFakeClipboard("keep")
		tx := NewClipboardTransaction(cb)

		assert.PanicsWithValue(t, "boom", func() {
			tx.WithBackupAndRestore(func(Snapshot) Result {
				cb.set("dirty")
				panic("boom")
			})
		})

		text, _ := cb.current()
		assert.Equal(t, "keep", text)
	})

	t.Run("剪贴板不可用", func(t *testing.T) {
		cb := newFakeClipboard("A")
		cb.openErr = errors.New("no clipboard")
		called := false

		result := NewClipboardTransaction(cb).WithBackupAndRestore(func(Snapshot) Result {
			called = true
			return Result{}
		})

		assert.False(t, called)
		assert.Equal(t, ResultClipboardError, result.Kind)
		assert.ErrorIs(t, result.Err, ErrTransientCapture)
		assert.Empty(t, cb.writes)
	})

	t.Run("恢复失败", func(t *testing.T) {
		cb := newFakeClipboard("A")
		cb.writeErr = errors.New("locked")

		result := NewClipboardTransaction(cb).WithBackupAndRestore(func(Snapshot) Result {
			return Result{Kind: ResultUnchanged}
		})

		assert.Equal(t, ResultUnchanged, result.Kind)
		require.Error(t, result.RestoreErr)
		assert.ErrorIs(t, result.RestoreErr, ErrTransientCapture)
	})
}

// TestClassify 测试捕获结果决策表
func TestClassify(t *testing.T) {
	readErr := errors.New("read failed")

	tests := []struct {
		name     string
		snapshot Snapshot
		text     string
		err      error
		want     ResultKind
	}{
		{"读取失败", Snapshot{Text: "A", Present: true}, "", readErr, ResultClipboardError},
		{"空内容", Snapshot{Text: "A", Present: true}, "", nil, ResultEmpty},
		{"只有空白", Snapshot{}, " \r\n\t", nil, ResultEmpty},
		{"与备份相同", Snapshot{Text: "A", Present: true}, "A", nil, ResultUnchanged},
		{"新文本", Snapshot{Text: "A", Present: true}, "Hello World", nil, ResultNewText},
		{"无备份时的文本", Snapshot{}, "A", nil, ResultNewText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.snapshot, tt.text, tt.err)
			assert.Equal(t, tt.want, result.Kind)
			if tt.want == ResultNewText {
				assert.Equal(t, tt.text, result.Text)
			} else {
				assert.Empty(t, result.Text)
			}
		})
	}
}

// TestResultKind_String 测试结果类型名称
func TestResultKind_String(t *testing.T) {
	assert.Equal(t, "empty", ResultEmpty.String())
	assert.Equal(t, "unchanged_from_backup", ResultUnchanged.String())
	assert.Equal(t, "new_text", ResultNewText.String())
	assert.Equal(t, "clipboard_error", ResultClipboardError.String())
	assert.Equal(t, "unknown", ResultKind(99).String())
}
