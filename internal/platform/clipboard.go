package platform

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable 系统剪贴板不可用
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// SystemClipboard 基于 atotto/clipboard 的系统剪贴板
//
// Windows 上每次 ReadText/WriteText 都会独立执行
// OpenClipboard/CloseClipboard，剪贴板句柄不会跨调用持有。
type SystemClipboard struct{}

// NewSystemClipboard 创建系统剪贴板访问器
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// Open 检查剪贴板是否可用
//
// 非 Windows 平台缺少 xclip/xsel/pbcopy 等工具时返回错误。
func (c *SystemClipboard) Open() error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	return nil
}

// ReadText 读取剪贴板文本
func (c *SystemClipboard) ReadText() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// WriteText 写入剪贴板文本
func (c *SystemClipboard) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
