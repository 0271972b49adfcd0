package app

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chenyang-zz/selgrab/internal/capture"
	"github.com/chenyang-zz/selgrab/pkg/events"
)

// Reporter 控制台输出订阅者
//
// 订阅所有事件，把捕获结果按固定格式写到控制台。
type Reporter struct {
	out             io.Writer
	previewLength   int
	showDiagnostics bool

	mu           sync.Mutex
	subscription string
}

// NewReporter 创建控制台输出订阅者
//
// Parameters:
//   - out: 输出目标
//   - previewLength: 文本最大字符数，0 表示完整输出
//   - showDiagnostics: 是否输出未捕获到文本的原因
func NewReporter(out io.Writer, previewLength int, showDiagnostics bool) *Reporter {
	return &Reporter{
		out:             out,
		previewLength:   previewLength,
		showDiagnostics: showDiagnostics,
	}
}

// Attach 订阅事件总线
func (r *Reporter) Attach(bus *events.EventBus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscription != "" {
		return
	}
	r.subscription = bus.SubscribeWithFilter("*", r.handle, r.wants)
}

// wants 关闭诊断输出时在发布端丢弃诊断事件
func (r *Reporter) wants(event events.Event) bool {
	return r.showDiagnostics || event.Type != events.EventTypeDiagnostic
}

// Detach 取消订阅
func (r *Reporter) Detach(bus *events.EventBus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscription == "" {
		return
	}
	bus.Unsubscribe(r.subscription)
	r.subscription = ""
}

func (r *Reporter) handle(event events.Event) error {
	text, ok := r.Format(event)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.out, text)
	return err
}

// Format 把事件格式化为控制台文本
//
// Returns: string - 输出文本, bool - 该事件不需要输出时为 false
func (r *Reporter) Format(event events.Event) (string, bool) {
	switch event.Type {
	case events.EventTypeSelection:
		header := "--- [自动捕获内容] ---"
		switch events.Source(event.String("source")) {
		case events.SourceAccessibility:
			header = fmt.Sprintf("--- [UIA 捕获内容: %s] ---", event.String("label"))
		case events.SourcePointerProbe:
			header = fmt.Sprintf("--- [指针下元素: %s] ---", event.String("label"))
		}
		return r.frame(header, event.String("text")), true

	case events.EventTypeClipboard:
		return r.frame("--- [剪贴板更新] ---", event.String("text")), true

	case events.EventTypeFocus:
		return fmt.Sprintf("[窗口] 当前前台窗口: %s\n", event.String("title")), true

	case events.EventTypeDiagnostic:
		switch event.String("kind") {
		case capture.ResultUnchanged.String():
			return "[结果] 检测到的内容与用户剪贴板相同，可能没有新的选中文本。\n", true
		case capture.ResultEmpty.String():
			return "[结果] 剪贴板为空或只包含空白字符，可能没有选中文本。\n", true
		case capture.ResultClipboardError.String():
			return fmt.Sprintf("[错误] 读取剪贴板失败: %s\n", event.String("detail")), true
		}
		return "", false

	case events.EventTypeError:
		return fmt.Sprintf("[警告] %s\n", event.String("error")), true
	}
	return "", false
}

func (r *Reporter) frame(header, text string) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(truncate(text, r.previewLength))
	b.WriteString("\n--- [内容结束] ---\n\n")
	return b.String()
}

// truncate 截断到 max 个字符，max<=0 时不截断
func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
