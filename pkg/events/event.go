/**
 * Package events 提供事件系统的核心类型定义
 *
 * 事件是捕获引擎、轮询器与输出端（控制台、历史记录）之间唯一的通信方式：
 * - 捕获组件发布选中文本和诊断事件
 * - 报告器和记录器订阅并处理事件
 */

package events

import (
	"time"

	"github.com/google/uuid"
)

/**
 * EventType 事件类型枚举
 */
type EventType string

/**
 * 所有事件类型常量
 */
const (
	// 捕获事件
	EventTypeSelection  EventType = "selection"          // 捕获到新的选中文本
	EventTypeDiagnostic EventType = "capture_diagnostic" // 捕获未产生新文本
	EventTypeClipboard  EventType = "clipboard"          // 剪贴板内容变化
	EventTypeFocus      EventType = "focus_change"       // 前台窗口切换

	// 系统事件
	EventTypeError  EventType = "error"  // 错误事件
	EventTypeStatus EventType = "status" // 状态事件
)

/**
 * Source 捕获来源
 */
type Source string

const (
	SourceHook          Source = "hook"           // 全局钩子 + 模拟复制
	SourceAccessibility Source = "accessibility"  // UI Automation 轮询
	SourcePointerProbe  Source = "pointer_probe"  // 指针下元素探测
	SourceClipboard     Source = "clipboard_poll" // 剪贴板轮询
)

/**
 * Event 统一事件结构
 */
type Event struct {
	// ID 事件唯一标识符
	ID string `json:"id"`

	// Type 事件类型
	Type EventType `json:"type"`

	// Timestamp 事件发生时间
	Timestamp time.Time `json:"timestamp"`

	// Data 事件数据（类型特定的数据）
	Data map[string]interface{} `json:"data"`

	// Context 事件上下文信息（捕获事件时的环境）
	Context *EventContext `json:"context,omitempty"`
}

/**
 * EventContext 事件上下文
 *
 * 描述事件发生时的窗口环境
 */
type EventContext struct {
	// WindowTitle 当前前台窗口标题
	WindowTitle string `json:"window_title,omitempty"`

	// ElementName 焦点元素名称（UI Automation）
	ElementName string `json:"element_name,omitempty"`

	// Selection 选中文本（如适用）
	Selection string `json:"selection,omitempty"`
}

/**
 * NewEvent 创建新事件
 *
 * Parameters:
 *   - eventType: 事件类型
 *   - data: 事件数据
 *
 * Returns:
 *   - *Event: 新创建的事件
 */
func NewEvent(eventType EventType, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

/**
 * WithContext 设置事件上下文
 *
 * Returns:
 *   - *Event: 返回自身，支持链式调用
 */
func (e *Event) WithContext(context *EventContext) *Event {
	e.Context = context
	return e
}

// String 读取字符串类型的数据字段，缺失或类型不符时返回空串
func (e Event) String(key string) string {
	if e.Data == nil {
		return ""
	}
	s, _ := e.Data[key].(string)
	return s
}

/**
 * SelectionEventData 选中文本事件数据
 */
type SelectionEventData struct {
	Source Source `json:"source"` // 捕获来源
	Text   string `json:"text"`   // 捕获的文本
	Label  string `json:"label"`  // 提取方式描述（如 "选中文本"、"输入框内容"）
}

// ToMap 转换为事件数据
func (d SelectionEventData) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"source": string(d.Source),
		"text":   d.Text,
		"label":  d.Label,
		"length": len([]rune(d.Text)),
	}
}

/**
 * DiagnosticEventData 捕获诊断事件数据
 */
type DiagnosticEventData struct {
	Kind     string `json:"kind"`     // 结果类型
	Detail   string `json:"detail"`   // 错误描述（可选）
	Injected int    `json:"injected"` // 被系统接受的按键数
}

// ToMap 转换为事件数据
func (d DiagnosticEventData) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"kind":     d.Kind,
		"detail":   d.Detail,
		"injected": d.Injected,
	}
}

/**
 * FocusEventData 窗口切换事件数据
 */
type FocusEventData struct {
	Title string `json:"title"` // 新窗口标题
}

// ToMap 转换为事件数据
func (d FocusEventData) ToMap() map[string]interface{} {
	return map[string]interface{}{"title": d.Title}
}

/**
 * ClipboardEventData 剪贴板事件数据
 */
type ClipboardEventData struct {
	Content string `json:"content"` // 剪贴板内容
	Length  int    `json:"length"`  // 内容长度（字符数）
}

// ToMap 转换为事件数据
func (d ClipboardEventData) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"source":  string(SourceClipboard),
		"text":    d.Content,
		"content": d.Content,
		"length":  d.Length,
	}
}
