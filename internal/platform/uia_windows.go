//go:build windows

package platform

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
)

var (
	procGetForegroundWindow  = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetCursorPos         = user32.NewProc("GetCursorPos")
)

var (
	clsidCUIAutomation    = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation      = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")
	iidIUIAutomationText  = ole.NewGUID("{32EBA289-3583-42C9-9C59-3B6D9A1E9B6A}")
	iidIUIAutomationValue = ole.NewGUID("{A94CD8B1-0844-4CD6-9D2D-640537AB39E9}")

	errNoElement = errors.New("uia: no element")
)

const (
	patternIDValue = 10002
	patternIDText  = 10014

	// vtable 序号（IUnknown 占 0-2）
	vtRelease = 2

	vtAutomationElementFromPoint = 7
	vtAutomationGetFocused       = 8

	vtElementGetCurrentPatternAs = 14
	vtElementControlType         = 21
	vtElementName                = 23

	vtTextPatternGetSelection = 5
	vtRangeArrayLength        = 3
	vtRangeArrayGetElement    = 4
	vtTextRangeGetText        = 12

	vtValuePatternCurrentValue = 4

	sFalse = 0x00000001
)

// comObject 原始 COM 接口指针
type comObject struct {
	ptr unsafe.Pointer
}

func (o comObject) method(index int) uintptr {
	vtbl := *(*unsafe.Pointer)(o.ptr)
	return *(*uintptr)(unsafe.Add(vtbl, index*int(unsafe.Sizeof(uintptr(0)))))
}

func (o comObject) call(index int, args ...uintptr) error {
	all := append([]uintptr{uintptr(o.ptr)}, args...)
	hr, _, _ := syscall.SyscallN(o.method(index), all...)
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}
	return nil
}

func (o comObject) release() {
	if o.ptr != nil {
		syscall.SyscallN(o.method(vtRelease), uintptr(o.ptr))
	}
}

// UIAutomation 基于 IUIAutomation 的 Accessibility 实现
type UIAutomation struct {
	automation comObject
}

// NewAccessibility 在调用线程上初始化 COM 并创建 CUIAutomation
//
// 调用方必须已锁定 OS 线程，并在同一线程上调用 Close。
func NewAccessibility() (Accessibility, error) {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return nil, fmt.Errorf("CoInitializeEx: %w", err)
		}
	}

	unknown, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		ole.CoUninitialize()
		return nil, fmt.Errorf("create CUIAutomation: %w", err)
	}

	return &UIAutomation{automation: comObject{ptr: unsafe.Pointer(unknown)}}, nil
}

// ForegroundWindow 返回前台窗口句柄和标题
func (u *UIAutomation) ForegroundWindow() (WindowHandle, string) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return 0, ""
	}
	length, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if length == 0 {
		return WindowHandle(hwnd), ""
	}
	buf := make([]uint16, length+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return WindowHandle(hwnd), syscall.UTF16ToString(buf)
}

// FocusedElement 返回焦点元素
func (u *UIAutomation) FocusedElement() (Element, error) {
	var out unsafe.Pointer
	if err := u.automation.call(vtAutomationGetFocused, uintptr(unsafe.Pointer(&out))); err != nil {
		return nil, fmt.Errorf("GetFocusedElement: %w", err)
	}
	if out == nil {
		return nil, errNoElement
	}
	return &uiaElement{obj: comObject{ptr: out}}, nil
}

// ElementAtCursor 返回鼠标指针下的元素
//
// POINT 按值传递，在 64 位调用约定下打包进一个寄存器。
func (u *UIAutomation) ElementAtCursor() (Element, error) {
	var pt point
	if ret, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt))); ret == 0 {
		return nil, fmt.Errorf("GetCursorPos: %w", err)
	}

	packed := uintptr(uint32(pt.X)) | uintptr(uint32(pt.Y))<<32
	var out unsafe.Pointer
	if err := u.automation.call(vtAutomationElementFromPoint, packed, uintptr(unsafe.Pointer(&out))); err != nil {
		return nil, fmt.Errorf("ElementFromPoint: %w", err)
	}
	if out == nil {
		return nil, errNoElement
	}
	return &uiaElement{obj: comObject{ptr: out}}, nil
}

// Close 释放 IUIAutomation 并反初始化 COM
func (u *UIAutomation) Close() {
	u.automation.release()
	u.automation = comObject{}
	ole.CoUninitialize()
}

// uiaElement IUIAutomationElement 包装
type uiaElement struct {
	obj comObject
}

func (e *uiaElement) ControlType() (ControlType, error) {
	var id int32
	if err := e.obj.call(vtElementControlType, uintptr(unsafe.Pointer(&id))); err != nil {
		return 0, err
	}
	return ControlType(id), nil
}

func (e *uiaElement) Name() (string, error) {
	var bstr *uint16
	if err := e.obj.call(vtElementName, uintptr(unsafe.Pointer(&bstr))); err != nil {
		return "", err
	}
	return takeBstr(bstr), nil
}

// SelectedText 读取 TextPattern 的所有选区并按顺序拼接
func (e *uiaElement) SelectedText() (string, bool, error) {
	pattern, err := e.pattern(patternIDText, iidIUIAutomationText)
	if err != nil || pattern.ptr == nil {
		return "", false, err
	}
	defer pattern.release()

	var ranges unsafe.Pointer
	if err := pattern.call(vtTextPatternGetSelection, uintptr(unsafe.Pointer(&ranges))); err != nil {
		return "", true, fmt.Errorf("GetSelection: %w", err)
	}
	if ranges == nil {
		return "", true, nil
	}
	array := comObject{ptr: ranges}
	defer array.release()

	var length int32
	if err := array.call(vtRangeArrayLength, uintptr(unsafe.Pointer(&length))); err != nil {
		return "", true, err
	}

	text := JoinRanges(int(length), func(i int) (string, bool) {
		var item unsafe.Pointer
		if err := array.call(vtRangeArrayGetElement, uintptr(i), uintptr(unsafe.Pointer(&item))); err != nil || item == nil {
			return "", false
		}
		textRange := comObject{ptr: item}
		defer textRange.release()
		var bstr *uint16
		// maxLength = -1 表示不截断
		if err := textRange.call(vtTextRangeGetText, ^uintptr(0), uintptr(unsafe.Pointer(&bstr))); err != nil {
			return "", false
		}
		return takeBstr(bstr), true
	})
	return text, true, nil
}

// Value 读取 ValuePattern 的当前值
func (e *uiaElement) Value() (string, bool, error) {
	pattern, err := e.pattern(patternIDValue, iidIUIAutomationValue)
	if err != nil || pattern.ptr == nil {
		return "", false, err
	}
	defer pattern.release()

	var bstr *uint16
	if err := pattern.call(vtValuePatternCurrentValue, uintptr(unsafe.Pointer(&bstr))); err != nil {
		return "", true, fmt.Errorf("get_CurrentValue: %w", err)
	}
	return takeBstr(bstr), true, nil
}

func (e *uiaElement) Release() {
	e.obj.release()
	e.obj = comObject{}
}

// pattern 获取控件模式接口，元素不支持时返回空对象
func (e *uiaElement) pattern(id int, iid *ole.GUID) (comObject, error) {
	var out unsafe.Pointer
	err := e.obj.call(vtElementGetCurrentPatternAs,
		uintptr(id),
		uintptr(unsafe.Pointer(iid)),
		uintptr(unsafe.Pointer(&out)),
	)
	if err != nil {
		return comObject{}, fmt.Errorf("GetCurrentPatternAs(%d): %w", id, err)
	}
	return comObject{ptr: out}, nil
}

// takeBstr 转换 BSTR 并释放
func takeBstr(bstr *uint16) string {
	if bstr == nil {
		return ""
	}
	s := ole.BstrToString(bstr)
	ole.SysFreeString((*int16)(unsafe.Pointer(bstr)))
	return s
}
