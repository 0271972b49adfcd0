package platform

import "strings"

// JoinRanges 按顺序拼接多个选区的文本
//
// read 返回第 i 个选区的文本，ok 为 false 的选区被跳过。选区之间不插入分隔符，
// 与用户在文档中看到的顺序一致。
func JoinRanges(count int, read func(i int) (text string, ok bool)) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		if text, ok := read(i); ok {
			sb.WriteString(text)
		}
	}
	return sb.String()
}
