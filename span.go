package yakjson

import "unsafe"

// Span 指向原始 JSON 文本的不可变字节区间 [Start, End)
//
// Span 本身不持有字节: 取文本时对源字符串做切片，零拷贝。
// 不变量: 0 <= Start <= End <= len(source)，由 Parser 保证，
// Of 不做二次校验。
type Span struct {
	Start int
	End   int
}

// Len 区间长度
func (sp Span) Len() int { return sp.End - sp.Start }

// Of 在 src 上提取区间文本（零拷贝子串）
func (sp Span) Of(src string) string { return src[sp.Start:sp.End] }

// s2b 零拷贝 string → []byte
func s2b(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// b2s 零拷贝 []byte → string
func b2s(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
