package yakjson

import (
	"math"
	"strconv"
	"sync"
)

// ─── Value 序列化 ───

// MarshalTo 将 Value 树紧凑序列化并追加到 dst
//
// 零拷贝: 字符串与数字直接回填原始字面量区间（内容未被解码过，
// 本身就是合法的 JSON 转义文本）。对象按存储顺序输出——
// 即键排序后的确定性顺序，与解析时的插入顺序无关。
func (v *Value) MarshalTo(dst []byte) []byte {
	if v == nil {
		return append(dst, "null"...)
	}
	switch v.t {
	case TypeNull:
		return append(dst, "null"...)
	case TypeBool:
		if v.b {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case TypeNumber:
		return append(dst, v.span.Of(v.src)...)
	case TypeString:
		dst = append(dst, '"')
		dst = append(dst, v.span.Of(v.src)...)
		return append(dst, '"')
	case TypeArray:
		dst = append(dst, '[')
		for i, elem := range v.a {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = elem.MarshalTo(dst)
		}
		return append(dst, ']')
	case TypeObject:
		dst = append(dst, '{')
		for i := range v.o.kvs {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendQuotedString(dst, v.o.kvs[i].k)
			dst = append(dst, ':')
			dst = v.o.kvs[i].v.MarshalTo(dst)
		}
		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

// AppendPretty 带缩进的序列化，indent 为每层缩进单位（如两个空格）
func (v *Value) AppendPretty(dst []byte, indent string) []byte {
	return v.appendPretty(dst, indent, 0)
}

func (v *Value) appendPretty(dst []byte, indent string, level int) []byte {
	if v == nil {
		return append(dst, "null"...)
	}
	switch v.t {
	case TypeArray:
		if len(v.a) == 0 {
			return append(dst, "[]"...)
		}
		dst = append(dst, '[', '\n')
		for i, elem := range v.a {
			if i > 0 {
				dst = append(dst, ',', '\n')
			}
			dst = appendIndent(dst, indent, level+1)
			dst = elem.appendPretty(dst, indent, level+1)
		}
		dst = append(dst, '\n')
		dst = appendIndent(dst, indent, level)
		return append(dst, ']')
	case TypeObject:
		if len(v.o.kvs) == 0 {
			return append(dst, "{}"...)
		}
		dst = append(dst, '{', '\n')
		for i := range v.o.kvs {
			if i > 0 {
				dst = append(dst, ',', '\n')
			}
			dst = appendIndent(dst, indent, level+1)
			dst = appendQuotedString(dst, v.o.kvs[i].k)
			dst = append(dst, ':', ' ')
			dst = v.o.kvs[i].v.appendPretty(dst, indent, level+1)
		}
		dst = append(dst, '\n')
		dst = appendIndent(dst, indent, level)
		return append(dst, '}')
	default:
		return v.MarshalTo(dst)
	}
}

func appendIndent(dst []byte, indent string, level int) []byte {
	for k := 0; k < level; k++ {
		dst = append(dst, indent...)
	}
	return dst
}

// String 紧凑序列化为字符串（absent 返回空串）
func (v *Value) String() string {
	if v == nil || v.t == TypeAbsent {
		return ""
	}
	return string(v.MarshalTo(nil))
}

// ─── Writer 构建器（池化） ───

// Writer JSON 构建器（零分配追加到 buffer）
//
// 用于在解析结果外围拼装信封等小块 JSON:
// 直接向 []byte 追加，自动处理转义，可嵌入已解析的 Value。
//
// 用法:
//
//	w := yakjson.AcquireWriter()
//	defer yakjson.ReleaseWriter(w)
//	w.Object(func(w *yakjson.Writer) {
//	    w.Field("name", "yak")
//	    w.FieldValue("payload", v)
//	})
//	data := w.Bytes() // {"name":"yak","payload":...}
type Writer struct {
	buf []byte
}

var writerPool = sync.Pool{
	New: func() any { return &Writer{buf: make([]byte, 0, 256)} },
}

// AcquireWriter 从池中获取 Writer
func AcquireWriter() *Writer {
	w := writerPool.Get().(*Writer)
	w.buf = w.buf[:0]
	return w
}

// ReleaseWriter 归还 Writer 到池中
func ReleaseWriter(w *Writer) {
	// 保留小 buffer，释放大 buffer（防内存泄漏）
	if cap(w.buf) > 1<<16 {
		w.buf = make([]byte, 0, 256)
	}
	writerPool.Put(w)
}

// Bytes 返回已生成的 JSON 字节（生命周期绑定到 Writer）
func (w *Writer) Bytes() []byte { return w.buf }

// String 返回已生成的 JSON 字符串
func (w *Writer) String() string { return b2s(w.buf) }

// Len 返回已写入的字节数
func (w *Writer) Len() int { return len(w.buf) }

// Reset 重置 Writer 以复用
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// AppendTo 将当前内容追加到外部 buffer
func (w *Writer) AppendTo(dst []byte) []byte { return append(dst, w.buf...) }

// Object 构建 JSON 对象 {}
func (w *Writer) Object(fn func(w *Writer)) {
	w.buf = append(w.buf, '{')
	mark := len(w.buf)
	fn(w)
	// Field* 都以逗号收尾，最后一个换成 '}'
	if len(w.buf) > mark && w.buf[len(w.buf)-1] == ',' {
		w.buf[len(w.buf)-1] = '}'
	} else {
		w.buf = append(w.buf, '}')
	}
}

// Array 构建 JSON 数组 []
func (w *Writer) Array(fn func(w *Writer)) {
	w.buf = append(w.buf, '[')
	mark := len(w.buf)
	fn(w)
	if len(w.buf) > mark && w.buf[len(w.buf)-1] == ',' {
		w.buf[len(w.buf)-1] = ']'
	} else {
		w.buf = append(w.buf, ']')
	}
}

// Field 写入字符串字段: "key":"value",
func (w *Writer) Field(key, value string) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':')
	w.buf = appendQuotedString(w.buf, value)
	w.buf = append(w.buf, ',')
}

// FieldInt 写入整数字段: "key":123,
func (w *Writer) FieldInt(key string, value int) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':')
	w.buf = appendInt(w.buf, int64(value))
	w.buf = append(w.buf, ',')
}

// FieldInt64 写入 int64 字段
func (w *Writer) FieldInt64(key string, value int64) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':')
	w.buf = appendInt(w.buf, value)
	w.buf = append(w.buf, ',')
}

// FieldFloat 写入浮点数字段
func (w *Writer) FieldFloat(key string, value float64) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':')
	w.buf = appendFloat(w.buf, value)
	w.buf = append(w.buf, ',')
}

// FieldBool 写入布尔字段
func (w *Writer) FieldBool(key string, value bool) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':')
	if value {
		w.buf = append(w.buf, "true"...)
	} else {
		w.buf = append(w.buf, "false"...)
	}
	w.buf = append(w.buf, ',')
}

// FieldNull 写入 null 字段
func (w *Writer) FieldNull(key string) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':', 'n', 'u', 'l', 'l', ',')
}

// FieldValue 嵌入已解析的 Value 树: "key":<紧凑序列化>,
func (w *Writer) FieldValue(key string, v *Value) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':')
	w.buf = v.MarshalTo(w.buf)
	w.buf = append(w.buf, ',')
}

// FieldRaw 写入预编码的 JSON 原始值
func (w *Writer) FieldRaw(key string, rawJSON []byte) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':')
	w.buf = append(w.buf, rawJSON...)
	w.buf = append(w.buf, ',')
}

// FieldObject 写入嵌套对象字段
func (w *Writer) FieldObject(key string, fn func(w *Writer)) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':')
	w.Object(fn)
	w.buf = append(w.buf, ',')
}

// FieldArray 写入数组字段
func (w *Writer) FieldArray(key string, fn func(w *Writer)) {
	w.buf = appendQuotedString(w.buf, key)
	w.buf = append(w.buf, ':')
	w.Array(fn)
	w.buf = append(w.buf, ',')
}

// Item 写入数组字符串元素
func (w *Writer) Item(value string) {
	w.buf = appendQuotedString(w.buf, value)
	w.buf = append(w.buf, ',')
}

// ItemInt 写入数组整数元素
func (w *Writer) ItemInt(value int) {
	w.buf = appendInt(w.buf, int64(value))
	w.buf = append(w.buf, ',')
}

// ItemFloat 写入数组浮点数元素
func (w *Writer) ItemFloat(value float64) {
	w.buf = appendFloat(w.buf, value)
	w.buf = append(w.buf, ',')
}

// ItemBool 写入数组布尔元素
func (w *Writer) ItemBool(value bool) {
	if value {
		w.buf = append(w.buf, "true"...)
	} else {
		w.buf = append(w.buf, "false"...)
	}
	w.buf = append(w.buf, ',')
}

// ItemNull 写入数组 null 元素
func (w *Writer) ItemNull() {
	w.buf = append(w.buf, 'n', 'u', 'l', 'l', ',')
}

// ItemValue 嵌入已解析的 Value 树作为数组元素
func (w *Writer) ItemValue(v *Value) {
	w.buf = v.MarshalTo(w.buf)
	w.buf = append(w.buf, ',')
}

// ItemObject 写入数组中的对象元素
func (w *Writer) ItemObject(fn func(w *Writer)) {
	w.Object(fn)
	w.buf = append(w.buf, ',')
}

// ItemArray 写入数组中的子数组元素
func (w *Writer) ItemArray(fn func(w *Writer)) {
	w.Array(fn)
	w.buf = append(w.buf, ',')
}

// ─── 共享追加助手（Writer / MarshalTo / compat 共用） ───

// appendQuotedString 追加带引号和转义的 JSON 字符串
//
// 优化: 先扫描是否需要转义（大部分字符串不需要）
func appendQuotedString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == '"' || c == '\\' {
			return appendQuotedStringSlow(dst, s)
		}
	}
	dst = append(dst, s...)
	return append(dst, '"')
}

func appendQuotedStringSlow(dst []byte, s string) []byte {
	// dst 已经包含了开头的 "
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigit[c>>4], hexDigit[c&0xF])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}

var hexDigit = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}

// appendInt 快速 int64 追加（小整数查表路径）
func appendInt(dst []byte, v int64) []byte {
	if v >= 0 && v < 100 {
		return appendSmallInt(dst, int(v))
	}
	return strconv.AppendInt(dst, v, 10)
}

// appendUint 快速 uint64 追加
func appendUint(dst []byte, v uint64) []byte {
	if v < 100 {
		return appendSmallInt(dst, int(v))
	}
	return strconv.AppendUint(dst, v, 10)
}

func appendSmallInt(dst []byte, v int) []byte {
	if v < 10 {
		return append(dst, byte('0'+v))
	}
	return append(dst, byte('0'+v/10), byte('0'+v%10))
}

// appendFloat 追加浮点数（JSON 不支持 NaN/Inf，输出 null）
func appendFloat(dst []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(dst, "null"...)
	}
	// 整数值快速路径
	if f == math.Trunc(f) && f >= -1e15 && f <= 1e15 {
		return appendInt(dst, int64(f))
	}
	return strconv.AppendFloat(dst, f, 'f', -1, 64)
}
