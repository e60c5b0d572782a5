package yakjson

import "strings"

// Unquote 字符串内容解码（转义序列还原为真实字符）
//
// 无转义时直接返回原始区间（零拷贝），含转义时才分配副本。
// surrogate pair 配对在此校验: 孤立/错配的 \uD800-\uDFFF 返回 false。
// 非字符串类型返回 false。
func (v *Value) Unquote() (string, bool) {
	if v == nil || v.t != TypeString {
		return "", false
	}
	raw := v.span.Of(v.src)
	if strings.IndexByte(raw, '\\') < 0 {
		return raw, true
	}
	return unescape(raw)
}

// unescape 解码含转义的字符串内容（s 不含引号）
//
// 转义种类已由 scanStr 在解析期校验，此处只处理 surrogate 配对失败。
// 优化: 栈上 [64]byte 缓冲避免小字符串堆分配
// （受 buger/jsonparser unescapeStackBufSize 启发）。
func unescape(s string) (string, bool) {
	n := len(s)
	var stk [64]byte
	var buf []byte
	if n <= 64 {
		buf = stk[:0]
	} else {
		buf = make([]byte, 0, n)
	}
	for i := 0; i < n; {
		c := s[i]
		if c != '\\' {
			buf = append(buf, c)
			i++
			continue
		}
		i++
		if i >= n {
			return "", false
		}
		switch s[i] {
		case '"', '\\', '/':
			buf = append(buf, s[i])
		case 'b':
			buf = append(buf, '\b')
		case 'f':
			buf = append(buf, '\f')
		case 'n':
			buf = append(buf, '\n')
		case 'r':
			buf = append(buf, '\r')
		case 't':
			buf = append(buf, '\t')
		case 'u':
			if i+4 >= n {
				return "", false
			}
			r, sz, ok := hexRune(s[i+1:])
			if !ok {
				return "", false
			}
			var ubuf [4]byte
			un := encRune(ubuf[:], r)
			buf = append(buf, ubuf[:un]...)
			i += sz
		default:
			return "", false
		}
		i++
	}
	return string(buf), true
}

// hexRune 解析 \uXXXX 尾部（含 surrogate pair），s 从首位 hex 数字开始
func hexRune(s string) (rune, int, bool) {
	if len(s) < 4 {
		return 0, 0, false
	}
	r1 := hexDig(s[:4])
	if r1 < 0 {
		return 0, 0, false
	}
	if r1 < 0xD800 || r1 > 0xDFFF {
		return r1, 4, true
	}
	if r1 > 0xDBFF {
		return 0, 0, false // 孤立低位 surrogate
	}
	if len(s) < 10 || s[4] != '\\' || s[5] != 'u' {
		return 0, 0, false
	}
	r2 := hexDig(s[6:10])
	if r2 < 0xDC00 || r2 > 0xDFFF {
		return 0, 0, false
	}
	return 0x10000 + (r1-0xD800)*0x400 + (r2 - 0xDC00), 10, true
}

// hexDig 解析 4 位十六进制数，非法返回 -1
func hexDig(s string) rune {
	var r rune
	for i := 0; i < 4; i++ {
		c := s[i]
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			r |= rune(c - 'A' + 10)
		default:
			return -1
		}
	}
	return r
}

// encRune UTF-8 编码（避免 import unicode/utf8）
func encRune(buf []byte, r rune) int {
	if r < 0x80 {
		buf[0] = byte(r)
		return 1
	}
	if r < 0x800 {
		buf[0] = byte(0xC0 | (r >> 6))
		buf[1] = byte(0x80 | (r & 0x3F))
		return 2
	}
	if r < 0x10000 {
		buf[0] = byte(0xE0 | (r >> 12))
		buf[1] = byte(0x80 | ((r >> 6) & 0x3F))
		buf[2] = byte(0x80 | (r & 0x3F))
		return 3
	}
	buf[0] = byte(0xF0 | (r >> 18))
	buf[1] = byte(0x80 | ((r >> 12) & 0x3F))
	buf[2] = byte(0x80 | ((r >> 6) & 0x3F))
	buf[3] = byte(0x80 | (r & 0x3F))
	return 4
}
