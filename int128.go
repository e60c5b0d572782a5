package yakjson

import (
	"math"
	"math/bits"
	"strconv"
)

// Int128 128 位有符号整数（二进制补码，hi 为高 64 位）
//
// 只覆盖数字解码需要的最小操作集: 十进制累加（mulAdd10）、取负、
// 与 int64/float64 的转换、十进制渲染。不是通用大整数类型。
type Int128 struct {
	hi int64
	lo uint64
}

// mulAdd10 返回 x*10 + d
//
// 仅在数字累加阶段调用，此时 x 恒非负（符号在解码结束统一施加）。
// 第二个返回值为 true 表示结果超出 128 位有符号范围。
func (x Int128) mulAdd10(d byte) (Int128, bool) {
	h1, l1 := bits.Mul64(x.lo, 10)
	h2, l2 := bits.Mul64(uint64(x.hi), 10)
	if h2 != 0 {
		return x, true
	}
	hi, carry1 := bits.Add64(l2, h1, 0)
	lo, carry2 := bits.Add64(l1, uint64(d), 0)
	hi, carry3 := bits.Add64(hi, 0, carry2)
	if carry1 != 0 || carry3 != 0 || hi > math.MaxInt64 {
		return x, true
	}
	return Int128{hi: int64(hi), lo: lo}, false
}

// Neg 取负（补码取反加一）
func (x Int128) Neg() Int128 {
	lo, carry := bits.Add64(^x.lo, 1, 0)
	hi := ^uint64(x.hi) + carry
	return Int128{hi: int64(hi), lo: lo}
}

// IsZero 是否为零
func (x Int128) IsZero() bool { return x.hi == 0 && x.lo == 0 }

// Sign 返回 -1、0 或 1
func (x Int128) Sign() int {
	if x.hi < 0 {
		return -1
	}
	if x.hi == 0 && x.lo == 0 {
		return 0
	}
	return 1
}

// Int64 转换为 int64，超出范围时 ok 为 false
func (x Int128) Int64() (int64, bool) {
	if x.hi == 0 && x.lo <= math.MaxInt64 {
		return int64(x.lo), true
	}
	if x.hi == -1 && x.lo >= 1<<63 {
		return int64(x.lo), true
	}
	return 0, false
}

// Float64 转换为 float64（可能丢失低位精度）
//
// 负值先取绝对值再转换: 直接按补码两半相加会在 lo 接近 2^64 时
// 因舍入相消得到错误结果。
func (x Int128) Float64() float64 {
	if x.hi < 0 {
		m := x.Neg()
		return -(float64(uint64(m.hi))*0x1p64 + float64(m.lo))
	}
	return float64(uint64(x.hi))*0x1p64 + float64(x.lo)
}

// String 十进制渲染
func (x Int128) String() string {
	neg := x.hi < 0
	m := x
	if neg {
		m = m.Neg()
	}
	hi, lo := uint64(m.hi), m.lo
	if hi == 0 {
		if neg {
			return "-" + strconv.FormatUint(lo, 10)
		}
		return strconv.FormatUint(lo, 10)
	}
	// 以 10^19 为基做一轮长除: 商必落在 uint64 内（|x| < 2^127）
	const base = 10_000_000_000_000_000_000
	q, r := bits.Div64(hi, lo, base)
	rs := strconv.FormatUint(r, 10)
	pad := "0000000000000000000"[:19-len(rs)]
	if neg {
		return "-" + strconv.FormatUint(q, 10) + pad + rs
	}
	return strconv.FormatUint(q, 10) + pad + rs
}
