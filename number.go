package yakjson

// Number 数字字面量的双表示
//
//   - mant: 整数部分与小数部分数字串的精确拼接（带符号，不做小数缩放），
//     字面量 4.5 的 mant 为 45；整数字面量经 mant 精确还原
//   - f: 施加小数点与指数缩放后的 float64，非整数字面量的权威取值
//   - integer: 字面量既无 '.' 也无指数时为 true
type Number struct {
	mant    Int128
	f       float64
	integer bool
}

// Int128 精确 mantissa
func (n Number) Int128() Int128 { return n.mant }

// Float64 缩放后的浮点取值
func (n Number) Float64() float64 { return n.f }

// IsInteger 字面量是否为整数形态
func (n Number) IsInteger() bool { return n.integer }

// Int64 整数形态且 mantissa 落在 int64 范围内时返回精确值
func (n Number) Int64() (int64, bool) {
	if !n.integer {
		return 0, false
	}
	return n.mant.Int64()
}

// decodeNumber 解码数字字面量（i 指向 '-' 或首位数字）
//
// RFC 8259 严格语法: 可选 '-'，`0` 或 [1-9][0-9]*，可选 '.'+digits，
// 可选 e/E+可选符号+digits。直接按字节累加 mantissa（128 位精确），
// 浮点取值由 mantissa 乘一次小数幂、再乘一次指数幂得到，
// 不经过任何通用 string→float 转换。
//
// mantissa 溢出返回 ErrNumberOverflow；小数位数或指数超过幂表
// 上界 64 返回 ErrNumberRange；小数/指数缺数字按畸形输入处理，
// 偏移指向出错字节。
func decodeNumber(s string, i int) (Number, int, error) {
	n := len(s)
	neg := false
	if s[i] == '-' {
		neg = true
		i++
	}
	if i >= n || s[i] < '0' || s[i] > '9' {
		return Number{}, i, errAt(i)
	}

	var mant Int128
	var of bool
	if s[i] == '0' {
		i++ // 前导零后不得跟数字，多余数字留给上层当作畸形结构报错
	} else {
		for i < n && s[i] >= '0' && s[i] <= '9' {
			mant, of = mant.mulAdd10(s[i] - '0')
			if of {
				return Number{}, i, errCause(i, ErrNumberOverflow)
			}
			i++
		}
	}

	isInt := true
	fracDigits := 0
	if i < n && s[i] == '.' {
		isInt = false
		i++
		if i >= n || s[i] < '0' || s[i] > '9' {
			return Number{}, i, errAt(i)
		}
		for i < n && s[i] >= '0' && s[i] <= '9' {
			mant, of = mant.mulAdd10(s[i] - '0')
			if of {
				return Number{}, i, errCause(i, ErrNumberOverflow)
			}
			fracDigits++
			if fracDigits > maxScale {
				return Number{}, i, errCause(i, ErrNumberRange)
			}
			i++
		}
	}

	// mant 此刻是整数位+小数位的拼接，一次负幂乘法还原小数点
	f := mant.Float64() * pow10Neg[fracDigits]

	if i < n && (s[i] == 'e' || s[i] == 'E') {
		isInt = false
		i++
		expNeg := false
		if i < n && (s[i] == '+' || s[i] == '-') {
			expNeg = s[i] == '-'
			i++
		}
		if i >= n || s[i] < '0' || s[i] > '9' {
			return Number{}, i, errAt(i)
		}
		exp := 0
		for i < n && s[i] >= '0' && s[i] <= '9' {
			exp = exp*10 + int(s[i]-'0')
			if exp > maxScale {
				return Number{}, i, errCause(i, ErrNumberRange)
			}
			i++
		}
		if expNeg {
			f *= pow10Neg[exp]
		} else {
			f *= pow10Pos[exp]
		}
	}

	if neg {
		mant = mant.Neg()
		f = -f
	}
	return Number{mant: mant, f: f, integer: isInt}, i, nil
}
