package yakjson

import (
	"errors"
	"math"
	"testing"
)

// numOf 从数组包装中取出唯一数字，解析失败返回错误
func numOf(t *testing.T, lit string) (Number, error) {
	t.Helper()
	v, err := Parse(`[` + lit + `]`)
	if err != nil {
		return Number{}, err
	}
	n, ok := v.Index(0).AsNumber()
	if !ok {
		t.Fatalf("%q did not parse as number", lit)
	}
	return n, nil
}

// TestNumberIntegers 测试整数字面量: 精确 mantissa，integer 分类
func TestNumberIntegers(t *testing.T) {
	tests := []struct {
		lit  string
		want int64
	}{
		{`0`, 0},
		{`-0`, 0},
		{`1`, 1},
		{`42`, 42},
		{`-17`, -17},
		{`1000000`, 1000000},
		{`9223372036854775807`, math.MaxInt64},
		{`-9223372036854775808`, math.MinInt64},
	}
	for _, tt := range tests {
		n, err := numOf(t, tt.lit)
		if err != nil {
			t.Errorf("%q: %v", tt.lit, err)
			continue
		}
		if !n.IsInteger() {
			t.Errorf("%q should classify as integer", tt.lit)
		}
		got, ok := n.Int64()
		if !ok || got != tt.want {
			t.Errorf("%q: Int64 = %d, %v; want %d", tt.lit, got, ok, tt.want)
		}
	}
}

// TestNumberFloats 测试浮点字面量: 查表缩放的取值与分类
func TestNumberFloats(t *testing.T) {
	tests := []struct {
		lit  string
		want float64
	}{
		{`4.5`, 4.5},
		{`-4.5`, -4.5},
		{`0.001`, 0.001},
		{`3.14159`, 3.14159},
		{`1e3`, 1000},
		{`1E3`, 1000},
		{`1e+3`, 1000},
		{`2.5e2`, 250},
		{`-4.5e-3`, -0.0045},
		{`1e0`, 1},
		{`123e-2`, 1.23},
		{`0e0`, 0},
	}
	for _, tt := range tests {
		n, err := numOf(t, tt.lit)
		if err != nil {
			t.Errorf("%q: %v", tt.lit, err)
			continue
		}
		if n.IsInteger() {
			t.Errorf("%q should classify as float", tt.lit)
		}
		got := n.Float64()
		if diff := math.Abs(got - tt.want); diff > math.Abs(tt.want)*1e-12+1e-300 {
			t.Errorf("%q: Float64 = %g, want %g", tt.lit, got, tt.want)
		}
		if _, ok := n.Int64(); ok {
			t.Errorf("%q: Int64 should refuse float-classified literal", tt.lit)
		}
	}
}

// TestNumberMantissaConcat 测试 mantissa 是整数位与小数位的精确拼接
func TestNumberMantissaConcat(t *testing.T) {
	tests := []struct {
		lit  string
		mant string
	}{
		{`4.5`, "45"},
		{`-4.5`, "-45"},
		{`12.34`, "1234"},
		{`0.001`, "1"},
		{`10.01`, "1001"},
		{`7e2`, "7"}, // 指数不进 mantissa
	}
	for _, tt := range tests {
		n, err := numOf(t, tt.lit)
		if err != nil {
			t.Errorf("%q: %v", tt.lit, err)
			continue
		}
		if got := n.Int128().String(); got != tt.mant {
			t.Errorf("%q: mantissa = %s, want %s", tt.lit, got, tt.mant)
		}
	}
}

// TestNumberHugeExact 测试超出 int64 的整数仍经 mantissa 精确还原
func TestNumberHugeExact(t *testing.T) {
	lit := `170141183460469231731687303715884105727` // 2^127-1
	n, err := numOf(t, lit)
	if err != nil {
		t.Fatal(err)
	}
	if !n.IsInteger() {
		t.Fatal("should classify as integer")
	}
	if _, ok := n.Int64(); ok {
		t.Error("Int64 should report out of range")
	}
	if got := n.Int128().String(); got != lit {
		t.Errorf("mantissa = %s, want %s", got, lit)
	}

	neg := `-170141183460469231731687303715884105727`
	n2, err := numOf(t, neg)
	if err != nil {
		t.Fatal(err)
	}
	if got := n2.Int128().String(); got != neg {
		t.Errorf("mantissa = %s, want %s", got, neg)
	}
}

// TestNumberOverflow 测试 mantissa 溢出是显式错误而非静默截断
func TestNumberOverflow(t *testing.T) {
	overflows := []string{
		`170141183460469231731687303715884105728`, // 2^127
		`999999999999999999999999999999999999999`, // 39 个 9
		`1.70141183460469231731687303715884105728`,
	}
	for _, lit := range overflows {
		_, err := numOf(t, lit)
		if !errors.Is(err, ErrNumberOverflow) {
			t.Errorf("%q: err = %v, want ErrNumberOverflow", lit, err)
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("%q: overflow not wrapped in *ParseError", lit)
		}
	}
}

// TestNumberScaleRange 测试幂表边界: 小数位数/指数超过 64 显式报错
func TestNumberScaleRange(t *testing.T) {
	outOfRange := []string{
		`1e65`,
		`1e-65`,
		`1e100`,
		`0.00000000000000000000000000000000000000000000000000000000000000001`, // 65 位小数
	}
	for _, lit := range outOfRange {
		_, err := numOf(t, lit)
		if !errors.Is(err, ErrNumberRange) {
			t.Errorf("%q: err = %v, want ErrNumberRange", lit, err)
		}
	}

	// 边界以内正常
	inRange := []string{`1e64`, `1e-64`, `1.5e63`}
	for _, lit := range inRange {
		if _, err := numOf(t, lit); err != nil {
			t.Errorf("%q should parse: %v", lit, err)
		}
	}
}

// TestNumberMalformed 测试数字语法: RFC 严格，缺位报错
func TestNumberMalformed(t *testing.T) {
	invalid := []string{
		`[1.]`,   // 小数点后缺数字
		`[.5]`,   // 整数位缺失
		`[1e]`,   // 指数缺数字
		`[1e+]`,  // 指数符号后缺数字
		`[-]`,    // 孤立负号
		`[+1]`,   // 不允许正号前缀
		`[01]`,   // 前导零
		`[1.2.3]`,
		`[--1]`,
	}
	for _, s := range invalid {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

// TestNumberTableScaling 测试幂表缩放与直接构造的浮点一致
func TestNumberTableScaling(t *testing.T) {
	// 45 * 10^-1 必须等于 4.5（单次表乘，无累积误差）
	n, err := numOf(t, `4.5`)
	if err != nil {
		t.Fatal(err)
	}
	if n.Float64() != 4.5 {
		t.Errorf("4.5 parsed as %v", n.Float64())
	}
	// 整数形态经 float 路径同样精确
	n2, err := numOf(t, `123456789`)
	if err != nil {
		t.Fatal(err)
	}
	if n2.Float64() != 123456789.0 {
		t.Errorf("123456789 float = %v", n2.Float64())
	}
}
