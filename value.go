package yakjson

import (
	"slices"
	"strings"
)

// Type JSON 值类型
type Type uint8

const (
	TypeAbsent Type = iota // 查找失败的哨兵，不是 JSON 值
	TypeNull               // null
	TypeBool               // true / false
	TypeNumber             // 整数或浮点数
	TypeString             // 字符串
	TypeArray              // 数组
	TypeObject             // 对象
)

// String 返回类型名称
func (t Type) String() string {
	switch t {
	case TypeAbsent:
		return "absent"
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value 解析结果树的节点（构造后不可变）
//
// 每个非 absent 节点携带源文本引用和自己的字面量 Span:
// 字符串的 Span 不含引号，对象/数组含括号。节点是源文本上的
// 只读视图——源字符串存活期间树有效，无任何字节拷贝。
//
// 结构布局承接 fastjson 的 o/a/s/t 字段模式，差异:
// span+src 取代内容切片，数字落地为解码完成的 Number（非延迟），
// 对象键值对按键字节序排序存储。
type Value struct {
	o    kvPairs // TypeObject: 键排序的键值对
	a    []*Value
	num  Number
	src  string
	span Span
	t    Type
	b    bool
}

// kvPairs 对象存储: 解析收尾时按键字节序排序，重复键保留最后一次出现
type kvPairs struct {
	kvs []kv
}

type kv struct {
	k string // key（指向原始 JSON 的切片，含转义时为解转义副本）
	v *Value
}

func (o *kvPairs) reset() { o.kvs = o.kvs[:0] }

func (o *kvPairs) getKV() *kv {
	if cap(o.kvs) > len(o.kvs) {
		o.kvs = o.kvs[:len(o.kvs)+1]
	} else {
		o.kvs = append(o.kvs, kv{})
	}
	return &o.kvs[len(o.kvs)-1]
}

// sortDedup 键排序 + 重复键折叠（后出现者胜，稳定排序保证同键保序）
func (o *kvPairs) sortDedup() {
	if len(o.kvs) < 2 {
		return
	}
	slices.SortStableFunc(o.kvs, func(a, b kv) int { return strings.Compare(a.k, b.k) })
	out := o.kvs[:0]
	for j := range o.kvs {
		if j+1 < len(o.kvs) && o.kvs[j+1].k == o.kvs[j].k {
			continue
		}
		out = append(out, o.kvs[j])
	}
	o.kvs = out
}

// absentValue 进程级 absent 哨兵
//
// 所有失败的键/下标查找按引用返回同一个实例，绝不逐次构造。
// 它携带空 Span、无负载，且所有访问器都把它当作"无值"。
var absentValue = &Value{}

// ─── 类型判断 ───

// Type 返回值类型（nil 接收者视同 absent）
func (v *Value) Type() Type {
	if v == nil {
		return TypeAbsent
	}
	return v.t
}

// Exists 是否为真实存在的 JSON 值（absent 与 nil 为 false）
func (v *Value) Exists() bool { return v != nil && v.t != TypeAbsent }

// IsNull 是否为 null 字面量
func (v *Value) IsNull() bool { return v != nil && v.t == TypeNull }

// IsObject 是否为对象
func (v *Value) IsObject() bool { return v != nil && v.t == TypeObject }

// IsArray 是否为数组
func (v *Value) IsArray() bool { return v != nil && v.t == TypeArray }

// ─── 导航（绝不失败，absent 沿链传播） ───

// Key 按键查找对象成员
//
// 非对象或键不存在返回 absent 哨兵。键排序存储上做二分查找。
func (v *Value) Key(key string) *Value {
	if v == nil || v.t != TypeObject {
		return absentValue
	}
	i, ok := slices.BinarySearchFunc(v.o.kvs, key, func(e kv, k string) int {
		return strings.Compare(e.k, k)
	})
	if !ok {
		return absentValue
	}
	return v.o.kvs[i].v
}

// Index 按下标查找数组元素，非数组或越界返回 absent 哨兵
func (v *Value) Index(i int) *Value {
	if v == nil || v.t != TypeArray || i < 0 || i >= len(v.a) {
		return absentValue
	}
	return v.a[i]
}

// Get 按路径逐级导航: 对象取键，数组取十进制下标
//
//	v.Get("user", "name")  // {"user":{"name":...}}
//	v.Get("items", "0")    // 数组第 0 个元素
//
// 任意一级缺失即返回 absent 哨兵，链式访问安全。
func (v *Value) Get(path ...string) *Value {
	if v == nil {
		return absentValue
	}
	for _, key := range path {
		switch v.t {
		case TypeObject:
			v = v.Key(key)
		case TypeArray:
			idx, ok := parseIdx(key)
			if !ok {
				return absentValue
			}
			v = v.Index(idx)
		default:
			return absentValue
		}
	}
	return v
}

// ─── 类型提取（comma-ok: 类型不匹配或 absent 返回零值+false） ───

// AsString 字符串原始内容（不含引号、未解转义的源区间）
//
// 需要解码转义序列时使用 Unquote。
func (v *Value) AsString() (string, bool) {
	if v == nil || v.t != TypeString {
		return "", false
	}
	return v.span.Of(v.src), true
}

// AsBool 布尔取值
func (v *Value) AsBool() (bool, bool) {
	if v == nil || v.t != TypeBool {
		return false, false
	}
	return v.b, true
}

// AsNumber 数字双表示
func (v *Value) AsNumber() (Number, bool) {
	if v == nil || v.t != TypeNumber {
		return Number{}, false
	}
	return v.num, true
}

// AsInt 整数形态数字的精确 int64 取值
//
// 浮点形态（含 '.' 或指数）或超出 int64 范围返回 false；
// 超大整数经 AsInt128 仍可精确取回。
func (v *Value) AsInt() (int64, bool) {
	if v == nil || v.t != TypeNumber {
		return 0, false
	}
	return v.num.Int64()
}

// AsInt128 数字的精确 mantissa（符号已施加，小数点未缩放）
func (v *Value) AsInt128() (Int128, bool) {
	if v == nil || v.t != TypeNumber {
		return Int128{}, false
	}
	return v.num.mant, true
}

// AsFloat 数字的 float64 取值
func (v *Value) AsFloat() (float64, bool) {
	if v == nil || v.t != TypeNumber {
		return 0, false
	}
	return v.num.f, true
}

// ─── 遍历与元信息 ───

// Len 数组元素数或对象键数
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.t {
	case TypeArray:
		return len(v.a)
	case TypeObject:
		return len(v.o.kvs)
	default:
		return 0
	}
}

// ArrayEach 按源文本顺序遍历数组元素，回调返回 false 停止
//
// 非数组为 no-op。遍历可重入: 再次调用从头开始。
func (v *Value) ArrayEach(fn func(i int, elem *Value) bool) {
	if v == nil || v.t != TypeArray {
		return
	}
	for i, elem := range v.a {
		if !fn(i, elem) {
			return
		}
	}
}

// ObjectEach 按键字节序遍历对象（与插入顺序无关），回调返回 false 停止
func (v *Value) ObjectEach(fn func(key string, val *Value) bool) {
	if v == nil || v.t != TypeObject {
		return
	}
	for i := range v.o.kvs {
		if !fn(v.o.kvs[i].k, v.o.kvs[i].v) {
			return
		}
	}
}

// Span 字面量在源文本中的区间（字符串不含引号，容器含括号）
func (v *Value) Span() Span {
	if v == nil {
		return Span{}
	}
	return v.span
}

// Raw 字面量的原始文本（零拷贝源区间）
func (v *Value) Raw() string {
	if v == nil || v.t == TypeAbsent {
		return ""
	}
	return v.span.Of(v.src)
}

// ─── 辅助函数 ───

// parseIdx 十进制下标解析（路径导航用）
func parseIdx(s string) (int, bool) {
	if len(s) == 0 || len(s) > 10 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n < 0 {
			return 0, false // 溢出保护（32 位平台）
		}
	}
	return n, true
}
