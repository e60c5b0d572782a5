package yakjson

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// ─── 兼容接口 ───

// Marshaler JSON 序列化接口（兼容 encoding/json.Marshaler）
type Marshaler interface {
	MarshalJSON() ([]byte, error)
}

// Unmarshaler JSON 反序列化接口（兼容 encoding/json.Unmarshaler）
type Unmarshaler interface {
	UnmarshalJSON([]byte) error
}

// RawMessage 原始 JSON 消息（兼容 encoding/json.RawMessage）
type RawMessage []byte

// MarshalJSON 返回 m 的 JSON 编码。
func (m RawMessage) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return m, nil
}

// UnmarshalJSON 设置 *m 为 data 的副本。
func (m *RawMessage) UnmarshalJSON(data []byte) error {
	if m == nil {
		return fmt.Errorf("yakjson.RawMessage: UnmarshalJSON on nil pointer")
	}
	*m = append((*m)[:0], data...)
	return nil
}

// InvalidUnmarshalError 描述传递给 Unmarshal 的无效参数。
type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	if e.Type == nil {
		return "yakjson: Unmarshal(nil)"
	}
	if e.Type.Kind() != reflect.Pointer {
		return "yakjson: Unmarshal(non-pointer " + e.Type.String() + ")"
	}
	return "yakjson: Unmarshal(nil " + e.Type.String() + ")"
}

// ─── Marshal ───

// marshalBuf 复用序列化 buffer
var marshalBuf = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512)
		return &b
	},
}

// Marshal 将 Go 值序列化为 JSON（兼容 encoding/json.Marshal）
//
// 支持:
//   - 基础类型: string, bool, int*, uint*, float*
//   - 复合类型: struct, map[string]T, slice, array, pointer
//   - 接口: Marshaler
//   - struct tag: `json:"name,omitempty"`、`json:"-"` 跳过
//
// 与标准库的差异:
//   - 不对 HTML 字符(<, >, &)转义（性能优先）
//   - NaN/Inf 输出为 null 而非报错
//   - map 键总是排序输出（与本库对象树的确定性顺序一致）
func Marshal(v any) ([]byte, error) {
	bp := marshalBuf.Get().(*[]byte)
	buf := (*bp)[:0]
	buf, err := appendMarshal(buf, reflect.ValueOf(v), 0)
	if err != nil {
		*bp = buf
		marshalBuf.Put(bp)
		return nil, err
	}
	// 复制结果（调用方拥有返回值，pool buffer 将被复用）
	result := make([]byte, len(buf))
	copy(result, buf)
	*bp = buf
	marshalBuf.Put(bp)
	return result, nil
}

// MarshalAppend 将 Go 值序列化并追加到 dst（零分配序列化入口）
func MarshalAppend(dst []byte, v any) ([]byte, error) {
	return appendMarshal(dst, reflect.ValueOf(v), 0)
}

// appendMarshal 核心序列化递归
//
// 安全: 递归深度限制 MaxMarshalDepth，防止自引用指针链导致栈溢出
func appendMarshal(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	if !rv.IsValid() {
		return append(dst, "null"...), nil
	}
	if depth > MaxMarshalDepth {
		return dst, fmt.Errorf("yakjson: max marshal depth %d exceeded", MaxMarshalDepth)
	}

	// 快速路径: 先用 interface 做具体类型匹配（避免 Kind() 的 reflect 开销）
	if rv.CanInterface() {
		switch val := rv.Interface().(type) {
		case string:
			return appendQuotedString(dst, val), nil
		case int:
			return appendInt(dst, int64(val)), nil
		case int64:
			return appendInt(dst, val), nil
		case bool:
			if val {
				return append(dst, "true"...), nil
			}
			return append(dst, "false"...), nil
		case *Value:
			return val.MarshalTo(dst), nil
		case Marshaler:
			b, err := val.MarshalJSON()
			if err != nil {
				return dst, err
			}
			return append(dst, b...), nil
		}
	}

	// 解引用指针
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		rv = rv.Elem()
	}

	// Marshaler 可能挂在指针接收者上
	if rv.CanAddr() {
		if m, ok := rv.Addr().Interface().(Marshaler); ok {
			b, err := m.MarshalJSON()
			if err != nil {
				return dst, err
			}
			return append(dst, b...), nil
		}
	}

	switch rv.Kind() {
	case reflect.String:
		return appendQuotedString(dst, rv.String()), nil

	case reflect.Bool:
		if rv.Bool() {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return appendInt(dst, rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return appendUint(dst, rv.Uint()), nil

	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return append(dst, "null"...), nil
		}
		if rv.Kind() == reflect.Float32 {
			return strconv.AppendFloat(dst, f, 'f', -1, 32), nil
		}
		return appendFloat(dst, f), nil

	case reflect.Slice:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		// []byte → base64（兼容 encoding/json）
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return appendByteSlice(dst, rv.Bytes()), nil
		}
		return appendMarshalArray(dst, rv, depth+1)

	case reflect.Array:
		return appendMarshalArray(dst, rv, depth+1)

	case reflect.Map:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		return appendMarshalMap(dst, rv, depth+1)

	case reflect.Struct:
		return appendMarshalStruct(dst, rv, depth+1)

	case reflect.Interface:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		return appendMarshal(dst, rv.Elem(), depth+1)

	default:
		return append(dst, "null"...), nil
	}
}

// appendByteSlice 编码 []byte 为 base64 字符串（兼容 encoding/json）
func appendByteSlice(dst []byte, b []byte) []byte {
	if len(b) == 0 {
		return append(dst, `""`...)
	}
	dst = append(dst, '"')
	encodedLen := base64.StdEncoding.EncodedLen(len(b))
	pos := len(dst)
	dst = append(dst, make([]byte, encodedLen)...)
	base64.StdEncoding.Encode(dst[pos:], b)
	return append(dst, '"')
}

func appendMarshalArray(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	dst = append(dst, '[')
	n := rv.Len()
	for i := 0; i < n; i++ {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		dst, err = appendMarshal(dst, rv.Index(i), depth)
		if err != nil {
			return dst, err
		}
	}
	return append(dst, ']'), nil
}

// appendMarshalMap 编码 map（键排序以保持输出一致性）
func appendMarshalMap(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return dst, fmt.Errorf("yakjson: unsupported map key type %s", rv.Type().Key())
	}
	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	slices.Sort(keys)

	dst = append(dst, '{')
	for i, key := range keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendQuotedString(dst, key)
		dst = append(dst, ':')
		var err error
		dst, err = appendMarshal(dst, rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())), depth)
		if err != nil {
			return dst, err
		}
	}
	return append(dst, '}'), nil
}

// ─── Struct 字段缓存 ───

// structFieldInfo 缓存的结构体字段元数据
type structFieldInfo struct {
	name      string // JSON 键名
	nameJSON  string // 预编码: "name": （含引号和冒号）
	index     []int  // reflect 字段索引
	omitempty bool
}

// structCache 避免反复反射解析 tag
var structCache sync.Map // map[reflect.Type][]structFieldInfo

func getStructFields(t reflect.Type) []structFieldInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.([]structFieldInfo)
	}
	fields := buildStructFields(t)
	structCache.Store(t, fields)
	return fields
}

func buildStructFields(t reflect.Type) []structFieldInfo {
	var fields []structFieldInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		// 匿名嵌入结构体展开
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			embedded := buildStructFields(f.Type)
			for j := range embedded {
				embedded[j].index = append([]int{i}, embedded[j].index...)
			}
			fields = append(fields, embedded...)
			continue
		}

		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name := f.Name
		omitempty := false
		if tag != "" {
			parts := strings.SplitN(tag, ",", 2)
			if parts[0] != "" {
				name = parts[0]
			}
			if len(parts) > 1 && strings.Contains(parts[1], "omitempty") {
				omitempty = true
			}
		}
		fields = append(fields, structFieldInfo{
			name:      name,
			nameJSON:  `"` + name + `":`,
			index:     f.Index,
			omitempty: omitempty,
		})
	}
	return fields
}

func appendMarshalStruct(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	fields := getStructFields(rv.Type())
	dst = append(dst, '{')
	first := true
	for i := range fields {
		fi := &fields[i]
		fv := rv.FieldByIndex(fi.index)
		if fi.omitempty && isZeroValue(fv) {
			continue
		}
		if !first {
			dst = append(dst, ',')
		}
		first = false
		dst = append(dst, fi.nameJSON...)
		var err error
		dst, err = appendMarshal(dst, fv, depth)
		if err != nil {
			return dst, err
		}
	}
	return append(dst, '}'), nil
}

// isZeroValue 检查是否为零值（omitempty 用）
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.String:
		return v.Len() == 0
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.Array:
		return v.Len() == 0
	}
	return false
}

// ─── Unmarshal ───

// Unmarshal 将 JSON 反序列化到 Go 值（兼容 encoding/json.Unmarshal）
//
// 整数目标使用精确 mantissa 赋值（超出目标类型范围报错），
// 浮点目标使用查表缩放得到的 float64，字符串目标接收解转义后的内容。
//
// 支持:
//   - *struct: 按 json tag 映射字段
//   - *map[string]T: 通用对象解析
//   - *[]T: 通用数组解析
//   - *string, *bool, *int*, *uint*, *float*: 基础类型
//   - Unmarshaler 接口
func Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &InvalidUnmarshalError{Type: reflect.TypeOf(v)}
	}

	if u, ok := v.(Unmarshaler); ok {
		return u.UnmarshalJSON(data)
	}

	var p Parser
	jv, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	return unmarshalValue(jv, rv.Elem())
}

func unmarshalValue(jv *Value, rv reflect.Value) error {
	// 解引用指针（自动创建）
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}

	// Unmarshaler 接口: 把子树重新序列化后交给回调
	if rv.CanAddr() {
		if u, ok := rv.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalJSON(jv.MarshalTo(nil))
		}
	}

	switch jv.Type() {
	case TypeNull:
		rv.SetZero()
		return nil

	case TypeBool:
		switch rv.Kind() {
		case reflect.Bool:
			rv.SetBool(jv.b)
		case reflect.Interface:
			rv.Set(reflect.ValueOf(jv.b))
		default:
			return fmt.Errorf("yakjson: cannot unmarshal bool into %s", rv.Type())
		}
		return nil

	case TypeNumber:
		return unmarshalNumber(jv, rv)

	case TypeString:
		s, ok := jv.Unquote()
		if !ok {
			return fmt.Errorf("yakjson: invalid string escape in %q", jv.Raw())
		}
		switch rv.Kind() {
		case reflect.String:
			rv.SetString(s)
		case reflect.Interface:
			rv.Set(reflect.ValueOf(s))
		default:
			return fmt.Errorf("yakjson: cannot unmarshal string into %s", rv.Type())
		}
		return nil

	case TypeArray:
		return unmarshalArray(jv, rv)

	case TypeObject:
		return unmarshalObject(jv, rv)
	}
	return nil
}

func unmarshalNumber(jv *Value, rv reflect.Value) error {
	num := jv.num
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := num.Int64()
		if !ok || rv.OverflowInt(n) {
			return fmt.Errorf("yakjson: cannot unmarshal number %s into %s", jv.Raw(), rv.Type())
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := num.Int64()
		if !ok || n < 0 || rv.OverflowUint(uint64(n)) {
			return fmt.Errorf("yakjson: cannot unmarshal number %s into %s", jv.Raw(), rv.Type())
		}
		rv.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		if rv.OverflowFloat(num.f) {
			return fmt.Errorf("yakjson: cannot unmarshal number %s into %s", jv.Raw(), rv.Type())
		}
		rv.SetFloat(num.f)
	case reflect.Interface:
		// 整数形态且落在 int64 内给 int64，其余给 float64
		if n, ok := num.Int64(); ok {
			rv.Set(reflect.ValueOf(n))
		} else {
			rv.Set(reflect.ValueOf(num.f))
		}
	default:
		return fmt.Errorf("yakjson: cannot unmarshal number into %s", rv.Type())
	}
	return nil
}

func unmarshalArray(jv *Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Slice:
		slice := reflect.MakeSlice(rv.Type(), len(jv.a), len(jv.a))
		for i, elem := range jv.a {
			if err := unmarshalValue(elem, slice.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(slice)
	case reflect.Array:
		for i := 0; i < rv.Len() && i < len(jv.a); i++ {
			if err := unmarshalValue(jv.a[i], rv.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Interface:
		arr := make([]any, len(jv.a))
		for i, elem := range jv.a {
			if err := unmarshalValue(elem, reflect.ValueOf(&arr[i]).Elem()); err != nil {
				return err
			}
		}
		rv.Set(reflect.ValueOf(arr))
	default:
		return fmt.Errorf("yakjson: cannot unmarshal array into %s", rv.Type())
	}
	return nil
}

func unmarshalObject(jv *Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("yakjson: cannot unmarshal object into %s", rv.Type())
		}
		if rv.IsNil() {
			rv.Set(reflect.MakeMap(rv.Type()))
		}
		valType := rv.Type().Elem()
		for i := range jv.o.kvs {
			e := &jv.o.kvs[i]
			val := reflect.New(valType).Elem()
			if err := unmarshalValue(e.v, val); err != nil {
				return err
			}
			rv.SetMapIndex(reflect.ValueOf(e.k).Convert(rv.Type().Key()), val)
		}
	case reflect.Struct:
		return unmarshalStruct(jv, rv)
	case reflect.Interface:
		m := make(map[string]any, len(jv.o.kvs))
		for i := range jv.o.kvs {
			e := &jv.o.kvs[i]
			var val any
			if err := unmarshalValue(e.v, reflect.ValueOf(&val).Elem()); err != nil {
				return err
			}
			m[e.k] = val
		}
		rv.Set(reflect.ValueOf(m))
	default:
		return fmt.Errorf("yakjson: cannot unmarshal object into %s", rv.Type())
	}
	return nil
}

func unmarshalStruct(jv *Value, rv reflect.Value) error {
	fields := getStructFields(rv.Type())
	for i := range jv.o.kvs {
		e := &jv.o.kvs[i]
		for _, fi := range fields {
			if fi.name == e.k {
				if err := unmarshalValue(e.v, rv.FieldByIndex(fi.index)); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

// ─── Unpack ───

// Unpack 把 Value 树转换为原生 Go 值
//
// 对象 → map[string]any，数组 → []any，字符串 → 解转义后的 string，
// 整数形态且落在 int64 内 → int64（否则 float64），bool → bool，
// null/absent → nil。
func (v *Value) Unpack() any {
	if v == nil {
		return nil
	}
	switch v.t {
	case TypeNull:
		return nil
	case TypeBool:
		return v.b
	case TypeNumber:
		if n, ok := v.num.Int64(); ok {
			return n
		}
		return v.num.f
	case TypeString:
		s, ok := v.Unquote()
		if !ok {
			return v.span.Of(v.src)
		}
		return s
	case TypeArray:
		arr := make([]any, len(v.a))
		for i, elem := range v.a {
			arr[i] = elem.Unpack()
		}
		return arr
	case TypeObject:
		m := make(map[string]any, len(v.o.kvs))
		for i := range v.o.kvs {
			m[v.o.kvs[i].k] = v.o.kvs[i].v.Unpack()
		}
		return m
	default:
		return nil
	}
}
