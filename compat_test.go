package yakjson

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

type compatUser struct {
	Name  string   `json:"name"`
	Age   int      `json:"age,omitempty"`
	Tags  []string `json:"tags,omitempty"`
	Skip  string   `json:"-"`
	Plain bool
}

type compatBase struct {
	ID int64 `json:"id"`
}

type compatDoc struct {
	compatBase
	Body string `json:"body"`
}

// TestMarshalBasic 测试基础类型与复合类型序列化
func TestMarshalBasic(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, `null`},
		{true, `true`},
		{42, `42`},
		{int64(-7), `-7`},
		{uint16(300), `300`},
		{2.5, `2.5`},
		{"a\"b", `"a\"b"`},
		{[]int{1, 2}, `[1,2]`},
		{[2]string{"x", "y"}, `["x","y"]`},
		{[]int(nil), `null`},
		{map[string]int(nil), `null`},
		{(*int)(nil), `null`},
		{map[string]int{"z": 1, "a": 2}, `{"a":2,"z":1}`},
		{[]byte("hi"), `"aGk="`},
		{[]byte{}, `""`},
	}
	for _, tc := range cases {
		got, err := Marshal(tc.in)
		if err != nil {
			t.Errorf("Marshal(%v) error: %v", tc.in, err)
			continue
		}
		if string(got) != tc.want {
			t.Errorf("Marshal(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

// TestMarshalStruct 测试 struct tag 语义
func TestMarshalStruct(t *testing.T) {
	u := compatUser{Name: "ann", Skip: "hidden", Plain: true}
	got, err := Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	// omitempty 跳过零值 Age/Tags，json:"-" 跳过 Skip，无 tag 用字段名
	want := `{"name":"ann","Plain":true}`
	if string(got) != want {
		t.Fatalf("Marshal struct = %s, want %s", got, want)
	}

	u.Age = 30
	u.Tags = []string{"a"}
	got, _ = Marshal(&u) // 指针同样工作
	want = `{"name":"ann","age":30,"tags":["a"],"Plain":true}`
	if string(got) != want {
		t.Fatalf("Marshal struct ptr = %s, want %s", got, want)
	}
}

// TestMarshalEmbedded 测试匿名嵌入结构体展开
func TestMarshalEmbedded(t *testing.T) {
	d := compatDoc{compatBase: compatBase{ID: 9}, Body: "x"}
	got, err := Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"id":9,"body":"x"}` {
		t.Fatalf("embedded marshal = %s", got)
	}
}

// TestMarshalValue 测试 *Value 直通序列化
func TestMarshalValue(t *testing.T) {
	v := mustParse(t, `{"b":1,"a":2}`)
	got, err := Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":2,"b":1}` {
		t.Fatalf("Marshal(*Value) = %s", got)
	}
	got, err = Marshal(map[string]any{"doc": v.Key("a")})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"doc":2}` {
		t.Fatalf("nested *Value = %s", got)
	}
}

// TestMarshalRawMessage 测试 RawMessage 原样输出
func TestMarshalRawMessage(t *testing.T) {
	got, err := Marshal(map[string]RawMessage{"r": RawMessage(`[1,2]`)})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"r":[1,2]}` {
		t.Fatalf("RawMessage marshal = %s", got)
	}
	got, _ = Marshal(RawMessage(nil))
	if string(got) != `null` {
		t.Fatalf("nil RawMessage = %s", got)
	}
}

// TestMarshalSpecialFloats 测试 NaN/Inf 输出 null
func TestMarshalSpecialFloats(t *testing.T) {
	got, err := Marshal([]float64{math.NaN(), math.Inf(-1), 1.5})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[null,null,1.5]` {
		t.Fatalf("special floats = %s", got)
	}
}

// TestMarshalAppend 测试追加式序列化入口
func TestMarshalAppend(t *testing.T) {
	out, err := MarshalAppend([]byte("data: "), []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "data: [1]" {
		t.Fatalf("MarshalAppend = %q", out)
	}
}

// TestMarshalSelfReference 测试自引用结构的深度保护
func TestMarshalSelfReference(t *testing.T) {
	type node struct {
		Next *node `json:"next,omitempty"`
	}
	a := &node{}
	a.Next = a
	if _, err := Marshal(a); err == nil {
		t.Fatal("self-referencing marshal should fail")
	}
}

// TestUnmarshalStruct 测试结构体反序列化
func TestUnmarshalStruct(t *testing.T) {
	var u compatUser
	data := []byte(`{"name":"bob","age":7,"tags":["x","y"],"Plain":true,"extra":1}`)
	if err := Unmarshal(data, &u); err != nil {
		t.Fatal(err)
	}
	if u.Name != "bob" || u.Age != 7 || len(u.Tags) != 2 || u.Tags[1] != "y" || !u.Plain {
		t.Fatalf("Unmarshal struct = %+v", u)
	}

	var d compatDoc
	if err := Unmarshal([]byte(`{"id":11,"body":"b"}`), &d); err != nil {
		t.Fatal(err)
	}
	if d.ID != 11 || d.Body != "b" {
		t.Fatalf("Unmarshal embedded = %+v", d)
	}
}

// TestUnmarshalMapSlice 测试 map 与 slice 目标
func TestUnmarshalMapSlice(t *testing.T) {
	var m map[string]int
	if err := Unmarshal([]byte(`{"a":1,"b":2}`), &m); err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m["a"] != 1 || m["b"] != 2 {
		t.Fatalf("map = %v", m)
	}

	var s []string
	if err := Unmarshal([]byte(`["p","q"]`), &s); err != nil {
		t.Fatal(err)
	}
	if len(s) != 2 || s[0] != "p" {
		t.Fatalf("slice = %v", s)
	}

	var nested map[string][]float64
	if err := Unmarshal([]byte(`{"xs":[1.5,2.5]}`), &nested); err != nil {
		t.Fatal(err)
	}
	if nested["xs"][1] != 2.5 {
		t.Fatalf("nested = %v", nested)
	}
}

// TestUnmarshalInterface 测试 any 目标的动态类型选择
func TestUnmarshalInterface(t *testing.T) {
	var v any
	if err := Unmarshal([]byte(`{"i":3,"f":1.5,"s":"x","b":true,"n":null,"a":[1]}`), &v); err != nil {
		t.Fatal(err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("got %T", v)
	}
	// 整数形态 → int64，浮点形态 → float64
	if m["i"] != int64(3) || m["f"] != 1.5 || m["s"] != "x" || m["b"] != true || m["n"] != nil {
		t.Fatalf("interface values = %#v", m)
	}
	if arr, _ := m["a"].([]any); len(arr) != 1 || arr[0] != int64(1) {
		t.Fatalf("interface array = %#v", m["a"])
	}
}

// TestUnmarshalNumberBounds 测试整数目标的精确赋值与溢出检查
func TestUnmarshalNumberBounds(t *testing.T) {
	var target struct {
		N int8 `json:"n"`
	}
	if err := Unmarshal([]byte(`{"n":127}`), &target); err != nil {
		t.Fatal(err)
	}
	if target.N != 127 {
		t.Fatalf("int8 = %d", target.N)
	}
	if err := Unmarshal([]byte(`{"n":128}`), &target); err == nil {
		t.Fatal("int8 overflow should fail")
	}
	var u struct {
		N uint `json:"n"`
	}
	if err := Unmarshal([]byte(`{"n":-1}`), &u); err == nil {
		t.Fatal("negative into uint should fail")
	}
	// 浮点形态拒绝整数目标
	var i struct {
		N int `json:"n"`
	}
	if err := Unmarshal([]byte(`{"n":1.5}`), &i); err == nil {
		t.Fatal("float form into int should fail")
	}
}

// TestUnmarshalErrors 测试无效目标与类型错配
func TestUnmarshalErrors(t *testing.T) {
	var invErr *InvalidUnmarshalError
	if err := Unmarshal([]byte(`{}`), nil); !errors.As(err, &invErr) {
		t.Fatalf("nil target error = %v", err)
	}
	var n int
	if err := Unmarshal([]byte(`{}`), n); !errors.As(err, &invErr) {
		t.Fatalf("non-pointer target error = %v", err)
	}
	var b bool
	if err := Unmarshal([]byte(`["x"]`), &b); err == nil {
		t.Fatal("array into bool should fail")
	}
	// 解析错误直接透传
	var perr *ParseError
	if err := Unmarshal([]byte(`{"a":}`), &map[string]any{}); !errors.As(err, &perr) {
		t.Fatalf("parse error = %v", err)
	}
}

// TestUnmarshalRawMessage 测试 RawMessage 子树捕获
func TestUnmarshalRawMessage(t *testing.T) {
	var target struct {
		Meta RawMessage `json:"meta"`
	}
	if err := Unmarshal([]byte(`{"meta":{"b":2,"a":1}}`), &target); err != nil {
		t.Fatal(err)
	}
	// 子树经重排序后的紧凑序列化
	if string(target.Meta) != `{"a":1,"b":2}` {
		t.Fatalf("RawMessage = %s", target.Meta)
	}
}

// TestUnmarshalNull 测试 null 置零语义
func TestUnmarshalNull(t *testing.T) {
	var target struct {
		S string `json:"s"`
		P *int   `json:"p"`
	}
	one := 1
	target.S = "keep"
	target.P = &one
	if err := Unmarshal([]byte(`{"s":null,"p":null}`), &target); err != nil {
		t.Fatal(err)
	}
	if target.S != "" {
		t.Fatalf("null string = %q", target.S)
	}
}

// TestUnpack 测试 Value 树转原生 Go 值
func TestUnpack(t *testing.T) {
	v := mustParse(t, `{"n":null,"b":true,"i":5,"f":0.5,"s":"a\tb","a":[1,"x"],"o":{"k":1}}`)

	got := v.Unpack()
	want := map[string]any{
		"n": nil,
		"b": true,
		"i": int64(5),
		"f": 0.5,
		"s": "a\tb",
		"a": []any{int64(1), "x"},
		"o": map[string]any{"k": int64(1)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Unpack = %#v, want %#v", got, want)
	}
	// absent → nil
	if v.Key("missing").Unpack() != nil {
		t.Fatal("absent Unpack != nil")
	}
	var nilv *Value
	if nilv.Unpack() != nil {
		t.Fatal("nil Unpack != nil")
	}
}
