package yakjson

import (
	"context"
	"strings"
	"sync"
	"testing"
)

// TestScenarioNavigate 测试典型文档的解析与逐级取值
func TestScenarioNavigate(t *testing.T) {
	v := mustParse(t, `{"a":1,"b":[1,2,3]}`)

	if n, ok := v.Key("a").AsInt(); !ok || n != 1 {
		t.Fatalf("a = %d,%v", n, ok)
	}
	if v.Key("b").Len() != 3 {
		t.Fatalf("b.Len = %d", v.Key("b").Len())
	}
	if n, ok := v.Key("b").Index(2).AsInt(); !ok || n != 3 {
		t.Fatalf("b[2] = %d,%v", n, ok)
	}
	// 缺失键: 不 panic、可继续导航、取值为零值+false
	if v.Key("missing").Exists() {
		t.Fatal("missing key exists")
	}
	if _, ok := v.Key("missing").Key("x").Index(0).AsInt(); ok {
		t.Fatal("deep absent chain yielded a value")
	}
}

// TestScenarioScientific 测试科学计数法字面量的双表示
func TestScenarioScientific(t *testing.T) {
	v := mustParse(t, `{"x": -4.5e-3}`)

	num, ok := v.Key("x").AsNumber()
	if !ok {
		t.Fatal("x is not a number")
	}
	if num.IsInteger() {
		t.Fatal("x reported as integer form")
	}
	// mantissa 为去掉小数点的连续数字（符号已施加）
	if got := num.Int128().String(); got != "-45" {
		t.Fatalf("mantissa = %s, want -45", got)
	}
	f, _ := v.Key("x").AsFloat()
	if diff := f - (-0.0045); diff > 1e-18 || diff < -1e-18 {
		t.Fatalf("float = %g, want -0.0045", f)
	}
}

// TestScenarioStringView 测试字符串的零拷贝视图取值
func TestScenarioStringView(t *testing.T) {
	src := `{"test": "why not?"}`
	v := mustParse(t, src)

	s, ok := v.Key("test").AsString()
	if !ok || s != "why not?" {
		t.Fatalf("AsString = %q,%v", s, ok)
	}
	// 无转义时 Unquote 与 AsString 同为源区间视图
	u, ok := v.Key("test").Unquote()
	if !ok || u != s {
		t.Fatalf("Unquote = %q,%v", u, ok)
	}
	sp := v.Key("test").Span()
	if src[sp.Start:sp.End] != "why not?" {
		t.Fatalf("span %v = %q", sp, src[sp.Start:sp.End])
	}
}

// TestScenarioEnvelope 测试解析-过滤-重组流水线
//
// 提取每条记录的子树并包进新信封，模拟日志脱水场景。
func TestScenarioEnvelope(t *testing.T) {
	input := strings.Join([]string{
		`{"user":{"id":1,"secret":"a"},"msg":"hello"}`,
		`{"user":{"id":2,"secret":"b"},"msg":"world"}`,
	}, "\n")

	var mu sync.Mutex
	var out []string
	err := ParseLines(context.Background(), []byte(input), 2, func(line int, v *Value) error {
		w := AcquireWriter()
		defer ReleaseWriter(w)
		w.Object(func(w *Writer) {
			w.FieldInt("line", line)
			w.FieldValue("id", v.Get("user", "id"))
			msg, _ := v.Key("msg").Unquote()
			w.Field("msg", msg)
		})
		mu.Lock()
		out = append(out, w.String())
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("records = %d", len(out))
	}
	for _, rec := range out {
		if !Valid(rec) {
			t.Fatalf("envelope not valid JSON: %s", rec)
		}
		if strings.Contains(rec, "secret") {
			t.Fatalf("envelope leaked filtered field: %s", rec)
		}
	}
}

// TestScenarioConfigReload 测试同一配置文本的缓存重读
func TestScenarioConfigReload(t *testing.T) {
	cfg := `{"listen":":8080","limits":{"max_conns":100}}`
	c := NewDocCache(4)

	var prev *Value
	for i := 0; i < 5; i++ {
		v, err := c.Parse(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if prev != nil && v != prev {
			t.Fatal("reload of identical config did not hit cache")
		}
		prev = v
		if n, ok := v.Get("limits", "max_conns").AsInt(); !ok || n != 100 {
			t.Fatalf("max_conns = %d,%v", n, ok)
		}
	}
	if st := c.Stats(); st.Hits != 4 || st.Misses != 1 {
		t.Fatalf("Stats = %+v", st)
	}
}

// TestScenarioLargeIdentifier 测试超 int64 标识符的无损往返
func TestScenarioLargeIdentifier(t *testing.T) {
	id := "98765432109876543210987654321" // 29 位，超出 int64
	v := mustParse(t, `{"id":`+id+`}`)

	if _, ok := v.Key("id").AsInt(); ok {
		t.Fatal("oversized id fit int64")
	}
	big, ok := v.Key("id").AsInt128()
	if !ok || big.String() != id {
		t.Fatalf("AsInt128 = %s,%v", big.String(), ok)
	}
	// 序列化回填原始字面量，无精度损失
	if got := v.String(); got != `{"id":`+id+`}` {
		t.Fatalf("marshal = %s", got)
	}
}

// TestScenarioValueLifetime 测试"提取后复用"的 Parser 使用模式
//
// 树只在下一次 Parse 前有效。需要跨文档保留的数据在复用前提取，
// 提取出的原生值与序列化副本不受后续解析影响。
func TestScenarioValueLifetime(t *testing.T) {
	p := new(Parser)
	v1, err := p.Parse(`{"a":1,"s":"x"}`)
	if err != nil {
		t.Fatal(err)
	}
	n1, _ := v1.Key("a").AsInt()
	snap := v1.String()

	if _, err := p.Parse(`{"b":2}`); err != nil {
		t.Fatal(err)
	}
	if n1 != 1 {
		t.Fatalf("extracted value = %d", n1)
	}
	if snap != `{"a":1,"s":"x"}` {
		t.Fatalf("snapshot = %s", snap)
	}
}
