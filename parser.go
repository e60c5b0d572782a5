package yakjson

import "sync"

// Parser JSON 解析器（零拷贝，可复用）
//
// Parser 维护一个 Value 对象缓存池，避免逐个分配。
// 返回的树的生命周期绑定到 Parser: 下次调用 Parse 时之前的树会失效。
// 注意: Parser 不是并发安全的，并发场景请使用 ParserPool
// 或包级 Parse（每次独立 Parser）。
//
// 用法:
//
//	var p yakjson.Parser
//	v, err := p.Parse(`{"key":"value"}`)
//	s, ok := v.Key("key").AsString() // "value"
type Parser struct {
	c cache
}

// cache Value 对象缓存
//
// 灵感来源: valyala/fastjson cache — 预分配 []Value 切片，
// 通过 append 增长而非逐个 new，解析结束后 reset 长度为 0 复用底层数组。
type cache struct {
	vs []Value
}

func (c *cache) reset() { c.vs = c.vs[:0] }

func (c *cache) getVal() *Value {
	if cap(c.vs) > len(c.vs) {
		c.vs = c.vs[:len(c.vs)+1]
	} else {
		c.vs = append(c.vs, Value{})
	}
	return &c.vs[len(c.vs)-1]
}

// newVal 取一个槽位并清掉上一轮解析残留的字段
func (c *cache) newVal(src string, t Type, start, end int) *Value {
	v := c.getVal()
	v.o.reset()
	v.a = v.a[:0]
	v.num = Number{}
	v.src = src
	v.span = Span{Start: start, End: end}
	v.t = t
	v.b = false
	return v
}

// Parse 解析 JSON 文本，返回根 Value
//
// 顶层必须是对象或数组；根值之后只允许空白。
// 失败时返回 *ParseError（字节偏移），不返回部分解析结果。
func (p *Parser) Parse(s string) (*Value, error) {
	p.c.reset()
	n := len(s)
	i := skipWS(s, 0)
	if i >= n {
		return nil, errAt(i)
	}
	var v *Value
	var err error
	switch s[i] {
	case '{':
		v, i, err = parseObj(s, i+1, &p.c, 1)
	case '[':
		v, i, err = parseArr(s, i+1, &p.c, 1)
	default:
		// 顶层裸标量被拒绝
		return nil, errAt(i)
	}
	if err != nil {
		return nil, err
	}
	i = skipWS(s, i)
	if i < n {
		return nil, errAt(i) // 根值之后的多余内容
	}
	return v, nil
}

// ParseBytes 解析 JSON 字节切片（零拷贝视图，解析后不得修改 b）
func (p *Parser) ParseBytes(b []byte) (*Value, error) {
	return p.Parse(b2s(b))
}

// ─── ParserPool（并发安全） ───

// ParserPool 并发安全的 Parser 池
var ParserPool = sync.Pool{
	New: func() any { return new(Parser) },
}

// AcquireParser 从池中获取 Parser
func AcquireParser() *Parser {
	return ParserPool.Get().(*Parser)
}

// ReleaseParser 归还 Parser 到池中
//
// 归还后之前解析出的树不得再使用。
func ReleaseParser(p *Parser) {
	ParserPool.Put(p)
}

// ─── 核心解析引擎（索引模式递归下降） ───

// skipWS 跳过 JSON 空白（仅空格、制表、回车、换行）
func skipWS(s string, i int) int {
	for i < len(s) {
		c := s[i]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return i
		}
		i++
	}
	return i
}

// parseVal 解析任意 JSON 值
//
// 索引模式: 接受 (s, i) 返回 (*Value, newI, error)，
// 按首字节分派到七个产生式之一。
func parseVal(s string, i int, c *cache, depth int) (*Value, int, error) {
	if i >= len(s) {
		return nil, i, errAt(i)
	}
	if depth > MaxDepth {
		return nil, i, errCause(i, ErrTooDeep)
	}
	switch s[i] {
	case '{':
		return parseObj(s, i+1, c, depth+1)
	case '[':
		return parseArr(s, i+1, c, depth+1)
	case '"':
		return parseStr(s, i, c)
	case 't':
		if i+3 < len(s) && s[i+1] == 'r' && s[i+2] == 'u' && s[i+3] == 'e' {
			v := c.newVal(s, TypeBool, i, i+4)
			v.b = true
			return v, i + 4, nil
		}
		return nil, i, errAt(i)
	case 'f':
		if i+4 < len(s) && s[i+1] == 'a' && s[i+2] == 'l' && s[i+3] == 's' && s[i+4] == 'e' {
			return c.newVal(s, TypeBool, i, i+5), i + 5, nil
		}
		return nil, i, errAt(i)
	case 'n':
		if i+3 < len(s) && s[i+1] == 'u' && s[i+2] == 'l' && s[i+3] == 'l' {
			return c.newVal(s, TypeNull, i, i+4), i + 4, nil
		}
		return nil, i, errAt(i)
	default:
		if s[i] == '-' || (s[i] >= '0' && s[i] <= '9') {
			return parseNum(s, i, c)
		}
		return nil, i, errAt(i)
	}
}

// parseObj 解析 JSON 对象（i 指向 '{' 后）
//
// 收尾时键值对按键字节序排序、重复键折叠（后出现者胜），
// 之后 Key 查找走二分。
func parseObj(s string, i int, c *cache, depth int) (*Value, int, error) {
	mark := i - 1 // '{' 的位置
	v := c.newVal(s, TypeObject, mark, 0)
	n := len(s)
	i = skipWS(s, i)
	if i >= n {
		return nil, i, errAt(i)
	}
	if s[i] == '}' {
		v.span.End = i + 1
		return v, i + 1, nil
	}
	for {
		i = skipWS(s, i)
		if i >= n {
			return nil, i, errAt(i)
		}
		if s[i] != '"' {
			return nil, i, errAt(i) // 键必须是字符串
		}
		keyStart := i + 1
		end, hasEsc, err := scanStr(s, i)
		if err != nil {
			return nil, i, err
		}
		kvp := v.o.getKV()
		if hasEsc {
			// 含转义的键解码为副本，键排序/查找按解码后文本
			k, ok := unescape(s[keyStart : end-1])
			if !ok {
				return nil, i, errAt(i)
			}
			kvp.k = k
		} else {
			kvp.k = s[keyStart : end-1]
		}
		i = skipWS(s, end)
		if i >= n || s[i] != ':' {
			return nil, i, errAt(i)
		}
		i = skipWS(s, i+1)
		kvp.v, i, err = parseVal(s, i, c, depth)
		if err != nil {
			return nil, i, err
		}
		i = skipWS(s, i)
		if i >= n {
			return nil, i, errAt(i)
		}
		if s[i] == ',' {
			i++
			continue
		}
		if s[i] == '}' {
			v.o.sortDedup()
			v.span.End = i + 1
			return v, i + 1, nil
		}
		return nil, i, errAt(i)
	}
}

// parseArr 解析 JSON 数组（i 指向 '[' 后），元素保持源顺序
func parseArr(s string, i int, c *cache, depth int) (*Value, int, error) {
	mark := i - 1 // '[' 的位置
	v := c.newVal(s, TypeArray, mark, 0)
	n := len(s)
	i = skipWS(s, i)
	if i >= n {
		return nil, i, errAt(i)
	}
	if s[i] == ']' {
		v.span.End = i + 1
		return v, i + 1, nil
	}
	for {
		i = skipWS(s, i)
		var elem *Value
		var err error
		elem, i, err = parseVal(s, i, c, depth)
		if err != nil {
			return nil, i, err
		}
		v.a = append(v.a, elem)
		i = skipWS(s, i)
		if i >= n {
			return nil, i, errAt(i)
		}
		if s[i] == ',' {
			i++
			continue
		}
		if s[i] == ']' {
			v.span.End = i + 1
			return v, i + 1, nil
		}
		return nil, i, errAt(i)
	}
}

// parseStr 解析 JSON 字符串值，span 不含引号，内容保持原始转义形态
func parseStr(s string, i int, c *cache) (*Value, int, error) {
	end, _, err := scanStr(s, i)
	if err != nil {
		return nil, i, err
	}
	return c.newVal(s, TypeString, i+1, end-1), end, nil
}

// parseNum 解析 JSON 数字，span 为完整字面量
func parseNum(s string, i int, c *cache) (*Value, int, error) {
	start := i
	num, end, err := decodeNumber(s, i)
	if err != nil {
		return nil, end, err
	}
	v := c.newVal(s, TypeNumber, start, end)
	v.num = num
	return v, end, nil
}

// scanStr 扫描字符串字面量（i 指向开头 '"'），校验转义但不解码
//
// 返回收尾 '"' 之后的位置与是否含转义序列。
// 遇 '\' 连同被转义字节一起跳过——`\\"` 之类的序列正确收尾，
// 不依赖单字节回看。裸控制字节（< 0x20）与非法转义种类在此拒绝。
//
// 优化技巧来源: > '\\' 比较受 gjson parseString 字符范围比较启发，
// 利用 '\\' (0x5C) 居于 ASCII 中间的特点，一次比较覆盖大部分安全字符。
func scanStr(s string, i int) (int, bool, error) {
	i++ // skip opening '"'
	n := len(s)
	hasEsc := false
	for i < n {
		c := s[i]
		if c > '\\' { // 覆盖 ]^_`a-z{|}~ 与 UTF-8 高位字节
			i++
			continue
		}
		switch {
		case c == '"':
			return i + 1, hasEsc, nil
		case c == '\\':
			hasEsc = true
			i++
			if i >= n {
				return 0, false, errAt(i)
			}
			switch s[i] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				i++
			case 'u':
				if i+4 >= n || !isHex4(s[i+1:i+5]) {
					return 0, false, errAt(i)
				}
				i += 5
			default:
				return 0, false, errAt(i)
			}
		case c < 0x20:
			return 0, false, errAt(i)
		default:
			i++
		}
	}
	return 0, false, errAt(n) // 未闭合字符串
}

func isHex4(s string) bool {
	for k := 0; k < 4; k++ {
		c := s[k]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
