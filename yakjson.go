// Package yakjson 零拷贝 JSON 解析库（span + 精确数字）
//
// 设计原则:
//   - 零拷贝视图: 每个 Value 只记录指向原始 JSON 文本的字节区间 (Span)，
//     字符串/数字内容不做任何拷贝；树在源文本存活期间有效
//   - 精确数字: 数字字面量同时解码为 128 位精确整数 mantissa 与查表缩放
//     得到的 float64，整数取值不经过浮点中转
//   - 安全导航: 缺失的键/下标返回 absent 哨兵而非报错，链式访问
//     v.Key("a").Index(2) 对任意路径都安全；类型提取 comma-ok，绝不 panic
//   - 有序对象: 对象按键字节序存储，迭代顺序确定且与插入顺序无关，
//     键查找走二分
//   - 池化复用: Parser/Writer 通过 sync.Pool 复用，并发场景零额外分配
//
// 致谢 (Acknowledgments):
//
//	本库的部分设计模式和优化技巧受以下优秀开源项目启发：
//	- valyala/fastjson (MIT License): Parser+cache 缓存池架构、kv 键值对设计
//	- tidwall/gjson (MIT License): > '\' 字符范围比较技巧
//	- buger/jsonparser (MIT License): 栈上 [64]byte 缓冲避免小字符串堆分配
//	所有代码均为独立重写，核心差异：span 源视图、i128 mantissa 精确数字、
//	键排序对象存储、absent 哨兵导航。
//
// 用法:
//
//	v, err := yakjson.Parse(`{"a":1,"b":[1,2,3]}`)
//	n, ok := v.Key("a").AsInt()          // 1, true
//	m, ok := v.Key("b").Index(2).AsInt() // 3, true
//	_ = v.Key("missing").Exists()        // false（不报错）
package yakjson

// MaxDepth JSON 嵌套最大深度（防递归栈溢出攻击）
const MaxDepth = 512

// MaxMarshalDepth Marshal 序列化最大递归深度（防自引用指针链栈溢出）
const MaxMarshalDepth = 1000

// Parse 解析 JSON 文本，返回根 Value
//
// 顶层必须是对象或数组（裸标量被拒绝）。
// 内部使用独立 Parser，返回的树的生命周期只绑定到调用方。
// 需要复用解析器缓存时请直接使用 Parser / AcquireParser。
func Parse(s string) (*Value, error) {
	return new(Parser).Parse(s)
}

// ParseBytes 解析 JSON 字节切片
//
// 零拷贝: b 被直接按只读文本视图使用，解析后不得修改。
func ParseBytes(b []byte) (*Value, error) {
	return new(Parser).Parse(b2s(b))
}

// Valid 报告 s 是否为一个合法的顶层 JSON 文档
func Valid(s string) bool {
	p := AcquireParser()
	_, err := p.Parse(s)
	ReleaseParser(p)
	return err == nil
}
