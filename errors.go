package yakjson

import (
	"errors"
	"fmt"
)

// 可判别的失败原因（errors.Is），普通畸形输入的 cause 为 nil
var (
	// ErrTooDeep 嵌套深度超过 MaxDepth
	ErrTooDeep = errors.New("yakjson: too deeply nested")

	// ErrNumberOverflow 数字字面量的 mantissa 超出 128 位有符号整数
	ErrNumberOverflow = errors.New("yakjson: number overflow")

	// ErrNumberRange 小数位数或指数超出 65 项幂表范围
	ErrNumberRange = errors.New("yakjson: number scale out of range")
)

// ParseError 解析错误
//
// 契约只有字节偏移: Offset 指向无法继续扫描的字节。
// 不携带期望 token 集合——需要行列号/上下文的调用方
// 自行基于 Offset 和原始文本推导。
type ParseError struct {
	Offset int
	cause  error
}

func errAt(i int) error { return &ParseError{Offset: i} }

func errCause(i int, cause error) error { return &ParseError{Offset: i, cause: cause} }

func (e *ParseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%v (offset %d)", e.cause, e.Offset)
	}
	return fmt.Sprintf("yakjson: malformed input (offset %d)", e.Offset)
}

// Unwrap 暴露 cause，供 errors.Is 判别 ErrTooDeep 等条件
func (e *ParseError) Unwrap() error { return e.cause }
