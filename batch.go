package yakjson

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
)

// ─── LineParser（长生命周期 NDJSON 引擎） ───

// LineParser NDJSON（每行一个 JSON 文档）并发解析引擎
//
// 在 ants goroutine 池上派发行任务，Parser 经 ParserPool 复用，
// 每行独立解析互不影响。长生命周期: 建一次、跑多个流，
// Close 释放池。单次 Run 内回调可能被多个 worker 并发调用。
type LineParser struct {
	pool     *ants.Pool
	maxLine  int
	lines    *counter
	bytes    *counter
	failures *counter
}

// NewLineParser 创建 NDJSON 解析引擎，workers 为并发 worker 数
func NewLineParser(workers int) (*LineParser, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("yakjson: create worker pool: %w", err)
	}
	return &LineParser{
		pool:     pool,
		lines:    newCounter(),
		bytes:    newCounter(),
		failures: newCounter(),
	}, nil
}

// SetMaxLineBytes 设置单行字节上限（<=0 使用 bufio.Scanner 默认值）
//
// 尺寸护栏放在采集边界而非 parse 内部: 解析本身只受输入长度约束。
func (lp *LineParser) SetMaxLineBytes(n int) { lp.maxLine = n }

// Run 逐行读取 r 并并发解析，每条记录回调一次 fn
//
// 行号从 1 起算，空白行跳过不计。解析失败的行以非 nil err 回调
// （v 为 nil）并计入 Failures。回调中的 *Value 只在回调返回前有效。
// ctx 取消时停止派发并等待在途任务后返回 ctx.Err()；
// 读取错误（含超长行）原样返回。
func (lp *LineParser) Run(ctx context.Context, r io.Reader, fn func(line int, v *Value, err error)) error {
	sc := bufio.NewScanner(r)
	if lp.maxLine > 0 {
		// Scanner 取 cap(buf) 与 max 的较大者作为上限，初始 cap 不能超过 maxLine
		sc.Buffer(make([]byte, 0, min(lp.maxLine, 64*1024)), lp.maxLine)
	}
	var wg sync.WaitGroup
	lineNo := 0
	for sc.Scan() {
		lineNo++
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}
		if len(strings.TrimSpace(b2s(sc.Bytes()))) == 0 {
			continue
		}
		line := string(sc.Bytes()) // Scanner 复用底层 buffer，必须拷贝
		no := lineNo
		wg.Add(1)
		err := lp.pool.Submit(func() {
			defer wg.Done()
			p := AcquireParser()
			v, perr := p.Parse(line)
			lp.lines.add(1)
			lp.bytes.add(int64(len(line)))
			if perr != nil {
				lp.failures.add(1)
				fn(no, nil, perr)
			} else {
				fn(no, v, nil)
			}
			ReleaseParser(p)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("yakjson: submit line %d: %w", lineNo, err)
		}
	}
	wg.Wait()
	return sc.Err()
}

// Stats 累计计数快照
func (lp *LineParser) Stats() LineStats {
	return LineStats{
		Lines:    lp.lines.read(),
		Bytes:    lp.bytes.read(),
		Failures: lp.failures.read(),
	}
}

// Close 释放 worker 池（等待在途任务完成）
func (lp *LineParser) Close() {
	lp.pool.Release()
}

// ─── ParseLines（一次性 fan-out） ───

// ParseLines 并发解析 data 中的 NDJSON 记录（一次性入口）
//
// 不需要长生命周期引擎时的轻量版: errgroup fan-out，
// workers 限制并发度（<=0 不限制）。空白行跳过。
// 任一记录解析失败或 fn 返回错误即取消其余任务，
// 返回第一个错误（解析错误带行号包装，errors.As 仍可取到 *ParseError）。
func ParseLines(ctx context.Context, data []byte, workers int, fn func(line int, v *Value) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	s := b2s(data)
	lineNo := 0
	for len(s) > 0 {
		lineNo++
		var line string
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			line, s = s[:idx], s[idx+1:]
		} else {
			line, s = s, ""
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		no := lineNo
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			p := AcquireParser()
			defer ReleaseParser(p)
			v, err := p.Parse(line)
			if err != nil {
				return fmt.Errorf("yakjson: line %d: %w", no, err)
			}
			return fn(no, v)
		})
	}
	return g.Wait()
}
