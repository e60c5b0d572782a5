// yakq 从 JSON 文档中按路径提取值的命令行工具
//
// 单文档模式读取整个输入解析一次；--lines 切换为 NDJSON 流模式，
// 每行一个文档并发解析，失败的记录输出错误信封而非中断。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/uniyakcom/yakjson"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		pretty  bool
		raw     bool
		lines   bool
		workers int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "yakq PATH [FILE]",
		Short: "Extract a value from a JSON document",
		Long: "yakq parses a JSON document (file or stdin) and prints the value at the\n" +
			"dot-separated PATH of object keys and array indices. PATH \".\" selects the\n" +
			"whole document. With --lines the input is treated as NDJSON: one document\n" +
			"per line, parsed concurrently, one result per record.",
		Example: heredoc.Doc(`
			# 取嵌套字段
			$ echo '{"a":{"b":[1,2,3]}}' | yakq a.b.2

			# 整个文档带缩进输出
			$ yakq --pretty . config.json

			# NDJSON 流式提取，8 个 worker
			$ yakq --lines --workers 8 user.name records.ndjson
		`),
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			path := splitPath(args[0])
			in := io.Reader(os.Stdin)
			if len(args) == 2 {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			if lines {
				return runLines(cmd.Context(), log, in, path, workers, pretty, raw)
			}
			return runSingle(log, in, path, pretty, raw)
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "pretty-print output")
	cmd.Flags().BoolVarP(&raw, "raw", "r", false, `raw output for strings (unescape and remove "")`)
	cmd.Flags().BoolVar(&lines, "lines", false, "NDJSON mode: one document per input line")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent workers in NDJSON mode")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug diagnostics on stderr")

	return cmd
}

// splitPath 把点分路径拆成导航步骤，"." 与空串表示根
func splitPath(p string) []string {
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, ".")
}

// runSingle 单文档模式
func runSingle(log *slog.Logger, in io.Reader, path []string, pretty, raw bool) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	src := string(data)
	v, err := yakjson.Parse(src)
	if err != nil {
		var perr *yakjson.ParseError
		if errors.As(err, &perr) {
			line, col := lineCol(src, perr.Offset)
			log.Debug("parse failed", "offset", perr.Offset, "line", line, "col", col)
			return fmt.Errorf("parse error at line %d, column %d: %w", line, col, err)
		}
		return err
	}
	res := v.Get(path...)
	if !res.Exists() {
		return fmt.Errorf("no value at path %q", strings.Join(path, "."))
	}
	os.Stdout.Write(render(res, pretty, raw))
	os.Stdout.Write([]byte{'\n'})
	return nil
}

// runLines NDJSON 模式: 每条记录一行输出，失败记录输出错误信封
//
// 并发解析导致输出顺序不保证与输入一致；信封里的 line 字段
// 标记原始行号。
func runLines(ctx context.Context, log *slog.Logger, in io.Reader, path []string, workers int, pretty, raw bool) error {
	lp, err := yakjson.NewLineParser(workers)
	if err != nil {
		return err
	}
	defer lp.Close()

	var mu sync.Mutex // stdout 串行化
	failed := 0
	err = lp.Run(ctx, in, func(line int, v *yakjson.Value, perr error) {
		mu.Lock()
		defer mu.Unlock()
		if perr == nil {
			res := v.Get(path...)
			if res.Exists() {
				os.Stdout.Write(render(res, pretty, raw))
				os.Stdout.Write([]byte{'\n'})
				return
			}
			perr = fmt.Errorf("no value at path %q", strings.Join(path, "."))
		}
		failed++
		writeErrEnvelope(line, perr)
	})
	if err != nil {
		return err
	}

	st := lp.Stats()
	log.Debug("done", "lines", st.Lines, "bytes", st.Bytes, "failures", st.Failures)
	if failed > 0 {
		return fmt.Errorf("%d of %d records failed", failed, st.Lines)
	}
	return nil
}

// writeErrEnvelope 输出 {"line":N,"offset":M,"error":"..."} 形式的错误记录
func writeErrEnvelope(line int, err error) {
	w := yakjson.AcquireWriter()
	w.Object(func(w *yakjson.Writer) {
		w.FieldInt("line", line)
		var perr *yakjson.ParseError
		if errors.As(err, &perr) {
			w.FieldInt("offset", perr.Offset)
		}
		w.Field("error", err.Error())
	})
	os.Stdout.Write(w.Bytes())
	os.Stdout.Write([]byte{'\n'})
	yakjson.ReleaseWriter(w)
}

// render 选定值的输出形态
func render(v *yakjson.Value, pretty, raw bool) []byte {
	if raw {
		if s, ok := v.Unquote(); ok {
			return []byte(s)
		}
	}
	if pretty {
		return v.AppendPretty(nil, "  ")
	}
	return v.MarshalTo(nil)
}

// lineCol 从字节偏移推导 1 起算的行列号（错误契约只带偏移，行列由调用方算）
func lineCol(src string, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
