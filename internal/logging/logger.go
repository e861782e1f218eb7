// Package logging 基于 log/slog 的日志初始化，日志记录自动附带运行 ID
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Options 日志选项
type Options struct {
	Level    string // debug / info / warn / error
	Format   string // json / text
	Output   string // stdout / stderr / file / both
	FilePath string // Output 为 file 或 both 时的日志文件
}

// DefaultOptions 默认选项: info 级别，文本格式，输出到 stderr
func DefaultOptions() Options {
	return Options{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}
}

type contextKey string

const runIDKey contextKey = "run_id"

// New 按选项创建日志器，返回的 closer 负责关闭日志文件
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var (
		output io.Writer
		closer io.Closer = nopCloser{}
	)

	switch strings.ToLower(opts.Output) {
	case "", "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	case "file", "both":
		file, err := openLogFile(opts.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		closer = file
		output = file
		if strings.EqualFold(opts.Output, "both") {
			output = io.MultiWriter(os.Stderr, file)
		}
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", opts.Output)
	}

	handler, err := newHandler(output, opts)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return slog.New(handler), closer, nil
}

// NewWithWriter 输出到指定 writer，主要用于测试
func NewWithWriter(w io.Writer, opts Options) (*slog.Logger, error) {
	handler, err := newHandler(w, opts)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

func newHandler(w io.Writer, opts Options) (slog.Handler, error) {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	return &runIDHandler{Handler: handler}, nil
}

// runIDHandler 从 context 中取出运行 ID 并写入日志记录
type runIDHandler struct {
	slog.Handler
}

func (h *runIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RunID(ctx); id != "" {
		r.AddAttrs(slog.String(string(runIDKey), id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *runIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runIDHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *runIDHandler) WithGroup(name string) slog.Handler {
	return &runIDHandler{Handler: h.Handler.WithGroup(name)}
}

// ParseLevel 解析日志级别，无法识别时返回 info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewRunID 生成运行 ID
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID 将运行 ID 写入 context
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunID 读取 context 中的运行 ID
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
