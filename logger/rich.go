package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var levelColors = map[slog.Level]*color.Color{
	slog.LevelDebug: color.New(color.FgCyan),
	slog.LevelInfo:  color.New(color.FgGreen),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed),
}

var timeColor = color.New(color.FgBlue)

type RichLoggerOptions struct {
	Output        io.Writer
	TimeFormat    string
	Level         slog.Level
	AddSource     bool
	EnableJSON    bool
	EnableColors  bool
	ShowTimestamp bool
	ShowLevel     bool
	CompactJSON   bool
}

// DefaultOptions targets interactive CLI use: bare messages on stderr so
// per-file progress lines keep their exact format, colors only on a TTY.
func DefaultOptions() *RichLoggerOptions {
	return &RichLoggerOptions{
		Level:        slog.LevelInfo,
		AddSource:    false,
		EnableColors: writerIsTerminal(os.Stderr),
		TimeFormat:   "2006-01-02 15:04:05.000",
		Output:       os.Stderr,
		CompactJSON:  true,
	}
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type RichHandler struct {
	opts   *RichLoggerOptions
	mu     sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func NewRichHandler(opts *RichLoggerOptions) *RichHandler {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	return &RichHandler{opts: opts}
}

func (h *RichHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

func (h *RichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	h2.attrs = append(h2.attrs, attrs...)
	return h2
}

func (h *RichHandler) WithGroup(name string) slog.Handler {
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *RichHandler) clone() *RichHandler {
	h2 := &RichHandler{
		opts:   h.opts,
		attrs:  make([]slog.Attr, len(h.attrs)),
		groups: make([]string, len(h.groups)),
	}
	copy(h2.attrs, h.attrs)
	copy(h2.groups, h.groups)
	return h2
}

func (h *RichHandler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.EnableJSON {
		return h.handleJSON(ctx, record)
	}

	return h.handleText(ctx, record)
}

func (h *RichHandler) handleJSON(_ context.Context, record slog.Record) error {
	jsonMap := make(map[string]interface{})

	jsonMap["time"] = record.Time.Format(h.opts.TimeFormat)
	jsonMap["level"] = record.Level.String()

	if h.opts.AddSource && record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		jsonMap["source"] = fmt.Sprintf("%s:%d", f.File, f.Line)
	}

	jsonMap["msg"] = record.Message

	for _, a := range h.attrs {
		jsonMap[a.Key] = a.Value.Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		jsonMap[a.Key] = a.Value.Any()
		return true
	})

	var jsonData []byte
	var err error
	if h.opts.CompactJSON {
		jsonData, err = json.Marshal(jsonMap)
	} else {
		jsonData, err = json.MarshalIndent(jsonMap, "", "  ")
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(h.opts.Output, string(jsonData))
	return err
}

func (h *RichHandler) handleText(_ context.Context, record slog.Record) error {
	var builder strings.Builder

	if h.opts.ShowTimestamp {
		builder.WriteString(h.paint(timeColor, record.Time.Format(h.opts.TimeFormat)))
		builder.WriteString(" ")
	}

	if h.opts.ShowLevel {
		levelStr := fmt.Sprintf("%-5s", strings.ToUpper(record.Level.String()))
		builder.WriteString(h.paint(levelColors[record.Level], levelStr))
		builder.WriteString(" ")
	}

	if h.opts.AddSource && record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		sourceFile := f.File
		if lastSlash := strings.LastIndex(sourceFile, "/"); lastSlash >= 0 {
			sourceFile = sourceFile[lastSlash+1:]
		}
		builder.WriteString(fmt.Sprintf("%s:%d ", sourceFile, f.Line))
	}

	builder.WriteString(record.Message)

	_, err := fmt.Fprintln(h.opts.Output, builder.String())
	return err
}

func (h *RichHandler) paint(c *color.Color, s string) string {
	if !h.opts.EnableColors || c == nil {
		return s
	}
	return c.Sprint(s)
}

func NewRichLogger(opts *RichLoggerOptions) *slog.Logger {
	if opts == nil {
		opts = DefaultOptions()
	}
	handler := NewRichHandler(opts)
	return slog.New(handler)
}
