package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgBlue, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// Console is the user-facing output surface: leveled lines through slog plus
// the interactive helpers (spinner, progress bar, table, timer). All leveled
// output goes to the configured writer, stderr by default.
type Console struct {
	Logger    *slog.Logger
	Colorized bool
	IsTTY     bool

	out io.Writer
}

func NewConsole(opts *RichLoggerOptions) *Console {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	return &Console{
		Logger:    NewRichLogger(opts),
		Colorized: opts.EnableColors,
		IsTTY:     writerIsTerminal(opts.Output),
		out:       opts.Output,
	}
}

func (c *Console) StartTimer(name string) *Timer {
	return &Timer{
		Name:      name,
		StartTime: time.Now(),
		Console:   c,
	}
}

func (c *Console) Success(format string, args ...interface{}) {
	c.Logger.Info(c.colorize(successColor, "✓ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Info(format string, args ...interface{}) {
	c.Logger.Info(c.colorize(infoColor, "ℹ "+fmt.Sprintf(format, args...)))
}

// Log prints the message without glyph or color decoration. Per-file
// conversion lines use it so their format stays machine-greppable.
func (c *Console) Log(format string, args ...interface{}) {
	c.Logger.Info(fmt.Sprintf(format, args...))
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.Logger.Warn(c.colorize(warnColor, "⚠ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Error(format string, args ...interface{}) {
	c.Logger.Error(c.colorize(errorColor, "✖ "+fmt.Sprintf(format, args...)))
}

func (c *Console) colorize(col *color.Color, msg string) string {
	if !c.Colorized {
		return msg
	}
	return col.Sprint(msg)
}

func (c *Console) StartSpinner(message string) *Spinner {
	s := &Spinner{
		Message: message,
		Frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		Console: c,
		done:    make(chan struct{}),
	}

	s.start()
	return s
}

func (c *Console) NewProgressBar(total int64, label string) *ProgressBar {
	return newProgressBar(total, label, c.IsTTY, c.out)
}

// Box draws a single-line border around a titled block of text.
func (c *Console) Box(title string, content string) {
	lines := strings.Split(content, "\n")
	maxWidth := len(title)

	for _, line := range lines {
		if len(line) > maxWidth {
			maxWidth = len(line)
		}
	}

	maxWidth += 4

	fmt.Fprintln(c.out, "┌"+"─"+title+"─"+strings.Repeat("─", maxWidth-len(title)-2)+"┐")

	for _, line := range lines {
		fmt.Fprintln(c.out, "│ "+line+strings.Repeat(" ", maxWidth-len(line))+" │")
	}

	fmt.Fprintln(c.out, "└"+strings.Repeat("─", maxWidth+2)+"┘")
}
