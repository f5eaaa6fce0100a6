package logger

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar renders batch progress on interactive terminals. When disabled
// (piped output, tests) every method is a no-op so callers never need to
// branch on TTY state themselves.
type ProgressBar struct {
	bar     *progressbar.ProgressBar
	enabled bool
}

func newProgressBar(total int64, label string, enabled bool, w io.Writer) *ProgressBar {
	if !enabled || total <= 0 {
		return &ProgressBar{}
	}

	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	return &ProgressBar{bar: bar, enabled: true}
}

// Active reports whether the bar is drawing, so callers can skip output
// that would collide with its redraw line.
func (p *ProgressBar) Active() bool {
	return p.enabled
}

func (p *ProgressBar) Increment(amount int64) {
	if !p.enabled {
		return
	}
	_ = p.bar.Add64(amount)
}

func (p *ProgressBar) Set(value int64) {
	if !p.enabled {
		return
	}
	_ = p.bar.Set64(value)
}

func (p *ProgressBar) Complete() {
	if !p.enabled {
		return
	}
	_ = p.bar.Finish()
}
