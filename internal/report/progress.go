// Package report renders console progress and run summaries.
package report

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/menta2k/image-cutout/internal/config"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ProgressEnabled resolves a run.progress setting for the destination w.
func ProgressEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ProgressAlways:
		return true
	case config.ProgressNever:
		return false
	default:
		return IsTerminal(w)
	}
}

// Progress draws a single progress bar on w and keeps log lines written through
// LogWriter from tearing it.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
}

// NewProgress creates a progress display on w. When enabled is false every method is a
// no-op except LogWriter, which passes writes through.
func NewProgress(w io.Writer, enabled bool) *Progress {
	return &Progress{w: w, enabled: enabled}
}

// Enabled reports whether the bar is drawn.
func (p *Progress) Enabled() bool {
	return p.enabled
}

// Start shows a bar for total items.
func (p *Progress) Start(total int) {
	if !p.enabled || total <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("processing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("img"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	_ = p.bar.RenderBlank()
}

// Advance marks one item as done.
func (p *Progress) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

// Finish removes the bar.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

// LogWriter returns a writer for log output that clears the bar before each write and
// redraws it afterwards.
func (p *Progress) LogWriter() io.Writer {
	return &logWriter{p: p}
}

type logWriter struct {
	p *Progress
}

func (lw *logWriter) Write(b []byte) (int, error) {
	lw.p.mu.Lock()
	defer lw.p.mu.Unlock()
	if lw.p.bar == nil {
		return lw.p.w.Write(b)
	}
	_ = lw.p.bar.Clear()
	n, err := lw.p.w.Write(b)
	_ = lw.p.bar.RenderBlank()
	return n, err
}
