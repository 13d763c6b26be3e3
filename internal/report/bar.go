package report

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/pipeline"
)

// Bar draws a terminal progress bar over the jobs of a run. The bar is
// created when the first job finishes, since the total is known only then.
type Bar struct {
	w        io.Writer
	color    bool
	throttle time.Duration

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewBar returns a Bar that renders to w (normally stderr).
func NewBar(w io.Writer, color bool) *Bar {
	return &Bar{w: w, color: color, throttle: 100 * time.Millisecond}
}

// Emit implements pipeline.Sink.
func (b *Bar) Emit(e pipeline.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch e.Type {
	case pipeline.EventTypeProgress:
		if b.bar == nil {
			b.bar = b.newBar(e.Total)
		}
		b.bar.Describe(e.RelPath)
		_ = b.bar.Add(1)
	case pipeline.EventTypeSummary:
		if b.bar != nil {
			_ = b.bar.Finish()
			b.bar = nil
		}
	}
}

// Clear erases the bar so a log line can be written; the next update redraws it.
func (b *Bar) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		_ = b.bar.Clear()
	}
}

func (b *Bar) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionEnableColorCodes(b.color),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(b.throttle),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
