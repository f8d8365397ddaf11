package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

type Bar struct {
	*progressbar.ProgressBar
}

func NewBar(max int64, description string) *Bar {
	return NewBarTo(os.Stderr, max, description)
}

// NewBarTo renders the bar on w.
func NewBarTo(w io.Writer, max int64, description string) *Bar {
	bar := progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)

	return &Bar{ProgressBar: bar}
}

// Increment is safe on a nil bar so callers can leave progress disabled.
func (b *Bar) Increment() {
	if b == nil || b.ProgressBar == nil {
		return
	}
	b.Add(1)
}

// Describe replaces the text shown next to the bar.
func (b *Bar) Describe(description string) {
	if b == nil || b.ProgressBar == nil {
		return
	}
	b.ProgressBar.Describe(description)
}

func (b *Bar) Finish() {
	if b == nil || b.ProgressBar == nil {
		return
	}
	b.ProgressBar.Finish()
}
