package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

type Bar interface {
	Add(int) error
	Close() error
}

type ProgressBar struct {
	*progressbar.ProgressBar
}

// NewBarTo returns a bar for max steps writing to w. A negative max renders
// a spinner with a running count, for sequences of unknown length.
func NewBarTo(w io.Writer, max int, description string, opts ...progressbar.Option) *ProgressBar {
	defaults := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	}

	return &ProgressBar{
		ProgressBar: progressbar.NewOptions(max, append(defaults, opts...)...),
	}
}

type NoopBar struct{}

func (NoopBar) Add(int) error { return nil }
func (NoopBar) Close() error  { return nil }
