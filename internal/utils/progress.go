package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// DescExtracting labels batch extraction progress
const DescExtracting = "Extracting"

// NewProgressBar creates a progress bar writing to out. A negative total
// shows a spinner instead.
func NewProgressBar(total int, description string, out io.Writer) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	}
	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts, progressbar.OptionShowIts())
	}
	return progressbar.NewOptions(total, opts...)
}
