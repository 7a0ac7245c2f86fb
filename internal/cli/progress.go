package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

// Progress shows a progress bar over a batch of documents.
type Progress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	failed int
}

// NewProgress creates a progress bar for total documents writing to w.
func NewProgress(w io.Writer, total int, color bool) *Progress {
	p := &Progress{writer: w}
	desc := "Filing documents..."
	saucer, head := "=", ">"
	if color {
		desc = "[cyan][bold]" + desc + "[reset]"
		saucer, head = "[green]=[reset]", "[green]>[reset]"
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(color),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        saucer,
			SaucerHead:    head,
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Observe advances the bar by one finished document.
func (p *Progress) Observe(o model.Outcome) {
	if o.Status == model.OutcomeFailed {
		p.failed++
	}
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Failed returns the number of failed documents seen so far.
func (p *Progress) Failed() int {
	return p.failed
}

// Finish completes the bar.
func (p *Progress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
