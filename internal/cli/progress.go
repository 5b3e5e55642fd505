package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/pm1factor/internal/pollard"
)

const (
	// ProgressRefreshRate is the spinner animation interval.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width in characters of the bound progress bar.
	ProgressBarWidth = 30
)

// Spinner abstracts the terminal spinner so the display can be tested.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressDisplay shows the bound of the running attempt next to a spinner.
// It implements pollard.ProgressObserver; Start and Stop bracket one attempt.
type ProgressDisplay struct {
	mu      sync.Mutex
	s       Spinner
	running bool
}

// NewProgressDisplay creates a display rendering to out.
func NewProgressDisplay(out io.Writer) *ProgressDisplay {
	return &ProgressDisplay{s: newSpinner(spinner.WithWriter(out))}
}

// Start shows the spinner. Calling Start on a running display is a no-op.
func (d *ProgressDisplay) Start() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.s.UpdateSuffix("")
	d.s.Start()
	d.running = true
}

// Stop clears the spinner line so regular output can be written.
func (d *ProgressDisplay) Stop() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.s.Stop()
	d.running = false
}

// Update implements pollard.ProgressObserver.
func (d *ProgressDisplay) Update(p pollard.AttemptProgress) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.s.UpdateSuffix(formatProgress(p))
}

func formatProgress(p pollard.AttemptProgress) string {
	f := p.Fraction()
	return fmt.Sprintf(" bound %d/%d [%s] %5.1f%% base %d", p.Bound, p.BoundMax, progressBar(f, ProgressBarWidth), f*100, p.Base)
}

// progressBar renders progress in [0, 1] as a bar of length runes.
func progressBar(progress float64, length int) string {
	if progress > 1.0 {
		progress = 1.0
	}
	if progress < 0.0 {
		progress = 0.0
	}
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}
