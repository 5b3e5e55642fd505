// Package cli renders factorization batches for the terminal, either as the
// classic human-readable transcript or as a single JSON document.
package cli

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/agbru/pm1factor/internal/orchestration"
	"github.com/agbru/pm1factor/internal/ui"
)

const (
	batchSeparator = "<----------------------------------->"
	inputSeparator = "---------"
	timestampFmt   = "2006-01-02 15:04:05.000"
)

// TextReporter prints the human-readable transcript of a batch run. Failures
// that produced no factor at all go to errOut.
type TextReporter struct {
	out      io.Writer
	errOut   io.Writer
	quiet    bool
	progress *ProgressDisplay
	now      func() time.Time
}

// TextOption configures a TextReporter.
type TextOption func(*TextReporter)

// WithQuiet reduces the transcript to one line per input.
func WithQuiet(quiet bool) TextOption {
	return func(r *TextReporter) { r.quiet = quiet }
}

// WithProgressDisplay shows a spinner for the duration of each attempt.
func WithProgressDisplay(d *ProgressDisplay) TextOption {
	return func(r *TextReporter) { r.progress = d }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) TextOption {
	return func(r *TextReporter) { r.now = now }
}

// NewTextReporter creates a reporter writing to out and errOut.
func NewTextReporter(out, errOut io.Writer, opts ...TextOption) *TextReporter {
	r := &TextReporter{out: out, errOut: errOut, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TextReporter) InputStarted(in orchestration.Input, at time.Time) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "\n%s%s%s\n", ui.ColorMuted(), batchSeparator, ui.ColorReset())
	r.timestamp(at)
	fmt.Fprintf(r.out, "Factoring %s0x%s%s", ui.ColorAccent(), trimHexPrefix(in.Raw), ui.ColorReset())
	if in.MinusOne {
		fmt.Fprint(r.out, " minus one")
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, inputSeparator)
}

func (r *TextReporter) Event(ev orchestration.Event) {
	r.progress.Stop()
	if r.quiet {
		return
	}
	switch ev.Kind {
	case orchestration.EventPowerOfTwo:
		fmt.Fprintf(r.out, "Removed power of two: 0x2 ^ %d\n", ev.Multiplicity)
	case orchestration.EventInputPrime:
		fmt.Fprintf(r.out, "%sInput is prime!%s\n", ui.ColorGreen(), ui.ColorReset())
	case orchestration.EventSubFactoring:
		fmt.Fprintf(r.out, "Sub-factoring %s\n", hex(ev.Residual))
		r.progress.Start()
	case orchestration.EventFactorChecked:
		fmt.Fprintf(r.out, "Single factor computed in %s s: %s", seconds(ev.Elapsed), hex(ev.Factor))
		if ev.Multiplicity > 0 {
			fmt.Fprintf(r.out, " - %scorrect%s\n", ui.ColorGreen(), ui.ColorReset())
		} else {
			fmt.Fprintf(r.out, " - %sincorrect!%s\n", ui.ColorRed(), ui.ColorReset())
		}
	case orchestration.EventAllFactors:
		fmt.Fprintf(r.out, "%sAll factors found!%s\n", ui.ColorGreen(), ui.ColorReset())
	case orchestration.EventQuotientPrime:
		fmt.Fprintf(r.out, "%sQuotient is prime!%s\n", ui.ColorGreen(), ui.ColorReset())
	case orchestration.EventMaxFactorReached:
		fmt.Fprintf(r.out, "%sFound all factors of required size!%s\n", ui.ColorGreen(), ui.ColorReset())
	}
}

func (r *TextReporter) InputFinished(in orchestration.Input, res orchestration.Result, err error) {
	r.progress.Stop()
	if r.quiet {
		fmt.Fprintf(r.out, "0x%s: %s\n", trimHexPrefix(in.Raw), quietFactors(res, err))
		return
	}

	if in.N == nil {
		fmt.Fprintf(r.errOut, "%sInvalid input: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		r.timestamp(r.now())
		return
	}

	fmt.Fprintln(r.out, inputSeparator)
	fmt.Fprintf(r.out, "Factorization computed in %s s\n", seconds(res.Duration))
	switch {
	case err != nil && len(res.Factors) == 0:
		fmt.Fprintf(r.errOut, "%sFailed to factorize: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
	case err != nil:
		fmt.Fprintf(r.out, "%sOnly partial factorization found!%s (%v)\n", ui.ColorYellow(), ui.ColorReset(), err)
	}

	if len(res.Factors) == 0 {
		fmt.Fprintln(r.out, "Factors not found!")
	} else {
		var b strings.Builder
		for _, f := range res.Factors {
			fmt.Fprintf(&b, "%s ^ %d, ", hex(f.Value), f.Multiplicity)
		}
		fmt.Fprintln(r.out, strings.TrimSuffix(b.String(), ", "))
		if res.Status == orchestration.StatusStoppedAtMaxFactor || err != nil {
			fmt.Fprintf(r.out, "Unfactored cofactor: %s\n", hex(res.Residual))
		}
	}
	r.timestamp(r.now())
}

func (r *TextReporter) BatchFinished(s orchestration.Summary) {
	r.progress.Stop()
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "\n%s%s%s\n", ui.ColorMuted(), batchSeparator, ui.ColorReset())
	fmt.Fprintf(r.out, "%sTest run completed! Success rate %d/%d%s\n", ui.ColorBold(), s.Factored, s.Attempted, ui.ColorReset())
}

func (r *TextReporter) timestamp(at time.Time) {
	fmt.Fprintf(r.out, "%sTime: %s%s\n", ui.ColorMuted(), at.Format(timestampFmt), ui.ColorReset())
}

func quietFactors(res orchestration.Result, err error) string {
	if len(res.Factors) == 0 {
		if err != nil {
			return "error: " + err.Error()
		}
		return "none"
	}
	parts := make([]string, 0, len(res.Factors))
	for _, f := range res.Factors {
		parts = append(parts, fmt.Sprintf("%s^%d", hex(f.Value), f.Multiplicity))
	}
	line := strings.Join(parts, " ")
	if err != nil || res.Status == orchestration.StatusStoppedAtMaxFactor {
		line += " (" + string(res.Status) + ")"
	}
	return line
}

// seconds formats d as whole seconds and microseconds.
func seconds(d time.Duration) string {
	us := d.Microseconds()
	return fmt.Sprintf("%d.%06d", us/1_000_000, us%1_000_000)
}

func hex(x *big.Int) string {
	if x == nil {
		return "<nil>"
	}
	return "0x" + x.Text(16)
}

func trimHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
}
