package cli

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/orchestration"
	"github.com/agbru/pm1factor/internal/pollard"
	"github.com/agbru/pm1factor/internal/primes"
	"github.com/agbru/pm1factor/internal/testutil"
)

var fixedTime = time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

func fixedClock() time.Time { return fixedTime }

func newBatchOrchestrator(t *testing.T) *orchestration.Orchestrator {
	t.Helper()
	table, err := primes.Generate(context.Background(), 1000)
	if err != nil {
		t.Fatal(err)
	}
	b := pollard.NewSequentialBackend()
	if err := b.Initialize(table); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = b.Shutdown() })
	return orchestration.New(b, orchestration.Config{BoundMax: 4096, BoundStart: 2, BoundStep: 2048})
}

func TestTextReporterTranscript(t *testing.T) {
	t.Parallel()
	var out, errOut bytes.Buffer
	r := NewTextReporter(&out, &errOut, WithClock(fixedClock))

	in := orchestration.Input{Raw: "0x9aae03", N: big.NewInt(1013 * 10007)}
	r.InputStarted(in, fixedTime)
	r.Event(orchestration.Event{Kind: orchestration.EventSubFactoring, Residual: in.N})
	r.Event(orchestration.Event{Kind: orchestration.EventFactorChecked, Factor: big.NewInt(1013), Multiplicity: 1, Elapsed: 1234567 * time.Microsecond})
	r.Event(orchestration.Event{Kind: orchestration.EventQuotientPrime, Residual: big.NewInt(10007)})
	r.InputFinished(in, orchestration.Result{
		Factors:  []orchestration.Factor{{Value: big.NewInt(1013), Multiplicity: 1}, {Value: big.NewInt(10007), Multiplicity: 1}},
		Residual: big.NewInt(1),
		Status:   orchestration.StatusComplete,
		Duration: 2 * time.Second,
	}, nil)
	r.BatchFinished(orchestration.Summary{Attempted: 1, Factored: 1})

	want := `
<----------------------------------->
Time: 2026-03-04 05:06:07.890
Factoring 0x9aae03
---------
Sub-factoring 0x9aae03
Single factor computed in 1.234567 s: 0x3f5 - correct
Quotient is prime!
---------
Factorization computed in 2.000000 s
0x3f5 ^ 1, 0x2717 ^ 1
Time: 2026-03-04 05:06:07.890

<----------------------------------->
Test run completed! Success rate 1/1
`
	if got := testutil.StripAnsiCodes(out.String()); got != want {
		t.Errorf("transcript mismatch.\ngot:\n%q\nwant:\n%q", got, want)
	}
	if errOut.Len() != 0 {
		t.Errorf("unexpected error output %q", errOut.String())
	}
}

func TestTextReporterEventLines(t *testing.T) {
	t.Parallel()
	tests := []struct {
		ev   orchestration.Event
		want string
	}{
		{orchestration.Event{Kind: orchestration.EventPowerOfTwo, Multiplicity: 5}, "Removed power of two: 0x2 ^ 5\n"},
		{orchestration.Event{Kind: orchestration.EventInputPrime}, "Input is prime!\n"},
		{orchestration.Event{Kind: orchestration.EventAllFactors}, "All factors found!\n"},
		{orchestration.Event{Kind: orchestration.EventMaxFactorReached}, "Found all factors of required size!\n"},
		{orchestration.Event{Kind: orchestration.EventFactorChecked, Factor: big.NewInt(11)}, "Single factor computed in 0.000000 s: 0xb - incorrect!\n"},
		{orchestration.Event{Kind: orchestration.EventFactorRejected}, ""},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		NewTextReporter(&out, &out).Event(tt.ev)
		if got := testutil.StripAnsiCodes(out.String()); got != tt.want {
			t.Errorf("event %d: got %q, want %q", tt.ev.Kind, got, tt.want)
		}
	}
}

func TestTextReporterFailures(t *testing.T) {
	t.Parallel()

	t.Run("no factor", func(t *testing.T) {
		t.Parallel()
		var out, errOut bytes.Buffer
		r := NewTextReporter(&out, &errOut, WithClock(fixedClock))
		in := orchestration.Input{Raw: "abc", N: big.NewInt(0xabc)}
		r.InputFinished(in, orchestration.Result{Status: orchestration.StatusNotFound}, apperrors.ErrSearchExhausted)
		if !strings.Contains(out.String(), "Factors not found!") {
			t.Errorf("missing not-found line in %q", out.String())
		}
		if !strings.Contains(errOut.String(), "Failed to factorize") {
			t.Errorf("missing failure line in %q", errOut.String())
		}
	})

	t.Run("partial", func(t *testing.T) {
		t.Parallel()
		var out, errOut bytes.Buffer
		r := NewTextReporter(&out, &errOut, WithClock(fixedClock))
		in := orchestration.Input{Raw: "abc", N: big.NewInt(30)}
		r.InputFinished(in, orchestration.Result{
			Factors:  []orchestration.Factor{{Value: big.NewInt(2), Multiplicity: 1}},
			Residual: big.NewInt(15),
			Status:   orchestration.StatusPartial,
		}, apperrors.ErrSearchExhausted)
		got := testutil.StripAnsiCodes(out.String())
		for _, want := range []string{"Only partial factorization found!", "0x2 ^ 1\n", "Unfactored cofactor: 0xf"} {
			if !strings.Contains(got, want) {
				t.Errorf("missing %q in %q", want, got)
			}
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		var out, errOut bytes.Buffer
		r := NewTextReporter(&out, &errOut, WithClock(fixedClock))
		r.InputFinished(orchestration.Input{Raw: "zz"}, orchestration.Result{}, errors.New("bad hex"))
		if !strings.Contains(errOut.String(), "Invalid input: bad hex") {
			t.Errorf("got %q", errOut.String())
		}
	})
}

func TestTextReporterQuiet(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	r := NewTextReporter(&out, &out, WithQuiet(true))
	o := newBatchOrchestrator(t)

	_, err := orchestration.RunBatch(context.Background(), o, []string{"9aae03", "0x1"}, orchestration.BatchOptions{}, r)
	if err != nil {
		t.Fatal(err)
	}
	want := "0x9aae03: 0x3f5^1 0x2717^1\n0x1: none\n"
	if got := out.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTextReporterRealBatch(t *testing.T) {
	t.Parallel()
	var out, errOut bytes.Buffer
	r := NewTextReporter(&out, &errOut, WithClock(fixedClock))
	o := newBatchOrchestrator(t)

	summary, err := orchestration.RunBatch(context.Background(), o, []string{"0x9aae04", "0x61"}, orchestration.BatchOptions{MinusOne: true}, r)
	if err != nil {
		t.Fatal(err)
	}
	got := testutil.StripAnsiCodes(out.String())
	for _, want := range []string{
		"Factoring 0x9aae04 minus one",
		"Sub-factoring 0x9aae03",
		": 0x3f5 - correct",
		"Quotient is prime!",
		"Input is prime!",
		"Removed power of two: 0x2 ^ 5",
		"0x2 ^ 5, 0x3 ^ 1\n",
		"Test run completed! Success rate 2/2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in transcript:\n%s", want, got)
		}
	}
	if summary.Factored != 2 {
		t.Errorf("factored = %d", summary.Factored)
	}
}

func TestSeconds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0.000000"},
		{1500 * time.Microsecond, "0.001500"},
		{61*time.Second + time.Microsecond, "61.000001"},
	}
	for _, tt := range tests {
		if got := seconds(tt.d); got != tt.want {
			t.Errorf("seconds(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}
