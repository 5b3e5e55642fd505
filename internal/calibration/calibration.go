package calibration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"runtime"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/agbru/pm1factor/internal/pollard"
	"github.com/agbru/pm1factor/internal/primes"
	"github.com/agbru/pm1factor/internal/ui"
)

// CalibrationN is the number every trial runs an attempt on. Both of its
// prime factors are safe primes, so no factor turns up below the trial
// bound and each trial runs the whole schedule.
var CalibrationN, _ = new(big.Int).SetString("100000015260000305029", 16)

const (
	// TrialBound caps the bound of a trial attempt.
	TrialBound uint64 = 1 << 16
	trialStep  uint64 = 2048
)

// ErrNoResult is returned when every trial failed.
var ErrNoResult = errors.New("calibration failed: no valid results obtained")

// Options configures a calibration run.
type Options struct {
	// ProfilePath is where the profile is saved; empty selects the default path.
	ProfilePath string
	// SaveProfile writes the best lane count to ProfilePath.
	SaveProfile bool
	// Candidates overrides the lane counts to benchmark.
	Candidates []int
	// PerTrial bounds a single trial; 0 means no limit beyond ctx.
	PerTrial time.Duration
	// Rounds is the number of timed trials per lane count; 0 selects
	// DefaultRounds. Lane counts are ranked by their median.
	Rounds int
}

// DefaultRounds is the number of trials per lane count.
const DefaultRounds = 3

// Result is the measurement of one lane count. Duration is the median
// trial and Spread the standard deviation across trials.
type Result struct {
	Lanes    int
	Duration time.Duration
	Spread   time.Duration
	Err      error
}

// calibrationRunner runs the trials on one prime table.
type calibrationRunner struct {
	ctx      context.Context
	table    primes.Table
	bound    uint64
	perTrial time.Duration
}

func newCalibrationRunner(ctx context.Context, table primes.Table, perTrial time.Duration) *calibrationRunner {
	bound := TrialBound
	if last := uint64(table.Last()) + 1; last < bound {
		bound = last
	}
	return &calibrationRunner{ctx: ctx, table: table, bound: bound, perTrial: perTrial}
}

// runTrial times one attempt on CalibrationN with the given lane count.
func (r *calibrationRunner) runTrial(lanes int) (time.Duration, error) {
	ctx := r.ctx
	if r.perTrial > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.perTrial)
		defer cancel()
	}

	backend := pollard.NewLaneBackend(lanes)
	if err := backend.Initialize(r.table); err != nil {
		return 0, err
	}
	defer func() { _ = backend.Shutdown() }()

	start := time.Now()
	_, err := backend.Attempt(ctx, pollard.AttemptRequest{
		N:          CalibrationN,
		BoundMax:   r.bound,
		BoundStart: 2,
		BoundStep:  trialStep,
	})
	return time.Since(start), err
}

// measure runs rounds trials for one lane count and summarizes them.
func (r *calibrationRunner) measure(lanes, rounds int) Result {
	samples := make([]float64, 0, rounds)
	for i := 0; i < rounds; i++ {
		d, err := r.runTrial(lanes)
		if err != nil {
			return Result{Lanes: lanes, Err: err}
		}
		samples = append(samples, d.Seconds())
	}
	median, err := stats.Median(samples)
	if err != nil {
		return Result{Lanes: lanes, Err: err}
	}
	spread, _ := stats.StandardDeviation(samples)
	return Result{
		Lanes:    lanes,
		Duration: time.Duration(median * float64(time.Second)),
		Spread:   time.Duration(spread * float64(time.Second)),
	}
}

// Run benchmarks the accelerator for each candidate lane count, prints a
// summary to out and returns the fastest lane count. A canceled context
// stops the run and returns the context error.
func Run(ctx context.Context, out io.Writer, table primes.Table, opts Options) (int, error) {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Optimal Accelerator Lane Count ---\n")

	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = GenerateLaneCandidates()
	}
	fmt.Fprintf(out, "%sTesting %d lane counts on %d CPU cores%s\n",
		ui.ColorAccent(), len(candidates), runtime.NumCPU(), ui.ColorReset())

	rounds := opts.Rounds
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	runner := newCalibrationRunner(ctx, table, opts.PerTrial)
	results := make([]Result, 0, len(candidates))
	best, bestDuration := 0, time.Duration(1<<63-1)
	start := time.Now()

	for _, lanes := range candidates {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
			return 0, err
		}
		res := runner.measure(lanes, rounds)
		if res.Err != nil && ctx.Err() != nil {
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
			return 0, ctx.Err()
		}
		results = append(results, res)
		if res.Err == nil && res.Duration < bestDuration {
			best, bestDuration = res.Lanes, res.Duration
		}
	}

	if best == 0 {
		fmt.Fprintf(out, "\n%s%v%s\n", ui.ColorRed(), ErrNoResult, ui.ColorReset())
		return 0, ErrNoResult
	}

	printCalibrationResults(out, results, best)
	fmt.Fprintf(out, "\n%sRecommendation for this machine: %s-lanes %d%s\n",
		ui.ColorGreen(), ui.ColorYellow(), best, ui.ColorReset())

	if opts.SaveProfile {
		profile := NewProfile()
		profile.OptimalLanes = best
		profile.CalibrationTime = time.Since(start).String()
		path := opts.ProfilePath
		if path == "" {
			path = GetDefaultProfilePath()
		}
		if err := profile.SaveProfile(path); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n", ui.ColorGreen(), path, ui.ColorReset())
		}
	}
	return best, nil
}
