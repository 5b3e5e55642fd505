package pollard

import (
	"context"
	"fmt"
	"math/big"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"

	"github.com/agbru/pm1factor/internal/primes"
)

// AcceleratorName is the registry name of the data-parallel backend.
const AcceleratorName = "accelerator"

// LaneBackend is the accelerator: it evaluates a window of upcoming
// (base, bound) pairs concurrently, one goroutine lane per pair. The window
// follows the path the schedule takes when every probe is trivial; outcomes
// are then replayed in schedule order, and the replay stops at the first
// factor or at the first outcome that sends the schedule off that path.
// Results are therefore identical to the sequential backend.
type LaneBackend struct {
	holder tableHolder
	lanes  int
}

// NewLaneBackend creates an accelerator with the given lane count. A count
// of zero or less selects runtime.NumCPU().
func NewLaneBackend(lanes int) *LaneBackend {
	if lanes <= 0 {
		lanes = runtime.NumCPU()
	}
	return &LaneBackend{lanes: lanes}
}

func (b *LaneBackend) Name() string { return AcceleratorName }

// Lanes returns the number of concurrent probe lanes.
func (b *LaneBackend) Lanes() int { return b.lanes }

func (b *LaneBackend) Description() string {
	var features []string
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasAVX2 {
			features = append(features, "avx2")
		}
		if cpu.X86.HasBMI2 {
			features = append(features, "bmi2")
		}
		if cpu.X86.HasADX {
			features = append(features, "adx")
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			features = append(features, "asimd")
		}
		if cpu.ARM64.HasPMULL {
			features = append(features, "pmull")
		}
	}
	desc := fmt.Sprintf("%d goroutine lanes on %d cores (%s/%s)", b.lanes, runtime.NumCPU(), runtime.GOOS, runtime.GOARCH)
	if len(features) > 0 {
		desc += " [" + strings.Join(features, ",") + "]"
	}
	return desc
}

func (b *LaneBackend) Initialize(table primes.Table) error {
	if b.lanes < 1 {
		return fmt.Errorf("lane count must be at least 1, got %d", b.lanes)
	}
	return b.holder.load(table)
}

func (b *LaneBackend) Shutdown() error {
	b.holder.close()
	return nil
}

func (b *LaneBackend) Attempt(ctx context.Context, req AttemptRequest) (AttemptResult, error) {
	table, err := b.holder.current()
	if err != nil {
		return AttemptResult{}, err
	}
	if err := validateRequest(req, table); err != nil {
		return AttemptResult{}, err
	}

	s := newSchedule(req)
	exps := make(map[uint64]*big.Int)
	probes := 0
	req.Progress.report(AcceleratorName, s)

	for s.active() {
		if err := ctx.Err(); err != nil {
			return AttemptResult{}, err
		}

		window := []schedule{s}
		for len(window) < b.lanes {
			next := window[len(window)-1].predicted()
			if !next.active() {
				break
			}
			window = append(window, next)
		}
		if err := buildExponents(ctx, table, window, exps); err != nil {
			return AttemptResult{}, err
		}

		outcomes := make([]outcome, len(window))
		g, gctx := errgroup.WithContext(ctx)
		for i := range window {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcomes[i] = probe(req.N, window[i].base, exps[window[i].bound])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return AttemptResult{}, err
		}
		probes += len(window)

		for i, o := range outcomes {
			if o.kind == outcomeFound {
				return AttemptResult{Found: true, Factor: o.factor, Bound: window[i].bound, Probes: probes}, nil
			}
			prevBound := s.bound
			if !s.apply(o) {
				return AttemptResult{Bound: s.bound, Probes: probes}, nil
			}
			if s.bound != prevBound && s.active() {
				req.Progress.report(AcceleratorName, s)
			}
			if i+1 < len(window) && s != window[i+1] {
				break
			}
		}

		for bound := range exps {
			if bound < s.bound {
				delete(exps, bound)
			}
		}
	}
	return AttemptResult{Bound: s.bound, Probes: probes}, nil
}

// buildExponents fills exps with the exponent of every bound in the window
// that is not cached yet, building them concurrently.
func buildExponents(ctx context.Context, table primes.Table, window []schedule, exps map[uint64]*big.Int) error {
	var missing []uint64
	for _, st := range window {
		if _, ok := exps[st.bound]; ok {
			continue
		}
		if len(missing) > 0 && missing[len(missing)-1] == st.bound {
			continue
		}
		missing = append(missing, st.bound)
	}
	if len(missing) == 0 {
		return nil
	}

	built := make([]*big.Int, len(missing))
	g, gctx := errgroup.WithContext(ctx)
	for i, bound := range missing {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			built[i] = BuildExponent(table, bound)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, bound := range missing {
		exps[bound] = built[i]
	}
	return nil
}
