package pollard

import (
	"context"
	"math/big"

	"github.com/agbru/pm1factor/internal/primes"
)

// arithmetic abstracts the big-number type an engine computes with. E is
// the representation of the exponent for one bound.
type arithmetic[E any] interface {
	exponent(bound uint64) E
	probe(base uint64, e E) outcome
}

// runSchedule drives the schedule one probe at a time. The exponent is
// rebuilt only when the bound changes.
func runSchedule[E any](ctx context.Context, name string, req AttemptRequest, ar arithmetic[E]) (AttemptResult, error) {
	s := newSchedule(req)
	var (
		e      E
		eBound uint64
		ready  bool
		probes int
	)
	for s.active() {
		if err := ctx.Err(); err != nil {
			return AttemptResult{}, err
		}
		if !ready || eBound != s.bound {
			e, eBound, ready = ar.exponent(s.bound), s.bound, true
			req.Progress.report(name, s)
		}
		o := ar.probe(s.base, e)
		probes++
		if o.kind == outcomeFound {
			return AttemptResult{Found: true, Factor: o.factor, Bound: s.bound, Probes: probes}, nil
		}
		if !s.apply(o) {
			break
		}
	}
	return AttemptResult{Bound: s.bound, Probes: probes}, nil
}

// bigArithmetic computes with math/big.
type bigArithmetic struct {
	n     *big.Int
	table primes.Table
}

func (b bigArithmetic) exponent(bound uint64) *big.Int {
	return BuildExponent(b.table, bound)
}

func (b bigArithmetic) probe(base uint64, e *big.Int) outcome {
	return probe(b.n, base, e)
}

// Attempt runs one sequential single-factor search over table with math/big
// arithmetic. It is the reference behavior every backend reproduces.
func Attempt(ctx context.Context, table primes.Table, req AttemptRequest) (AttemptResult, error) {
	if err := validateRequest(req, table); err != nil {
		return AttemptResult{}, err
	}
	return runSchedule[*big.Int](ctx, SequentialName, req, bigArithmetic{n: req.N, table: table})
}
