package pollard

import "math/big"

const (
	// maxRetries is the number of extra bases probed at one bound before the
	// bound is escalated even though no probe saturated.
	maxRetries = 1

	// escalationFactor scales the bound step on every escalation.
	escalationFactor = 1

	// firstBase is the base every attempt starts from.
	firstBase = 2
)

type outcomeKind int

const (
	// outcomeTrivial: gcd(a^E - 1, n) == 1, the bound is too small for any factor.
	outcomeTrivial outcomeKind = iota
	// outcomeSaturated: gcd(a^E - 1, n) == n, every factor was captured at once.
	outcomeSaturated
	// outcomeFound: a nontrivial divisor of n.
	outcomeFound
)

// outcome is the result of one probe of (base, bound) against n.
type outcome struct {
	kind   outcomeKind
	factor *big.Int
	// nextBaseBelowN is base+1 < n, which decides whether a saturated probe
	// may escalate the bound or must end the attempt.
	nextBaseBelowN bool
}

// schedule is the bound/base state machine of an attempt. Every backend
// drives the same schedule, so every backend visits the same (base, bound)
// sequence for a given request.
type schedule struct {
	base      uint64
	bound     uint64
	iteration int
	boundMax  uint64
	step      uint64
}

func newSchedule(req AttemptRequest) schedule {
	return schedule{
		base:     firstBase,
		bound:    req.BoundStart,
		boundMax: req.BoundMax,
		step:     req.BoundStep,
	}
}

// active reports whether the schedule still has a probe to run.
func (s *schedule) active() bool {
	return s.bound < s.boundMax
}

// apply advances the schedule past a probe that did not find a factor.
// It returns false when the attempt must stop without one.
func (s *schedule) apply(o outcome) bool {
	switch {
	case (o.kind == outcomeSaturated && o.nextBaseBelowN) || s.iteration > maxRetries:
		s.bound += s.step * escalationFactor
		s.iteration = 0
	case o.kind == outcomeTrivial:
		s.base++
	default:
		return false
	}
	s.iteration++
	return true
}

// predicted returns the state that follows s when the probe at s is trivial,
// which is by far the common case while the bound is still too small.
func (s schedule) predicted() schedule {
	s.apply(outcome{kind: outcomeTrivial})
	return s
}

// probe evaluates one (base, bound) pair: first gcd(base, n), then
// gcd(base^e - 1 mod n, n) where e is the exponent for the bound.
func probe(n *big.Int, base uint64, e *big.Int) outcome {
	a := new(big.Int).SetUint64(base)
	d := new(big.Int).GCD(nil, nil, a, n)
	if d.Cmp(bigOne) > 0 {
		return outcome{kind: outcomeFound, factor: d}
	}

	b := new(big.Int).Exp(a, e, n)
	b.Sub(b, bigOne)
	d.GCD(nil, nil, b, n)
	return classify(d, n, a)
}

// classify turns gcd(a^E - 1, n) into an outcome.
func classify(d, n, a *big.Int) outcome {
	switch {
	case d.Cmp(bigOne) <= 0:
		return outcome{kind: outcomeTrivial}
	case d.Cmp(n) < 0:
		return outcome{kind: outcomeFound, factor: d}
	default:
		next := new(big.Int).Add(a, bigOne)
		return outcome{kind: outcomeSaturated, nextBaseBelowN: next.Cmp(n) < 0}
	}
}

var bigOne = big.NewInt(1)
