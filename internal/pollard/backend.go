// Package pollard implements single Pollard p-1 attempts: given n and a bound
// schedule it searches for one nontrivial divisor of n. The search runs on a
// pluggable Backend; all backends visit the same (base, bound) sequence so
// they agree on every result.
package pollard

import (
	"context"
	"errors"
	"math/big"
	"sync"

	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/primes"
)

//go:generate mockgen -source=backend.go -destination=mocks/mock_backend.go -package=mocks

// ErrBackendClosed is returned by a backend used after Shutdown.
var ErrBackendClosed = errors.New("backend is shut down")

// ErrNotInitialized is returned by a backend used before Initialize.
var ErrNotInitialized = errors.New("backend is not initialized")

// AttemptRequest describes one single-factor search.
type AttemptRequest struct {
	// N is the number to split; it must be greater than 1.
	N *big.Int
	// BoundMax is the exclusive ceiling on the smoothness bound.
	BoundMax uint64
	// BoundStart is the first smoothness bound tried.
	BoundStart uint64
	// BoundStep is added to the bound on every escalation.
	BoundStep uint64
	// Progress, when set, is called each time the attempt moves to a new bound.
	Progress ProgressReporter
}

// AttemptResult is the outcome of an attempt. Found is false when the bound
// reached BoundMax, or when every factor collapsed together at a base too
// large to continue.
type AttemptResult struct {
	Found bool
	// Factor is a nontrivial divisor of N, not necessarily prime. Nil when !Found.
	Factor *big.Int
	// Bound is the smoothness bound in effect when the attempt stopped.
	Bound uint64
	// Probes counts the (base, bound) evaluations performed.
	Probes int
}

// AttemptProgress is the payload delivered to a ProgressReporter.
type AttemptProgress struct {
	Backend  string
	Base     uint64
	Bound    uint64
	BoundMax uint64
}

// Fraction returns how far the bound has advanced toward BoundMax, in [0, 1].
func (p AttemptProgress) Fraction() float64 {
	if p.BoundMax == 0 || p.Bound >= p.BoundMax {
		return 1
	}
	return float64(p.Bound) / float64(p.BoundMax)
}

// ProgressReporter receives attempt progress updates.
type ProgressReporter func(AttemptProgress)

// Backend runs attempts. The lifecycle is Initialize, any number of
// Attempt calls, then Shutdown; Attempt after Shutdown returns
// ErrBackendClosed. Attempt only fails for an invalid request or a
// canceled context.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string
	// Description returns a human-readable description of the compute device.
	Description() string
	// Initialize takes a copy of the prime table and prepares the device.
	Initialize(table primes.Table) error
	// Attempt runs one single-factor search.
	Attempt(ctx context.Context, req AttemptRequest) (AttemptResult, error)
	// Shutdown releases the device. It is safe to call more than once.
	Shutdown() error
}

// tableHolder carries the lifecycle state shared by the backends.
type tableHolder struct {
	mu     sync.RWMutex
	table  primes.Table
	closed bool
}

func (h *tableHolder) load(table primes.Table) error {
	if table.Len() == 0 {
		return primes.ErrEmptyTable
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrBackendClosed
	}
	h.table = table.Clone()
	return nil
}

func (h *tableHolder) current() (primes.Table, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	switch {
	case h.closed:
		return nil, ErrBackendClosed
	case h.table == nil:
		return nil, ErrNotInitialized
	}
	return h.table, nil
}

func (h *tableHolder) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.table = nil
}

// validateRequest rejects requests no schedule can serve with the table.
func validateRequest(req AttemptRequest, table primes.Table) error {
	switch {
	case req.N == nil || req.N.Cmp(bigOne) <= 0:
		return apperrors.NewValidationError("n", "must be greater than 1", req.N)
	case req.BoundStep == 0:
		return apperrors.NewValidationError("bound_step", "must be positive", req.BoundStep)
	case req.BoundMax > 0 && !table.Covers(req.BoundMax-1):
		return apperrors.NewValidationError("bound_max",
			"prime table does not reach the bound ceiling", req.BoundMax)
	}
	return nil
}

func (r ProgressReporter) report(backend string, s schedule) {
	if r == nil {
		return
	}
	r(AttemptProgress{Backend: backend, Base: s.base, Bound: s.bound, BoundMax: s.boundMax})
}
