// Package service exposes factorization as a request/response service for
// the HTTP server.
package service

//go:generate mockgen -source=factor_service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/agbru/pm1factor/internal/orchestration"
)

var (
	// ErrInputTooLarge is returned when n exceeds the configured bit length.
	ErrInputTooLarge = errors.New("input exceeds the maximum bit length")
)

// Service defines the factorization service consumed by the HTTP layer.
type Service interface {
	// Factorize decomposes n. maxFactor, when non-nil, stops the search once a
	// factor at least that large is found. Search failures return the partial
	// result together with the error.
	Factorize(ctx context.Context, n, maxFactor *big.Int) (orchestration.Result, error)

	// BackendName returns the name of the backend running the attempts.
	BackendName() string
}

// FactorService runs factorizations on a single orchestrator. Backends run
// one task at a time, so concurrent calls are serialized.
type FactorService struct {
	mu      sync.Mutex
	orch    *orchestration.Orchestrator
	maxBits int
}

var _ Service = (*FactorService)(nil)

// NewFactorService creates a service over an orchestrator whose backend is
// initialized. maxBits limits the size of n; 0 means no limit.
func NewFactorService(orch *orchestration.Orchestrator, maxBits int) *FactorService {
	return &FactorService{orch: orch, maxBits: maxBits}
}

func (s *FactorService) Factorize(ctx context.Context, n, maxFactor *big.Int) (orchestration.Result, error) {
	if n != nil && s.maxBits > 0 && n.BitLen() > s.maxBits {
		return orchestration.Result{}, ErrInputTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return orchestration.Result{}, err
	}
	return s.orch.Factorize(ctx, orchestration.Request{N: n, MaxFactor: maxFactor})
}

func (s *FactorService) BackendName() string {
	return s.orch.Backend().Name()
}
