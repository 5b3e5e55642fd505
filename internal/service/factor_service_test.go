package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/agbru/pm1factor/internal/orchestration"
	"github.com/agbru/pm1factor/internal/pollard"
	"github.com/agbru/pm1factor/internal/pollard/mocks"
	"github.com/agbru/pm1factor/internal/primes"
	"github.com/agbru/pm1factor/internal/testutil"
)

func testConfig() orchestration.Config {
	return orchestration.Config{BoundMax: 4096, BoundStart: 2, BoundStep: 2048}
}

func newRealService(t *testing.T, maxBits int) *FactorService {
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
	return NewFactorService(orchestration.New(b, testConfig()), maxBits)
}

func TestFactorize(t *testing.T) {
	t.Parallel()
	svc := newRealService(t, 256)

	res, err := svc.Factorize(context.Background(), big.NewInt(1013*10007), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != orchestration.StatusComplete || len(res.Factors) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if svc.BackendName() != pollard.SequentialName {
		t.Errorf("BackendName = %s", svc.BackendName())
	}
}

func TestFactorizeMaxFactor(t *testing.T) {
	t.Parallel()
	svc := newRealService(t, 0)

	n := testutil.MustHex("0x17c9e9081d")
	res, err := svc.Factorize(context.Background(), n, big.NewInt(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != orchestration.StatusStoppedAtMaxFactor {
		t.Errorf("status = %s", res.Status)
	}
}

func TestFactorizeInputTooLarge(t *testing.T) {
	t.Parallel()
	svc := newRealService(t, 16)
	_, err := svc.Factorize(context.Background(), big.NewInt(1<<20), nil)
	if !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("expected ErrInputTooLarge, got %v", err)
	}
}

func TestFactorizeCanceled(t *testing.T) {
	t.Parallel()
	svc := newRealService(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Factorize(ctx, big.NewInt(1013*10007), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFactorizeSerializesCalls(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)

	var inFlight, maxInFlight atomic.Int32
	backend.EXPECT().Attempt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req pollard.AttemptRequest) (pollard.AttemptResult, error) {
			cur := inFlight.Add(1)
			for {
				prev := maxInFlight.Load()
				if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return pollard.AttemptResult{Found: true, Factor: big.NewInt(1013), Bound: 2050}, nil
		}).Times(4)

	svc := NewFactorService(orchestration.New(backend, testConfig()), 0)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Factorize(context.Background(), big.NewInt(1013*10007), nil); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("attempts overlapped: %d in flight", got)
	}
}
