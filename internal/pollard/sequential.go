package pollard

import (
	"context"
	"fmt"
	"runtime"

	"github.com/agbru/pm1factor/internal/primes"
)

// SequentialName is the registry name of the single-threaded backend.
const SequentialName = "sequential"

// SequentialBackend probes one (base, bound) pair at a time on the calling
// goroutine using math/big.
type SequentialBackend struct {
	holder tableHolder
}

// NewSequentialBackend creates an uninitialized sequential backend.
func NewSequentialBackend() *SequentialBackend {
	return &SequentialBackend{}
}

func (b *SequentialBackend) Name() string { return SequentialName }

func (b *SequentialBackend) Description() string {
	return fmt.Sprintf("math/big on 1 core (%s/%s)", runtime.GOOS, runtime.GOARCH)
}

func (b *SequentialBackend) Initialize(table primes.Table) error {
	return b.holder.load(table)
}

func (b *SequentialBackend) Attempt(ctx context.Context, req AttemptRequest) (AttemptResult, error) {
	table, err := b.holder.current()
	if err != nil {
		return AttemptResult{}, err
	}
	return Attempt(ctx, table, req)
}

func (b *SequentialBackend) Shutdown() error {
	b.holder.close()
	return nil
}
