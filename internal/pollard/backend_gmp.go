//go:build gmp

// This file provides a GMP-based backend, conditionally compiled with the
// "gmp" build tag. Building with -tags=gmp requires libgmp:
//   - Linux: sudo apt-get install libgmp-dev (Debian/Ubuntu)
//   - macOS: brew install gmp

package pollard

import (
	"context"
	"math/big"

	"github.com/ncw/gmp"

	"github.com/agbru/pm1factor/internal/primes"
)

// GMPName is the registry name of the GMP backend.
const GMPName = "gmp"

func init() {
	RegisterBackend(GMPName, func(Options) Backend { return NewGMPBackend() })
}

// GMPBackend runs the sequential schedule with libgmp arithmetic. The
// exponent is still assembled with math/big and converted once per bound.
type GMPBackend struct {
	holder tableHolder
}

// NewGMPBackend creates an uninitialized GMP backend.
func NewGMPBackend() *GMPBackend {
	return &GMPBackend{}
}

func (b *GMPBackend) Name() string { return GMPName }

func (b *GMPBackend) Description() string {
	return "libgmp on 1 core"
}

func (b *GMPBackend) Initialize(table primes.Table) error {
	return b.holder.load(table)
}

func (b *GMPBackend) Shutdown() error {
	b.holder.close()
	return nil
}

func (b *GMPBackend) Attempt(ctx context.Context, req AttemptRequest) (AttemptResult, error) {
	table, err := b.holder.current()
	if err != nil {
		return AttemptResult{}, err
	}
	if err := validateRequest(req, table); err != nil {
		return AttemptResult{}, err
	}
	ar := &gmpArithmetic{
		table: table,
		nBig:  req.N,
		n:     new(gmp.Int).SetBytes(req.N.Bytes()),
		a:     new(gmp.Int),
		b:     new(gmp.Int),
		d:     new(gmp.Int),
		one:   gmp.NewInt(1),
	}
	return runSchedule[*gmp.Int](ctx, GMPName, req, ar)
}

// gmpArithmetic reuses its temporaries across probes; it is not safe for
// concurrent use.
type gmpArithmetic struct {
	table   primes.Table
	nBig    *big.Int
	n       *gmp.Int
	a, b, d *gmp.Int
	one     *gmp.Int
}

func (g *gmpArithmetic) exponent(bound uint64) *gmp.Int {
	return new(gmp.Int).SetBytes(BuildExponent(g.table, bound).Bytes())
}

func (g *gmpArithmetic) probe(base uint64, e *gmp.Int) outcome {
	g.a.SetUint64(base)
	g.d.GCD(nil, nil, g.a, g.n)
	if g.d.Cmp(g.one) > 0 {
		return outcome{kind: outcomeFound, factor: toBig(g.d)}
	}

	g.b.Exp(g.a, e, g.n)
	g.b.Sub(g.b, g.one)
	if g.b.Sign() < 0 {
		// a^E was 0 mod n, so gcd(-1, n) = 1
		return outcome{kind: outcomeTrivial}
	}
	g.d.GCD(nil, nil, g.b, g.n)
	return classify(toBig(g.d), g.nBig, new(big.Int).SetUint64(base))
}

func toBig(x *gmp.Int) *big.Int {
	return new(big.Int).SetBytes(x.Bytes())
}
