package pollard

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/primes"
)

func smallTable(t testing.TB, count int) primes.Table {
	t.Helper()
	table, err := primes.Generate(context.Background(), count)
	if err != nil {
		t.Fatalf("primes.Generate(%d): %v", count, err)
	}
	return table
}

func TestBuildExponentKnownValues(t *testing.T) {
	t.Parallel()
	table := smallTable(t, 100)
	tests := []struct {
		bound uint64
		want  int64
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 12},
		{10, 2520},
		{30, 2329089562800},
	}
	for _, tt := range tests {
		got := BuildExponent(table, tt.bound)
		if got.Cmp(big.NewInt(tt.want)) != 0 {
			t.Errorf("BuildExponent(%d) = %s, want %d", tt.bound, got, tt.want)
		}
	}
}

func TestBuildExponentStopsAtBoundPrime(t *testing.T) {
	t.Parallel()
	// 11 is not below the bound, so the table may end there.
	got := BuildExponent(primes.Table{2, 3, 5, 7, 11}, 11)
	if got.Cmp(big.NewInt(2520)) != 0 {
		t.Errorf("BuildExponent(11) = %s, want 2520", got)
	}
}

func TestBuildExponentPanicsPastTable(t *testing.T) {
	t.Parallel()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for a bound beyond the table")
		}
		err, ok := r.(error)
		var pe apperrors.PreconditionError
		if !ok || !errors.As(err, &pe) {
			t.Fatalf("expected PreconditionError, got %v", r)
		}
	}()
	BuildExponent(primes.Table{2, 3, 5}, 10)
}

func TestBuildExponentManyWords(t *testing.T) {
	t.Parallel()
	table := smallTable(t, 2000)
	e := BuildExponent(table, 5000)
	// Every prime below the bound divides E, and 4099 (prime) does exactly once.
	r := new(big.Int)
	for _, p := range table {
		if p >= 5000 {
			break
		}
		if r.Mod(e, big.NewInt(int64(p))).Sign() != 0 {
			t.Fatalf("prime %d does not divide E", p)
		}
	}
	p2 := big.NewInt(4099 * 4099)
	if r.Mod(e, p2).Sign() == 0 {
		t.Error("4099^2 should not divide E(5000)")
	}
}

// TestBuildExponentIsLCM checks E(B) = lcm(1..B), excluding B itself when B is prime.
func TestBuildExponentIsLCM(t *testing.T) {
	t.Parallel()
	table := smallTable(t, 1000)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("exponent equals the lcm of 1..B", prop.ForAll(
		func(bound uint64) bool {
			lcm := big.NewInt(1)
			g := new(big.Int)
			for k := uint64(2); k <= bound; k++ {
				kb := new(big.Int).SetUint64(k)
				g.GCD(nil, nil, lcm, kb)
				lcm.Mul(lcm, kb.Div(kb, g))
			}
			if bound >= 2 && new(big.Int).SetUint64(bound).ProbablyPrime(20) {
				lcm.Div(lcm, new(big.Int).SetUint64(bound))
			}
			return BuildExponent(table, bound).Cmp(lcm) == 0
		},
		gen.UInt64Range(0, 3000),
	))

	properties.TestingRun(t)
}
