package primes

import (
	"context"
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// cancelCheckInterval is the number of sieve rounds between context checks.
const cancelCheckInterval = 1 << 10

// Generate returns the first count primes using an odd-only sieve of
// Eratosthenes. Bit i of the sieve stands for the odd number 2i+1.
func Generate(ctx context.Context, count int) (Table, error) {
	if count <= 0 {
		return nil, fmt.Errorf("prime count must be positive, got %d", count)
	}
	if count > MaxPrimes {
		return nil, fmt.Errorf("prime count %d exceeds maximum %d", count, MaxPrimes)
	}

	limit := sieveLimit(count)
	composite := bitset.New(uint(limit/2 + 1))
	composite.Set(0) // 1 is not prime

	for i, rounds := uint64(1), 0; ; i++ {
		p := 2*i + 1
		if p*p > limit {
			break
		}
		if rounds++; rounds%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if composite.Test(uint(i)) {
			continue
		}
		for j := (p*p - 1) / 2; j <= limit/2; j += p {
			composite.Set(uint(j))
		}
	}

	table := make(Table, 0, count)
	table = append(table, 2)
	for i := uint64(1); len(table) < count && 2*i+1 <= limit; i++ {
		if !composite.Test(uint(i)) {
			table = append(table, uint32(2*i+1))
		}
	}
	if len(table) < count {
		return nil, fmt.Errorf("sieve limit %d produced %d primes, wanted %d", limit, len(table), count)
	}
	return table, nil
}

// sieveLimit returns an odd upper bound on the count-th prime, using
// p_n < n(ln n + ln ln n) for n >= 6.
func sieveLimit(count int) uint64 {
	if count < 6 {
		return 15
	}
	n := float64(count)
	limit := uint64(n*(math.Log(n)+math.Log(math.Log(n)))) + 1
	if limit > math.MaxUint32 {
		limit = math.MaxUint32
	}
	return limit | 1
}
