// Package primes provides the ascending prime table the exponent builder
// walks, together with its generator (an odd-only sieve) and its on-disk
// cache of raw little-endian uint32 values.
package primes

import (
	"errors"
	"fmt"
)

const (
	// MaxPrimes is the largest table the application will generate or load.
	MaxPrimes = 20_000_000

	// DefaultCacheFile is the cache file name looked up in the working directory.
	DefaultCacheFile = "prime_numbers_list.bin"
)

// ErrEmptyTable is returned when an operation needs at least one prime.
var ErrEmptyTable = errors.New("prime table is empty")

// Table is an ascending sequence of consecutive primes starting at 2.
type Table []uint32

// Len returns the number of primes in the table.
func (t Table) Len() int { return len(t) }

// Last returns the largest prime in the table, or 0 for an empty table.
func (t Table) Last() uint32 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1]
}

// Covers reports whether the table holds a prime at or above bound, which
// is what the exponent builder needs to stop cleanly for any bound below it.
func (t Table) Covers(bound uint64) bool {
	return len(t) > 0 && uint64(t.Last()) >= bound
}

// Validate checks the structural properties a cached table must have: it
// starts at 2 and is strictly increasing. Primality of each entry is not
// rechecked.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	if t[0] != 2 {
		return fmt.Errorf("first entry is %d, expected 2", t[0])
	}
	for i := 1; i < len(t); i++ {
		if t[i] <= t[i-1] {
			return fmt.Errorf("entry %d (%d) is not greater than entry %d (%d)", i, t[i], i-1, t[i-1])
		}
	}
	return nil
}

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	copy(out, t)
	return out
}
