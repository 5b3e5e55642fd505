package pollard

import (
	"math"
	"math/big"

	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/primes"
)

// BuildExponent returns E = Π p^e over every prime p < bound in the table,
// where p^e is the largest power of p not exceeding bound. For bound <= 2
// the product is empty and E = 1.
//
// The table must contain a prime >= bound; running off its end panics with
// an apperrors.PreconditionError.
func BuildExponent(table primes.Table, bound uint64) *big.Int {
	return productTree(primePowerWords(table, bound))
}

// primePowerWords packs the prime powers for bound into as few machine
// words as possible, each word being a product of whole prime powers.
func primePowerWords(table primes.Table, bound uint64) []uint64 {
	var (
		words []uint64
		acc   uint64 = 1
	)
	for i := 0; ; i++ {
		if i >= len(table) {
			panic(apperrors.NewPreconditionError(
				"prime table (largest %d) does not reach bound %d", table.Last(), bound))
		}
		p := uint64(table[i])
		if p >= bound {
			break
		}
		pe := p
		for pe <= bound/p {
			pe *= p
		}
		if acc > math.MaxUint64/pe {
			words = append(words, acc)
			acc = pe
		} else {
			acc *= pe
		}
	}
	return append(words, acc)
}

// productTree multiplies the words pairwise, level by level, so that the
// big multiplications operate on operands of similar size.
func productTree(words []uint64) *big.Int {
	if len(words) == 0 {
		return big.NewInt(1)
	}
	level := make([]*big.Int, len(words))
	for i, w := range words {
		level[i] = new(big.Int).SetUint64(w)
	}
	for len(level) > 1 {
		next := make([]*big.Int, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, level[i].Mul(level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0]
}
