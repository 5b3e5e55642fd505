package testutil

import "math/big"

// Product returns the product of factors as a big.Int. Product() is 1.
func Product(factors ...int64) *big.Int {
	n := big.NewInt(1)
	for _, f := range factors {
		n.Mul(n, big.NewInt(f))
	}
	return n
}

// MustHex parses a 0x-prefixed or bare hexadecimal string and panics on
// malformed input.
func MustHex(s string) *big.Int {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("testutil: invalid hex " + s)
	}
	return n
}
