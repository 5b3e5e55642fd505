// Command gensemiprime builds test inputs for pm1: semiprimes N = p·q where
// p-1 and q-1 are both multiples of a given prime b, so that N-1 is too.
//
// Usage:
//
//	gensemiprime [-seed n] size_of_n b...
//
// size_of_n is the target bit size of N and each b is a hexadecimal prime.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// maxTries bounds the candidates drawn per factor.
	maxTries        = 10000
	primalityRounds = 50
)

var errNoFactor = errors.New("no prime found within the try limit")

// semiprime is one generated test case.
type semiprime struct {
	P, Q, N, NMinus1 *big.Int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("gensemiprime", flag.ContinueOnError)
	fs.SetOutput(errOut)
	seed := fs.Int64("seed", time.Now().UnixNano(), "Seed of the random source.")
	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: gensemiprime [-seed n] size_of_n <list of b factors>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return 1
	}

	sizeN, err := strconv.Atoi(fs.Arg(0))
	if err != nil || sizeN <= 0 {
		fmt.Fprintf(errOut, "Invalid size of N: %s\n", fs.Arg(0))
		return 1
	}

	rng := rand.New(rand.NewSource(*seed))
	for _, raw := range fs.Args()[1:] {
		fmt.Fprintln(out, "<----------------------------------------------->")
		digits := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
		b, ok := new(big.Int).SetString(digits, 16)
		if !ok || !b.ProbablyPrime(primalityRounds) {
			fmt.Fprintf(out, "Factor b: 0x%s is not a prime!\n", digits)
			continue
		}

		fmt.Fprintf(out, "Trying to find N for b: 0x%s\n", digits)
		sp, err := generate(rng, b, sizeN)
		if err != nil {
			fmt.Fprintf(out, "Could not compute factors: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Found p: 0x%s\n", sp.P.Text(16))
		fmt.Fprintf(out, "Found q: 0x%s\n", sp.Q.Text(16))
		fmt.Fprintf(out, "Found N: 0x%s\n", sp.N.Text(16))
		fmt.Fprintf(out, "Found N - 1: 0x%s\n", sp.NMinus1.Text(16))

		if new(big.Int).Mod(sp.NMinus1, b).Sign() != 0 {
			fmt.Fprintln(out, "Wrong!")
		}
	}
	return 0
}

// generate draws p and q around half of sizeN bits, offset by a random
// difference in [3, 6] so that p and q differ in size.
func generate(rng *rand.Rand, b *big.Int, sizeN int) (semiprime, error) {
	half := sizeN / 2
	diff := 3 + rng.Intn(4)

	p, err := randomFactor(rng, b, half-diff-1)
	if err != nil {
		return semiprime{}, fmt.Errorf("p: %w", err)
	}
	q, err := randomFactor(rng, b, half+diff)
	if err != nil {
		return semiprime{}, fmt.Errorf("q: %w", err)
	}

	n := new(big.Int).Mul(p, q)
	return semiprime{
		P:       p,
		Q:       q,
		N:       n,
		NMinus1: new(big.Int).Sub(n, big.NewInt(1)),
	}, nil
}

// randomFactor returns a prime k·b+1 where k has size-bitlen(b) bits.
func randomFactor(rng *rand.Rand, b *big.Int, size int) (*big.Int, error) {
	kBits := size - b.BitLen()
	if kBits < 1 {
		return nil, fmt.Errorf("factor size %d too small for a %d-bit b", size, b.BitLen())
	}

	low := new(big.Int).Lsh(big.NewInt(1), uint(kBits-1))
	f := new(big.Int)
	for i := 0; i < maxTries; i++ {
		k := new(big.Int).Rand(rng, low)
		k.Add(k, low)
		f.Mul(k, b)
		f.Add(f, big.NewInt(1))
		if f.ProbablyPrime(primalityRounds) {
			return f, nil
		}
	}
	return nil, errNoFactor
}
