package orchestration

import (
	"math/big"
	"time"
)

// EventKind identifies a step of the factorization search.
type EventKind int

const (
	// EventPowerOfTwo: powers of two were stripped before the search.
	EventPowerOfTwo EventKind = iota
	// EventInputPrime: the remaining cofactor is prime and was recorded.
	EventInputPrime
	// EventSubFactoring: an attempt is about to run on Residual.
	EventSubFactoring
	// EventFactorRejected: the attempt gave no factor or a composite one.
	EventFactorRejected
	// EventFactorChecked: a prime factor was tested against the cofactor;
	// Multiplicity 0 means it did not divide.
	EventFactorChecked
	// EventAllFactors: the cofactor reached 1.
	EventAllFactors
	// EventQuotientPrime: the cofactor left after extraction is prime.
	EventQuotientPrime
	// EventMaxFactorReached: a factor reached the requested size.
	EventMaxFactorReached
)

// Event is a search notification delivered to an EventSink. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind         EventKind
	Residual     *big.Int
	Factor       *big.Int
	Multiplicity uint
	Bound        uint64
	Step         uint64
	Elapsed      time.Duration
}

// EventSink receives search events synchronously.
type EventSink func(Event)
