// Package orchestration turns single-factor attempts into complete
// factorizations and drives batches of inputs through them.
package orchestration

import (
	"context"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/logging"
	"github.com/agbru/pm1factor/internal/pollard"
)

var (
	factorizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm1_factorizations_total",
			Help: "The total number of factorizations, by final status",
		},
		[]string{"status"},
	)
	factorsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm1_factors_found_total",
		Help: "The total number of distinct prime factors accepted",
	})
	stepHalvings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm1_step_halvings_total",
		Help: "The total number of bound step halvings after an unusable attempt",
	})
)

// Status is the final state of a factorization.
type Status string

const (
	// StatusComplete: the factors multiply back to n.
	StatusComplete Status = "complete"
	// StatusStoppedAtMaxFactor: a factor at least MaxFactor was found and the
	// search stopped with a composite cofactor left.
	StatusStoppedAtMaxFactor Status = "stopped_at_max_factor"
	// StatusPartial: the search failed after at least one factor was found.
	StatusPartial Status = "partial"
	// StatusNotFound: the search failed before any factor was found.
	StatusNotFound Status = "not_found"
)

// Request asks for the factorization of N. MaxFactor, when set, stops the
// search once a factor at least that large has been extracted.
type Request struct {
	N         *big.Int
	MaxFactor *big.Int
}

// Factor is a prime and its multiplicity in n.
type Factor struct {
	Value        *big.Int
	Multiplicity uint
}

// Result is the outcome of Factorize. The product of every Value^Multiplicity
// times Residual equals N.
type Result struct {
	N        *big.Int
	Factors  []Factor
	Residual *big.Int
	Status   Status
	Attempts int
	Duration time.Duration
}

// Config holds the attempt bound schedule.
type Config struct {
	// BoundMax is the exclusive bound ceiling passed to every attempt.
	BoundMax uint64
	// BoundStart is the first bound of every attempt.
	BoundStart uint64
	// BoundStep is the step restored after every accepted factor.
	BoundStep uint64
	// MinStep is the smallest step tried before the search gives up.
	MinStep uint64
	// PrimalityRounds is the Miller-Rabin round count for primality checks.
	PrimalityRounds int
}

// DefaultConfig returns the default schedule.
func DefaultConfig() Config {
	return Config{
		BoundMax:        1 << 25,
		BoundStart:      2,
		BoundStep:       2048,
		MinStep:         2,
		PrimalityRounds: 50,
	}
}

// Orchestrator factors numbers by repeated single-factor attempts on one backend.
type Orchestrator struct {
	backend  pollard.Backend
	cfg      Config
	logger   logging.Logger
	events   EventSink
	progress pollard.ProgressReporter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEventSink sets the receiver of search events.
func WithEventSink(sink EventSink) Option {
	return func(o *Orchestrator) { o.events = sink }
}

// WithProgress forwards attempt progress to r.
func WithProgress(r pollard.ProgressReporter) Option {
	return func(o *Orchestrator) { o.progress = r }
}

// New creates an orchestrator over an initialized backend.
func New(backend pollard.Backend, cfg Config, opts ...Option) *Orchestrator {
	if cfg.MinStep == 0 {
		cfg.MinStep = 2
	}
	if cfg.PrimalityRounds <= 0 {
		cfg.PrimalityRounds = 50
	}
	o := &Orchestrator{backend: backend, cfg: cfg, logger: logging.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Backend returns the backend the orchestrator runs on.
func (o *Orchestrator) Backend() pollard.Backend { return o.backend }

// Config returns the bound schedule in use.
func (o *Orchestrator) Config() Config { return o.cfg }

// Factorize decomposes req.N. Search failures return the factors found so
// far in the Result alongside a typed error: apperrors.ErrSearchExhausted,
// apperrors.CorrectnessError, a context error, or a backend error.
func (o *Orchestrator) Factorize(ctx context.Context, req Request) (res Result, err error) {
	if req.N == nil || req.N.Sign() <= 0 {
		return Result{}, apperrors.NewValidationError("n", "must be a positive integer", req.N)
	}

	ctx, span := otel.Tracer("orchestration").Start(ctx, "Factorize")
	defer span.End()

	start := time.Now()
	n := new(big.Int).Set(req.N)
	res = Result{N: new(big.Int).Set(req.N)}
	defer func() {
		res.Duration = time.Since(start)
		res.Residual = n
		if err != nil {
			if len(res.Factors) > 0 {
				res.Status = StatusPartial
			} else {
				res.Status = StatusNotFound
			}
			span.RecordError(err)
		}
		factorizationsTotal.WithLabelValues(string(res.Status)).Inc()
		span.SetAttributes(
			attribute.Int("pm1.n_bits", req.N.BitLen()),
			attribute.Int("pm1.factors", len(res.Factors)),
			attribute.Int("pm1.attempts", res.Attempts),
			attribute.String("pm1.status", string(res.Status)),
		)
	}()

	if k := n.TrailingZeroBits(); k > 0 {
		n.Rsh(n, k)
		res.Factors = append(res.Factors, Factor{Value: big.NewInt(2), Multiplicity: k})
		o.emit(Event{Kind: EventPowerOfTwo, Factor: big.NewInt(2), Multiplicity: k})
	}

	step := o.cfg.BoundStep
	for n.Cmp(bigOne) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if n.ProbablyPrime(o.cfg.PrimalityRounds) {
			o.emit(Event{Kind: EventInputPrime, Residual: new(big.Int).Set(n)})
			res.Factors = append(res.Factors, Factor{Value: new(big.Int).Set(n), Multiplicity: 1})
			n.SetInt64(1)
			break
		}

		o.emit(Event{Kind: EventSubFactoring, Residual: new(big.Int).Set(n), Step: step})
		attemptStart := time.Now()
		ar, err := o.backend.Attempt(ctx, pollard.AttemptRequest{
			N:          new(big.Int).Set(n),
			BoundMax:   o.cfg.BoundMax,
			BoundStart: o.cfg.BoundStart,
			BoundStep:  step,
			Progress:   o.progress,
		})
		res.Attempts++
		if err != nil {
			return res, err
		}
		elapsed := time.Since(attemptStart)

		if !ar.Found || !ar.Factor.ProbablyPrime(o.cfg.PrimalityRounds) {
			o.emit(Event{Kind: EventFactorRejected, Residual: new(big.Int).Set(n), Factor: ar.Factor, Bound: ar.Bound, Step: step, Elapsed: elapsed})
			o.logger.Debug("attempt unusable, halving step",
				logging.Hex("n", n), logging.Bool("found", ar.Found),
				logging.Uint64("bound", ar.Bound), logging.Uint64("step", step))
			stepHalvings.Inc()
			step /= 2
			if step < o.cfg.MinStep {
				return res, apperrors.ErrSearchExhausted
			}
			continue
		}

		factor := ar.Factor
		multiplicity := extract(n, factor)
		o.emit(Event{Kind: EventFactorChecked, Factor: factor, Multiplicity: multiplicity, Bound: ar.Bound, Elapsed: elapsed})
		if multiplicity == 0 {
			return res, apperrors.CorrectnessError{Factor: factor, N: new(big.Int).Set(n)}
		}
		res.Factors = append(res.Factors, Factor{Value: factor, Multiplicity: multiplicity})
		factorsFound.Inc()
		o.logger.Debug("factor accepted",
			logging.Hex("factor", factor), logging.Int("multiplicity", int(multiplicity)),
			logging.Uint64("bound", ar.Bound))
		step = o.cfg.BoundStep

		if n.Cmp(bigOne) == 0 {
			o.emit(Event{Kind: EventAllFactors})
			break
		}
		if n.ProbablyPrime(o.cfg.PrimalityRounds) {
			o.emit(Event{Kind: EventQuotientPrime, Residual: new(big.Int).Set(n)})
			res.Factors = append(res.Factors, Factor{Value: new(big.Int).Set(n), Multiplicity: 1})
			n.SetInt64(1)
			break
		}
		if req.MaxFactor != nil && factor.Cmp(req.MaxFactor) >= 0 {
			o.emit(Event{Kind: EventMaxFactorReached, Factor: factor, Residual: new(big.Int).Set(n)})
			res.Status = StatusStoppedAtMaxFactor
			return res, nil
		}
	}

	res.Status = StatusComplete
	return res, nil
}

// extract divides every power of f out of n in place and returns the count.
func extract(n, f *big.Int) uint {
	var (
		count uint
		q, r  big.Int
	)
	if f.Cmp(bigOne) <= 0 {
		return 0
	}
	for {
		q.QuoRem(n, f, &r)
		if r.Sign() != 0 {
			return count
		}
		n.Set(&q)
		count++
	}
}

func (o *Orchestrator) emit(ev Event) {
	if o.events != nil {
		o.events(ev)
	}
}

var bigOne = big.NewInt(1)
