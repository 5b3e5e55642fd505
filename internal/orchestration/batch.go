package orchestration

import (
	"context"
	"math/big"
	"strings"
	"time"

	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/logging"
	"github.com/agbru/pm1factor/pkg/models"
)

// Input is one command-line number.
type Input struct {
	// Index is the zero-based position of the input in the batch.
	Index int
	// Raw is the input as given.
	Raw string
	// N is the number to factor, already decremented when MinusOne is set.
	// Nil when Raw could not be parsed.
	N *big.Int
	// MinusOne records that N is the parsed value minus one.
	MinusOne bool
}

// ParseInput parses a hexadecimal number with an optional 0x prefix and,
// when minusOne is set, subtracts one. The resulting number must be positive.
func ParseInput(raw string, minusOne bool) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, ok := new(big.Int).SetString(s, 16)
	if !ok || s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, apperrors.NewValidationError("n", "not a hexadecimal number", raw)
	}
	if minusOne {
		n.Sub(n, bigOne)
	}
	if n.Sign() <= 0 {
		return nil, apperrors.NewValidationError("n", "must be positive", raw)
	}
	return n, nil
}

// Reporter renders a batch run. Calls arrive sequentially.
type Reporter interface {
	InputStarted(in Input, at time.Time)
	Event(ev Event)
	InputFinished(in Input, res Result, err error)
	BatchFinished(s Summary)
}

// Summary counts the outcome of a batch run.
type Summary struct {
	// Attempted counts every input, including unparsable ones.
	Attempted int
	// Factored counts inputs for which at least one factor was found.
	Factored int
	Duration time.Duration
}

// BatchOptions applies to every input of a batch.
type BatchOptions struct {
	MinusOne  bool
	MaxFactor *big.Int
}

// RunBatch factors each input in order. Per-input failures are reported and
// do not stop the batch; only context cancellation does, in which case the
// summary covers the inputs processed so far and the context error is returned.
func RunBatch(ctx context.Context, o *Orchestrator, raws []string, opts BatchOptions, r Reporter) (Summary, error) {
	start := time.Now()
	run := *o
	run.events = r.Event

	var summary Summary
	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			r.BatchFinished(summary)
			return summary, err
		}
		summary.Attempted++

		in := Input{Index: i, Raw: raw, MinusOne: opts.MinusOne}
		r.InputStarted(in, time.Now())

		n, err := ParseInput(raw, opts.MinusOne)
		if err != nil {
			run.logger.Info("skipping invalid input", logging.String("input", raw), logging.Err(err))
			r.InputFinished(in, Result{Status: StatusNotFound}, err)
			continue
		}
		in.N = n

		res, err := run.Factorize(ctx, Request{N: n, MaxFactor: opts.MaxFactor})
		if len(res.Factors) > 0 {
			summary.Factored++
		}
		r.InputFinished(in, res, err)
		if err != nil && apperrors.IsContextError(err) {
			summary.Duration = time.Since(start)
			r.BatchFinished(summary)
			return summary, err
		}
		if err != nil {
			run.logger.Info("factorization failed",
				logging.String("input", raw), logging.Int("factors", len(res.Factors)), logging.Err(err))
		}
	}

	summary.Duration = time.Since(start)
	r.BatchFinished(summary)
	return summary, nil
}

// Report converts a factorization outcome into its JSON model.
func Report(in Input, res Result, err error, backend string, at time.Time) models.FactorizationReport {
	rep := models.FactorizationReport{
		Input:      in.Raw,
		MinusOne:   in.MinusOne,
		Status:     string(res.Status),
		Factors:    make([]models.FactorEntry, 0, len(res.Factors)),
		Attempts:   res.Attempts,
		DurationMS: res.Duration.Milliseconds(),
		Timestamp:  at.UTC().Format(time.RFC3339),
		Backend:    backend,
	}
	if in.N != nil {
		rep.N = hex(in.N)
	} else {
		rep.Status = "invalid"
	}
	for _, f := range res.Factors {
		rep.Factors = append(rep.Factors, models.FactorEntry{Prime: hex(f.Value), Multiplicity: f.Multiplicity})
	}
	if res.Residual != nil && res.Residual.Cmp(bigOne) != 0 {
		rep.Residual = hex(res.Residual)
	}
	if err != nil {
		rep.Error = err.Error()
	}
	return rep
}

func hex(x *big.Int) string {
	return "0x" + x.Text(16)
}
