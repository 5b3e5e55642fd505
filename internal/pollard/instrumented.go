package pollard

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/agbru/pm1factor/internal/logging"
	"github.com/agbru/pm1factor/internal/primes"
)

var (
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm1_attempts_total",
			Help: "The total number of single-factor attempts, by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)
	attemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pm1_attempt_duration_seconds",
			Help:    "The duration of single-factor attempts in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		},
		[]string{"backend"},
	)
	discoveryBound = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pm1_discovery_bound",
			Help:    "The smoothness bound at which attempts found a factor",
			Buckets: prometheus.ExponentialBuckets(2, 4, 13),
		},
		[]string{"backend"},
	)
)

// Instrumented decorates a Backend with Prometheus metrics, an OpenTelemetry
// span per attempt and a debug log line per attempt.
type Instrumented struct {
	inner  Backend
	logger logging.Logger
}

// NewInstrumented wraps inner. A nil logger discards the log lines. It
// panics if inner is nil.
func NewInstrumented(inner Backend, logger logging.Logger) *Instrumented {
	if inner == nil {
		panic("pollard: the wrapped backend cannot be nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Instrumented{inner: inner, logger: logger}
}

// Unwrap returns the decorated backend.
func (b *Instrumented) Unwrap() Backend { return b.inner }

func (b *Instrumented) Name() string        { return b.inner.Name() }
func (b *Instrumented) Description() string { return b.inner.Description() }

func (b *Instrumented) Initialize(table primes.Table) error {
	if err := b.inner.Initialize(table); err != nil {
		return err
	}
	b.logger.Debug("backend initialized",
		logging.String("backend", b.inner.Name()),
		logging.String("device", b.inner.Description()),
		logging.Int("primes", table.Len()))
	return nil
}

func (b *Instrumented) Shutdown() error { return b.inner.Shutdown() }

func (b *Instrumented) Attempt(ctx context.Context, req AttemptRequest) (res AttemptResult, err error) {
	tracer := otel.Tracer("pollard")
	ctx, span := tracer.Start(ctx, "Attempt")
	defer span.End()

	name := b.inner.Name()
	nBits := 0
	if req.N != nil {
		nBits = req.N.BitLen()
	}
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		status := "not_found"
		switch {
		case err != nil:
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case res.Found:
			status = "found"
			discoveryBound.WithLabelValues(name).Observe(float64(res.Bound))
		}
		attemptsTotal.WithLabelValues(name, status).Inc()
		attemptDuration.WithLabelValues(name).Observe(duration.Seconds())
		span.SetAttributes(
			attribute.String("pm1.backend", name),
			attribute.Int("pm1.n_bits", nBits),
			attribute.Int64("pm1.bound", int64(res.Bound)),
			attribute.Int("pm1.probes", res.Probes),
			attribute.String("pm1.outcome", status),
		)

		b.logger.Debug("attempt completed",
			logging.String("backend", name),
			logging.Hex("n", req.N),
			logging.Uint64("bound", res.Bound),
			logging.Int("probes", res.Probes),
			logging.String("outcome", status),
			logging.Duration("duration", duration))
	}()

	return b.inner.Attempt(ctx, req)
}
