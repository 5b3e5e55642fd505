package pollard

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ProgressObserver receives attempt progress notifications.
type ProgressObserver interface {
	Update(p AttemptProgress)
}

// ProgressSubject fans progress out to registered observers.
type ProgressSubject struct {
	mu        sync.RWMutex
	observers []ProgressObserver
}

// NewProgressSubject creates a subject with no observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{}
}

// Register adds an observer. Nil observers are ignored.
func (s *ProgressSubject) Register(o ProgressObserver) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Unregister removes every registration of o.
func (s *ProgressSubject) Unregister(o ProgressObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.observers[:0]
	for _, existing := range s.observers {
		if existing != o {
			kept = append(kept, existing)
		}
	}
	s.observers = kept
}

// Notify delivers p to every observer, in registration order.
func (s *ProgressSubject) Notify(p AttemptProgress) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(p)
	}
}

// AsProgressReporter returns a ProgressReporter that notifies the subject.
func (s *ProgressSubject) AsProgressReporter() ProgressReporter {
	return s.Notify
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging Observer
// ─────────────────────────────────────────────────────────────────────────────

// LoggingObserver logs bound escalations using zerolog, throttled so that a
// line is only written when the bound has moved by at least threshold of
// the way to its ceiling.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64
	last      map[string]float64
	mu        sync.Mutex
}

// NewLoggingObserver creates a throttled logging observer. A non-positive
// threshold defaults to 0.1.
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &LoggingObserver{
		logger:    logger,
		threshold: threshold,
		last:      make(map[string]float64),
	}
}

func (o *LoggingObserver) Update(p AttemptProgress) {
	o.mu.Lock()
	defer o.mu.Unlock()

	fraction := p.Fraction()
	last, seen := o.last[p.Backend]
	if seen && fraction < last {
		// a new attempt restarted the bound
		seen = false
	}
	if seen && fraction-last < o.threshold && fraction < 1 {
		return
	}
	o.logger.Debug().
		Str("backend", p.Backend).
		Uint64("bound", p.Bound).
		Uint64("bound_max", p.BoundMax).
		Uint64("base", p.Base).
		Str("percent", fmt.Sprintf("%.1f%%", fraction*100)).
		Msg("attempt progress")
	o.last[p.Backend] = fraction
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics Observer (Prometheus)
// ─────────────────────────────────────────────────────────────────────────────

var boundGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pm1_attempt_bound",
		Help: "Current smoothness bound of the running attempt",
	},
	[]string{"backend"},
)

// MetricsObserver exports the current bound to Prometheus.
type MetricsObserver struct {
	gauge *prometheus.GaugeVec
}

// NewMetricsObserver creates an observer backed by the shared bound gauge.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{gauge: boundGauge}
}

func (o *MetricsObserver) Update(p AttemptProgress) {
	o.gauge.WithLabelValues(p.Backend).Set(float64(p.Bound))
}

// NoOpObserver discards every update.
type NoOpObserver struct{}

func (NoOpObserver) Update(AttemptProgress) {}
