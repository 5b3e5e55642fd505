package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes server metrics in Prometheus format. Attempt and
// factorization metrics are registered by the pollard and orchestration
// packages and served from the same default registry.
type Metrics struct {
	handler http.Handler
}

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pm1_http_active_requests",
		Help: "Current number of active HTTP requests",
	})
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pm1_http_requests_total",
		Help: "Total number of HTTP requests received, by path",
	}, []string{"path"})
)

// NewMetrics creates a Metrics instance serving the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		handler: promhttp.Handler(),
	}
}

func (m *Metrics) requestStarted(path string) {
	activeRequests.Inc()
	totalRequests.WithLabelValues(path).Inc()
}

func (m *Metrics) requestFinished() {
	activeRequests.Dec()
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.handler.ServeHTTP(w, r)
}

func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.requestStarted(r.URL.Path)
		defer s.metrics.requestFinished()
		next(w, r)
	}
}
