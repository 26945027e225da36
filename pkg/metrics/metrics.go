// Package metrics exposes Prometheus collectors for the browsing tools.
//
// A nil *Metrics is valid and records nothing, so library callers that do not
// care about metrics can pass nil everywhere.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entrhq/pagewise/pkg/toolerr"
)

const namespace = "pagewise"

// Outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeUsageError   = "usage_error"
	OutcomeBackendError = "backend_error"
	OutcomeError        = "error"
)

// Metrics holds the collectors shared by one browser instance.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	backend    *prometheus.CounterVec
	pages      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Browser operations by name and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of browser operations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"op"}),
		backend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Search and fetch calls made to the backend.",
		}, []string{"kind", "outcome"}),
		pages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_pages",
			Help:      "Pages currently held by the browsing session.",
		}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration, m.backend, m.pages} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Outcome classifies err into an outcome label.
func Outcome(err error) string {
	var te *toolerr.Error
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &te) && te.Kind == toolerr.KindUsage:
		return OutcomeUsageError
	case errors.As(err, &te) && te.Kind == toolerr.KindBackend:
		return OutcomeBackendError
	default:
		return OutcomeError
	}
}

// ObserveOperation records one browser operation that started at start.
func (m *Metrics) ObserveOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, Outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveBackend records one backend call. kind is "search" or "fetch".
func (m *Metrics) ObserveBackend(kind string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.backend.WithLabelValues(kind, outcome).Inc()
}

// SetPages reports the current session size.
func (m *Metrics) SetPages(n int) {
	if m == nil {
		return
	}
	m.pages.Set(float64(n))
}

// Handler serves the metrics in reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
