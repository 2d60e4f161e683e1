package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the validation service. A nil
// *Metrics is safe to call so wiring stays optional in tests.
type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	FindingsTotal      *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	RateLimitedTotal   prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cbcr_validations_total",
			Help: "Validation pipeline runs by outcome (valid, invalid, failed).",
		}, []string{"outcome"}),
		FindingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cbcr_findings_total",
			Help: "Findings emitted, by severity.",
		}, []string{"severity"}),
		ValidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cbcr_validation_duration_seconds",
			Help:    "Wall time of one full parse-transform-validate run.",
			Buckets: prometheus.DefBuckets,
		}),
		RateLimitedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cbcr_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
}

func (m *Metrics) ObserveValidation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
	m.ValidationDuration.Observe(d.Seconds())
}

func (m *Metrics) CountFinding(severity string) {
	if m == nil {
		return
	}
	m.FindingsTotal.WithLabelValues(severity).Inc()
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}
