package rotation

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rotationStartedTotal   *prometheus.CounterVec
	rotationCompletedTotal *prometheus.CounterVec
	rotationDuration       *prometheus.HistogramVec
	verifyRetriesTotal     prometheus.Counter

	metricsOnce sync.Once
)

// Metrics records rotation metrics. Registration is lazy and happens once
// per process regardless of how many engines are constructed.
type Metrics struct{}

// NewMetrics creates a Metrics instance and ensures registration.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		rotationStartedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyvigil_rotation_started_total",
				Help: "Total number of rotation attempts started",
			},
			[]string{"kind"},
		)
		rotationCompletedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyvigil_rotation_completed_total",
				Help: "Total number of rotation attempts completed",
			},
			[]string{"kind", "status"},
		)
		rotationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyvigil_rotation_duration_seconds",
				Help:    "Duration of rotation attempts in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind"},
		)
		verifyRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "keyvigil_verification_retries_total",
				Help: "Total number of verification read retries",
			},
		)
	})
	return &Metrics{}
}

// RecordStarted counts a rotation attempt.
func (m *Metrics) RecordStarted(kind string) {
	rotationStartedTotal.WithLabelValues(kind).Inc()
}

// RecordCompleted counts a finished attempt and observes its duration.
func (m *Metrics) RecordCompleted(kind, status string, seconds float64) {
	rotationCompletedTotal.WithLabelValues(kind, status).Inc()
	rotationDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordVerifyRetry counts one verification read retry.
func (m *Metrics) RecordVerifyRetry() {
	verifyRetriesTotal.Inc()
}
