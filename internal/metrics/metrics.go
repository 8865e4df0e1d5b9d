// Package metrics exposes Prometheus counters and histograms for plan generation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "runplan"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	attempts    *prometheus.CounterVec
	attemptTime *prometheus.HistogramVec
	generations *prometheus.CounterVec
	repairs     *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Generation provider calls by provider, model and outcome.",
		}, []string{"provider", "model", "outcome"}),
		attemptTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_attempt_duration_seconds",
			Help:      "Duration of generation provider calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		}, []string{"provider", "model"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_generations_total",
			Help:      "Plan generation requests that reached a provider, by result.",
		}, []string{"result"}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_repairs_total",
			Help:      "Repairs applied while normalizing generated plans, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.attempts, m.attemptTime, m.generations, m.repairs)
	return m
}

func (m *Metrics) ObserveAttempt(provider, model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, model, outcome).Inc()
	m.attemptTime.WithLabelValues(provider, model).Observe(d.Seconds())
}

// ObserveGeneration counts one orchestrated generation; result is "success" or a failure kind.
func (m *Metrics) ObserveGeneration(result string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRepairs(missingWeeks, droppedEntries, coercedDurations int) {
	if m == nil {
		return
	}
	m.repairs.WithLabelValues("missing_week").Add(float64(missingWeeks))
	m.repairs.WithLabelValues("dropped_entry").Add(float64(droppedEntries))
	m.repairs.WithLabelValues("coerced_duration").Add(float64(coercedDurations))
}
