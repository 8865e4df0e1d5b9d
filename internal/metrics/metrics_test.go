package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAttempt("vertex", "gemini", "model_unavailable", 100*time.Millisecond)
	m.ObserveAttempt("vertex", "gemini", "model_unavailable", 100*time.Millisecond)
	m.ObserveAttempt("openai", "gpt", "success", time.Second)
	m.ObserveGeneration("success")
	m.ObserveRepairs(2, 1, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("vertex", "gemini", "model_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("openai", "gpt", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.repairs.WithLabelValues("missing_week")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.repairs.WithLabelValues("coerced_duration")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt("p", "m", "error", time.Second)
		m.ObserveGeneration("error")
		m.ObserveRepairs(1, 1, 1)
	})
}
