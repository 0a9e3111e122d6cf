package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAttempt(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrchestrationMetrics(reg)

	m.ObserveAttempt("openai-fast", "success", 0.25)
	m.ObserveAttempt("openai-fast", "timeout", 12.0)
	m.ObserveAttempt("gemini", "success", 0.5)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.attemptsTotal.WithLabelValues("openai-fast", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.attemptsTotal.WithLabelValues("openai-fast", "timeout")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.attemptsTotal.WithLabelValues("gemini", "success")))
}

func TestObserveModerationDefaultsCategory(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrchestrationMetrics(reg)

	m.ObserveModeration("", "allowed")
	m.ObserveModeration("self_harm", "blocked")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.moderationTotal.WithLabelValues("none", "allowed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.moderationTotal.WithLabelValues("self_harm", "blocked")))
}

func TestObserveReply(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrchestrationMetrics(reg)

	m.ObserveReply("provider-1")
	m.ObserveReply("provider-1")
	m.ObserveReply("fallback")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.repliesTotal.WithLabelValues("provider-1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.repliesTotal.WithLabelValues("fallback")))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *OrchestrationMetrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt("openai-fast", "success", 0.1)
		m.ObserveModeration("none", "allowed")
		m.ObserveReply("fallback")
	})
}
