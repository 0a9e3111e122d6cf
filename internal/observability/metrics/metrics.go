package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrchestrationMetrics exposes counters/histograms for the completion
// pipeline.
type OrchestrationMetrics struct {
	attemptsTotal   *prometheus.CounterVec
	attemptLatency  *prometheus.HistogramVec
	moderationTotal *prometheus.CounterVec
	repliesTotal    *prometheus.CounterVec
}

func NewOrchestrationMetrics(reg prometheus.Registerer) *OrchestrationMetrics {
	m := &OrchestrationMetrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutor",
			Subsystem: "completion",
			Name:      "provider_attempts_total",
			Help:      "Total provider completion attempts",
		}, []string{"provider", "outcome"}),
		attemptLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tutor",
			Subsystem: "completion",
			Name:      "provider_attempt_seconds",
			Help:      "Latency of provider completion attempts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		moderationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutor",
			Subsystem: "completion",
			Name:      "moderation_total",
			Help:      "Moderation verdicts by category and action",
		}, []string{"category", "action"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutor",
			Subsystem: "completion",
			Name:      "replies_total",
			Help:      "Replies returned by source path",
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptsTotal, m.attemptLatency, m.moderationTotal, m.repliesTotal)
	return m
}

func (m *OrchestrationMetrics) ObserveAttempt(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(provider, outcome).Inc()
	m.attemptLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *OrchestrationMetrics) ObserveModeration(category, action string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "none"
	}
	m.moderationTotal.WithLabelValues(category, action).Inc()
}

func (m *OrchestrationMetrics) ObserveReply(source string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(source).Inc()
}
