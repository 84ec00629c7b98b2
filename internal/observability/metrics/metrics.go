package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the intake dialogue flow.
type IntakeMetrics struct {
	turnsTotal      *prometheus.CounterVec
	completionCalls *prometheus.CounterVec
	guardrailBlocks *prometheus.CounterVec
	staticFallbacks *prometheus.CounterVec
	turnLatency     *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "previsit",
			Subsystem: "intake",
			Name:      "turns_total",
			Help:      "Total processed dialogue turns",
		}, []string{"channel", "outcome"}),
		completionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "previsit",
			Subsystem: "intake",
			Name:      "completion_calls_total",
			Help:      "Total completion-service calls",
		}, []string{"operation", "status"}),
		guardrailBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "previsit",
			Subsystem: "intake",
			Name:      "guardrail_blocks_total",
			Help:      "Outputs replaced by the safety guardrail",
		}, []string{"category"}),
		staticFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "previsit",
			Subsystem: "intake",
			Name:      "static_fallbacks_total",
			Help:      "Turns answered from the static question catalogue",
		}, []string{"phase"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "previsit",
			Subsystem: "intake",
			Name:      "turn_latency_seconds",
			Help:      "Latency of dialogue turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.completionCalls, m.guardrailBlocks, m.staticFallbacks, m.turnLatency)
	return m
}

func (m *IntakeMetrics) ObserveTurn(channel, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(channel, outcome).Inc()
}

func (m *IntakeMetrics) ObserveCompletionCall(operation, status string) {
	if m == nil {
		return
	}
	m.completionCalls.WithLabelValues(operation, status).Inc()
}

func (m *IntakeMetrics) ObserveGuardrailBlock(category string) {
	if m == nil {
		return
	}
	m.guardrailBlocks.WithLabelValues(category).Inc()
}

func (m *IntakeMetrics) ObserveStaticFallback(phase string) {
	if m == nil {
		return
	}
	m.staticFallbacks.WithLabelValues(phase).Inc()
}

func (m *IntakeMetrics) ObserveTurnLatency(channel string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(channel).Observe(seconds)
}
