package metrics

import "github.com/prometheus/client_golang/prometheus"

// AIMetrics exposes counters/histograms for the LLM orchestration flows.
type AIMetrics struct {
	completionsTotal *prometheus.CounterVec
	toolCallsTotal   *prometheus.CounterVec
	tokensTotal      *prometheus.CounterVec
	turnLatency      *prometheus.HistogramVec
}

func NewAIMetrics(reg prometheus.Registerer) *AIMetrics {
	m := &AIMetrics{
		completionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petcare",
			Subsystem: "ai",
			Name:      "completions_total",
			Help:      "Total chat completions issued, by agent and outcome",
		}, []string{"agent", "status"}),
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petcare",
			Subsystem: "ai",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations dispatched by the orchestrators",
		}, []string{"agent", "tool", "status"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petcare",
			Subsystem: "ai",
			Name:      "tokens_total",
			Help:      "Token usage reported by the LLM gateway",
		}, []string{"agent", "kind"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "petcare",
			Subsystem: "ai",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one inbound-message handling cycle",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.completionsTotal, m.toolCallsTotal, m.tokensTotal, m.turnLatency)
	return m
}

func (m *AIMetrics) ObserveCompletion(agent, status string) {
	if m == nil {
		return
	}
	m.completionsTotal.WithLabelValues(agent, status).Inc()
}

func (m *AIMetrics) ObserveToolCall(agent, tool, status string) {
	if m == nil {
		return
	}
	m.toolCallsTotal.WithLabelValues(agent, tool, status).Inc()
}

func (m *AIMetrics) ObserveTokens(agent string, prompt, completion int) {
	if m == nil {
		return
	}
	m.tokensTotal.WithLabelValues(agent, "prompt").Add(float64(prompt))
	m.tokensTotal.WithLabelValues(agent, "completion").Add(float64(completion))
}

func (m *AIMetrics) ObserveTurnLatency(agent string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(agent).Observe(seconds)
}
