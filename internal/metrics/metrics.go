package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademaster_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trademaster_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MessagesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademaster_messages_processed_total",
			Help: "Total number of inbound messages run through the router.",
		},
		[]string{"outcome"}, // replied, gated, reset, dropped
	)

	GateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademaster_gate_decisions_total",
			Help: "Response gate decisions.",
		},
		[]string{"decision", "reason"}, // respond/silent x addressed/sampled/cooldown
	)

	IntentsClassifiedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademaster_intents_classified_total",
			Help: "Classified intents by label and tier.",
		},
		[]string{"intent", "tier"}, // tier: rules, model, fallback
	)

	ToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademaster_tool_invocations_total",
			Help: "Tool handler invocations by tool and status.",
		},
		[]string{"tool", "status"}, // status: ok, error, timeout
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trademaster_pipeline_duration_seconds",
			Help:    "End-to-end router pipeline duration per message.",
			Buckets: prometheus.DefBuckets,
		},
	)

	LLMCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademaster_llm_calls_total",
			Help: "Language model calls by purpose and status.",
		},
		[]string{"purpose", "status"}, // purpose: classify, generate
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		MessagesProcessedTotal,
		GateDecisionsTotal,
		IntentsClassifiedTotal,
		ToolInvocationsTotal,
		PipelineDuration,
		LLMCallsTotal,
	)
}
