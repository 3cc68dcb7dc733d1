package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM call latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// ChatRequestsTotal counts chat calls by provider, execution mode and outcome.
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_chat_requests_total",
			Help: "Chat calls",
		},
		[]string{"provider", "mode", "status"},
	)

	// ChatDuration records the wall time of a chat call in seconds.
	ChatDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prism_chat_duration_seconds",
			Help:    "Chat call duration",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "mode"},
	)

	// StreamChunksTotal counts chunks folded into accumulators.
	StreamChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_stream_chunks_total",
			Help: "Stream chunks accumulated",
		},
		[]string{"provider"},
	)

	// StreamInterruptionsTotal counts streams that failed after they started.
	StreamInterruptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_stream_interruptions_total",
			Help: "Interrupted streams",
		},
		[]string{"provider"},
	)

	// TokensTotal counts tokens reported by providers, by direction (input/output).
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "direction"},
	)
)

func init() {
	prometheus.MustRegister(
		ChatRequestsTotal,
		ChatDuration,
		StreamChunksTotal,
		StreamInterruptionsTotal,
		TokensTotal,
	)
}
