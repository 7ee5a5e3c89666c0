package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpchat_chat_requests_total",
			Help: "Chat requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corpchat_upstream_request_duration_seconds",
			Help:    "Latency of calls to the AI gateway",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	upstreamResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpchat_upstream_responses_total",
			Help: "Gateway responses by provider and HTTP status code",
		},
		[]string{"provider", "code"},
	)
)

// Register registers all metrics with the provided registerer.
func Register(r prometheus.Registerer) {
	r.MustRegister(chatRequests, upstreamDuration, upstreamResponses)
}

// RecordChatRequest increments the chat request counter.
func RecordChatRequest(provider, outcome string) {
	chatRequests.WithLabelValues(provider, outcome).Inc()
}

// ObserveUpstream records latency and status of one gateway call.
func ObserveUpstream(provider string, status int, d time.Duration) {
	upstreamDuration.WithLabelValues(provider).Observe(d.Seconds())
	upstreamResponses.WithLabelValues(provider, strconv.Itoa(status)).Inc()
}
