package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebank_queries_processed_total",
			Help: "Total number of natural-language queries by intent and channel",
		},
		[]string{"intent", "channel"},
	)

	pipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebank_pipeline_errors_total",
			Help: "Total number of pipeline failures by error code",
		},
		[]string{"code"},
	)

	transactionsSimulated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voicebank_transactions_simulated_total",
			Help: "Total number of transactions inserted by the simulator",
		},
	)

	providerCalls = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicebank_provider_call_duration_seconds",
			Help:    "Latency of external provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "outcome"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicebank_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordQuery(intent, channel string) {
	queriesProcessed.WithLabelValues(intent, channel).Inc()
}

func RecordPipelineError(code string) {
	pipelineErrors.WithLabelValues(code).Inc()
}

func RecordSimulatedTransaction() {
	transactionsSimulated.Inc()
}

func RecordProviderCall(provider string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerCalls.WithLabelValues(provider, outcome).Observe(time.Since(start).Seconds())
}

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
