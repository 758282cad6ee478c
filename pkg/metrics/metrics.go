package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	FilteringRunCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filtering_run_count",
			Help: "Total number of filtering runs started",
		},
		[]string{"classifier", "status"}, // status: success, failed
	)

	StatusWriteCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filtering_status_write_count",
			Help: "Total number of filtering status records written",
		},
	)

	TriageDecisionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_decision_count",
			Help: "Total number of triage decisions recorded",
		},
		[]string{"state"}, // muted, friended, pending (releases)
	)

	BrokerCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "broker_call_latency_ms",
			Help:    "Identity broker call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"status"},
	)

	GmailCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gmail_call_latency_ms",
			Help:    "Gmail API call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
		[]string{"operation", "status"},
	)
)

// RecordHTTPRequestDuration records one served request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementFilteringRun counts a filtering run by classifier and outcome.
func IncrementFilteringRun(classifier, status string) {
	FilteringRunCount.WithLabelValues(classifier, status).Inc()
}

// IncrementTriageDecision counts a recorded triage decision.
func IncrementTriageDecision(state string) {
	TriageDecisionCount.WithLabelValues(state).Inc()
}

// RecordBrokerCallLatency records one identity broker round trip.
func RecordBrokerCallLatency(status string, duration time.Duration) {
	BrokerCallLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

// RecordGmailCallLatency records one Gmail API round trip.
func RecordGmailCallLatency(operation, status string, duration time.Duration) {
	GmailCallLatency.WithLabelValues(operation, status).Observe(float64(duration.Milliseconds()))
}
