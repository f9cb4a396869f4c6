// Package metrics holds the Prometheus collectors for the generation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genscript_gateway_requests_total",
			Help: "Total number of LLM gateway calls by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genscript_gateway_request_duration_seconds",
			Help:    "Histogram of LLM gateway call durations.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. 64s
		},
		[]string{"backend"},
	)

	gatewayTotalTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genscript_gateway_total_tokens",
			Help:    "Histogram of total token counts reported by the gateway.",
			Buckets: prometheus.LinearBuckets(1000, 1000, 16),
		},
		[]string{"backend"},
	)

	ideasParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genscript_ideas_parsed_total",
			Help: "Total number of ideas parsed from gateway output by mode and strategy.",
		},
		[]string{"mode", "strategy"},
	)

	ideasSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genscript_ideas_saved_total",
		Help: "Total number of ideas inserted into the store.",
	})

	duplicatesRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genscript_duplicates_rejected_total",
		Help: "Total number of ideas rejected as duplicate titles.",
	})

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genscript_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genscript_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	snapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genscript_snapshots_total",
			Help: "Total number of database snapshots by status.",
		},
		[]string{"status"},
	)
)

// Gateway outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty_output"
	OutcomeError   = "error"
)

// ObserveGateway records one gateway call.
func ObserveGateway(backend, outcome string, d time.Duration, totalTokens int64) {
	gatewayRequestsTotal.WithLabelValues(backend, outcome).Inc()
	gatewayRequestDuration.WithLabelValues(backend).Observe(d.Seconds())
	if totalTokens > 0 {
		gatewayTotalTokens.WithLabelValues(backend).Observe(float64(totalTokens))
	}
}

// ObserveParse records the ideas produced by one parse.
func ObserveParse(mode, strategy string, n int) {
	ideasParsedTotal.WithLabelValues(mode, strategy).Add(float64(n))
}

// ObserveSave records the outcome of one save batch.
func ObserveSave(saved, duplicates int) {
	ideasSavedTotal.Add(float64(saved))
	duplicatesRejectedTotal.Add(float64(duplicates))
}

// ObserveHTTP records one served HTTP request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route, status string, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveSnapshot records a snapshot attempt.
func ObserveSnapshot(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	snapshotsTotal.WithLabelValues(status).Inc()
}
