// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records store query latency by operation and collection.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Store query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"driver", "operation", "table"})

	// MediaOperations counts media host calls by operation and outcome.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_media_operations_total",
		Help: "Total media host operations by operation and result",
	}, []string{"host", "operation", "result"})

	// CacheLookups counts cache-aside reads by result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})

	// CascadeCleanupFailures counts delete-cascade steps that failed after the article was removed.
	CascadeCleanupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cascade_cleanup_failures_total",
		Help: "Cleanup steps that failed after an article was deleted",
	}, []string{"step"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(driver, operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(driver, operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordMedia counts one media host call.
func RecordMedia(host, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	MediaOperations.WithLabelValues(host, operation, result).Inc()
}
