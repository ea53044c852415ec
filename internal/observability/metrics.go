package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodgram_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodgram_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RelationToggles counts favorite, cart and follow mutations by outcome.
	RelationToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodgram_relation_toggles_total",
		Help: "Relation add/remove attempts by relation, action and outcome",
	}, []string{"relation", "action", "outcome"})

	// ShoppingListLines observes the number of aggregated lines per download.
	ShoppingListLines = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "foodgram_shopping_list_lines",
		Help:    "Aggregated ingredient lines per shopping list download",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
	})

	// CacheResults counts cache-aside lookups by key family and result.
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodgram_cache_results_total",
		Help: "Cache-aside lookups by key and result (hit, miss)",
	}, []string{"key", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordToggle increments the relation toggle counter.
func RecordToggle(relation, action, outcome string) {
	RelationToggles.WithLabelValues(relation, action, outcome).Inc()
}
