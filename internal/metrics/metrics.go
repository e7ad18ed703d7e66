// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinevibe_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinevibe_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Ranking
	RankingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinevibe_ranking_requests_total",
			Help: "Total number of ranking calls by strategy and outcome",
		},
		[]string{"strategy", "result"}, // result: "success", "error"
	)

	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinevibe_ranking_duration_seconds",
			Help:    "Ranking latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"strategy"},
	)

	RankingFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinevibe_ranking_fallbacks_total",
			Help: "Total number of times a primary ranker was replaced by its fallback",
		},
		[]string{"primary", "secondary"},
	)

	RemoteHealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinevibe_remote_health_checks_total",
			Help: "Remote ranking endpoint health probes",
		},
		[]string{"result"}, // "healthy", "unhealthy"
	)

	// Catalog
	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinevibe_catalog_movies",
			Help: "Number of movies in the loaded catalog",
		},
	)

	// Ingest
	IngestItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinevibe_ingest_items_total",
			Help: "Movies handled by the ingester",
		},
		[]string{"result"}, // "processed", "skipped", "failed"
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinevibe_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinevibe_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinevibe_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRanking records one ranking call.
func RecordRanking(strategy string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	RankingRequests.WithLabelValues(strategy, result).Inc()
	RankingDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordFallback records that secondary served a query primary could not.
func RecordFallback(primary, secondary string) {
	RankingFallbacks.WithLabelValues(primary, secondary).Inc()
}

// RecordHealthCheck records the outcome of a remote health probe.
func RecordHealthCheck(healthy bool) {
	if healthy {
		RemoteHealthChecks.WithLabelValues("healthy").Inc()
		return
	}
	RemoteHealthChecks.WithLabelValues("unhealthy").Inc()
}

// SetCatalogSize publishes the loaded catalog size.
func SetCatalogSize(n int) {
	CatalogSize.Set(float64(n))
}

// RecordIngestItem records one movie handled by the ingester.
func RecordIngestItem(result string) {
	IngestItems.WithLabelValues(result).Inc()
}
