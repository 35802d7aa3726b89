package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the evidence service,
// organized by subsystem: queries, provider searches, cache, dedup, and
// composition.
type Metrics struct {
	// QueriesTotal counts evidence queries received.
	QueriesTotal prometheus.Counter

	// QueriesEmpty counts queries that returned no evidence.
	QueriesEmpty prometheus.Counter

	// QueryDuration observes end-to-end query duration in seconds.
	QueryDuration prometheus.Histogram

	// SearchesStarted counts provider searches initiated, labeled by source.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful provider searches, labeled by source.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed provider searches, labeled by source.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes provider search duration in seconds, labeled by source.
	SearchDuration *prometheus.HistogramVec

	// ProvidersDegraded counts providers skipped after consecutive
	// failures, labeled by source.
	ProvidersDegraded *prometheus.CounterVec

	// CacheHits counts cache hits during aggregation.
	CacheHits prometheus.Counter

	// CacheMisses counts cache misses during aggregation.
	CacheMisses prometheus.Counter

	// DuplicatesDropped counts records removed by deduplication.
	DuplicatesDropped prometheus.Counter

	// RecordsReturned observes the number of records in final results.
	RecordsReturned prometheus.Histogram
}

// NewMetrics creates a Metrics instance registered with the default
// Prometheus registry. The namespace prefixes all metric names.
func NewMetrics(namespace string) *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer), namespace)
}

// NewMetricsWith creates a Metrics instance registered with a custom
// registerer. Tests use this to avoid duplicate registration panics.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	return newMetrics(promauto.With(reg), namespace)
}

func newMetrics(factory promauto.Factory, namespace string) *Metrics {
	return &Metrics{
		QueriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of evidence queries received",
		}),
		QueriesEmpty: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_empty_total",
			Help:      "Total number of evidence queries that returned no evidence",
		}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end duration of evidence queries in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		SearchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of provider searches started",
		}, []string{"source"}),
		SearchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of provider searches completed successfully",
		}, []string{"source"}),
		SearchesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of provider searches that failed",
		}, []string{"source"}),
		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of provider searches in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		ProvidersDegraded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "providers_degraded_total",
			Help:      "Total number of times a provider was skipped as degraded",
		}, []string{"source"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of result cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of result cache misses",
		}),
		DuplicatesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Total number of records removed by deduplication",
		}),
		RecordsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "records_returned",
			Help:      "Number of evidence records in final results",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		}),
	}
}
