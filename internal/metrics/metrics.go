package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the showroom API and scripts
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// CMS Metrics
	CMSQueriesTotal   *prometheus.CounterVec
	CMSQueryDuration  *prometheus.HistogramVec
	CMSMutationsTotal *prometheus.CounterVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Batch job Metrics
	JobItemsTotal  *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
	RateLimitDrops prometheus.Counter
}

// NewMetricsRegistry registers every metric with reg. Pass
// prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	f := promauto.With(reg)

	return &MetricsRegistry{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showroom_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showroom_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "showroom_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method"},
		),

		CMSQueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showroom_cms_queries_total",
				Help: "Total CMS queries by query name and outcome",
			},
			[]string{"query", "outcome"},
		),
		CMSQueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showroom_cms_query_duration_seconds",
				Help:    "CMS query round-trip time in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"query"},
		),
		CMSMutationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showroom_cms_mutations_total",
				Help: "Total CMS mutation transactions by outcome",
			},
			[]string{"outcome"},
		),

		CacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showroom_cache_hits_total",
				Help: "Total query cache hits by query name",
			},
			[]string{"query"},
		),
		CacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showroom_cache_misses_total",
				Help: "Total query cache misses by query name",
			},
			[]string{"query"},
		),

		JobItemsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showroom_job_items_total",
				Help: "Documents processed by maintenance jobs, by job and outcome",
			},
			[]string{"job", "outcome"},
		),
		JobDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showroom_job_duration_seconds",
				Help:    "Maintenance job execution time in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"job"},
		),
		RateLimitDrops: f.NewCounter(
			prometheus.CounterOpts{
				Name: "showroom_rate_limited_requests_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
	}
}

// NewNopRegistry returns metrics bound to a private registry that nothing scrapes.
func NewNopRegistry() *MetricsRegistry {
	return NewMetricsRegistry(prometheus.NewRegistry())
}
