// Package metrics defines the Prometheus collectors used by the indexer and
// the search service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	DocsIndexedTotal     prometheus.Counter
	DocsSkippedTotal     prometheus.Counter
	MalformedLinesTotal  *prometheus.CounterVec
	BuildStageDuration   *prometheus.HistogramVec
	VocabularySize       prometheus.Gauge
	PostingsTotal        prometheus.Gauge
}

// New creates all collectors and registers them with reg. Passing nil uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by model and result type (hit, zero_result, error).",
			},
			[]string{"model", "result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"model"},
		),
		SearchResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
			},
			[]string{"model"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents processed by the index build.",
			},
		),
		DocsSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_skipped_total",
				Help: "Listed documents skipped because their token file was missing.",
			},
		),
		MalformedLinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "artifact_malformed_records_total",
				Help: "Records skipped while loading artifacts, by artifact.",
			},
			[]string{"artifact"},
		),
		BuildStageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "build_stage_duration_seconds",
				Help:    "Duration of each index build stage.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage"},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vocabulary_size",
				Help: "Number of distinct terms in the vocabulary.",
			},
		),
		PostingsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "postings_total",
				Help: "Number of postings entries in the inverted index.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DocsIndexedTotal,
		m.DocsSkippedTotal,
		m.MalformedLinesTotal,
		m.BuildStageDuration,
		m.VocabularySize,
		m.PostingsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
