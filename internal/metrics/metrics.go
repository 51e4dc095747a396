// Package metrics exposes Prometheus collectors for the preview service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	previewResolutionsTotal     *prometheus.CounterVec
	previewFetchDurationSeconds *prometheus.HistogramVec
	previewCacheLookupsTotal    *prometheus.CounterVec
	reconciliationsTotal        *prometheus.CounterVec
	reconcilerActiveWorkers     prometheus.Gauge
	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds  *prometheus.HistogramVec
	rateLimitDelaySeconds       *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		previewResolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preview_resolutions_total",
				Help: "Total number of URL resolutions, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		previewFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "preview_fetch_duration_seconds",
				Help:    "Histogram of outbound fetch latencies, labeled by source.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"source"},
		)

		previewCacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preview_cache_lookups_total",
				Help: "Total number of preview cache lookups, labeled by result.",
			},
			[]string{"result"},
		)

		reconciliationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciliations_total",
				Help: "Total number of reconciliation requests, labeled by terminal state.",
			},
			[]string{"state"},
		)

		reconcilerActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "reconciler_active_workers",
				Help: "Number of workers currently processing a request.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rate_limit_delay_seconds",
				Help:    "Histogram of time spent waiting on per-host fetch tokens.",
				Buckets: []float64{0.005, 0.05, 0.25, 1, 5, 15},
			},
			[]string{"host"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveResolution increments the resolution counter for a source
// ("oembed" or "scrape") and outcome ("resolved" or "none").
func ObserveResolution(source, outcome string) {
	Init()
	previewResolutionsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveFetchDuration records the duration of one outbound fetch.
func ObserveFetchDuration(source string, duration time.Duration) {
	Init()
	previewFetchDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveCacheLookup increments the cache lookup counter ("hit" or "miss").
func ObserveCacheLookup(result string) {
	Init()
	previewCacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveReconciliation increments the reconciliation counter for a
// terminal state.
func ObserveReconciliation(state string) {
	Init()
	reconciliationsTotal.WithLabelValues(state).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	reconcilerActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	reconcilerActiveWorkers.Dec()
}

// ObserveRateLimitDelay records time a fetch spent waiting for a token.
func ObserveRateLimitDelay(host string, delay time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(host).Observe(delay.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
