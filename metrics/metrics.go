// Package metrics provides Prometheus metrics collection for the extraction
// service. It exports HTTP request metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// and extraction pipeline metrics:
//   - documents_processed_total / document_failures_total
//   - regions_missing_total: Counter with region label
//   - batch_duration_seconds / batch_rows
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Rate limiter buckets surviving the last cleanup sweep",
		},
	)

	DocumentsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_processed_total",
			Help: "Documents successfully decoded and extracted",
		},
	)

	DocumentFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_failures_total",
			Help: "Documents dropped from a batch",
		},
		[]string{"reason"},
	)

	RegionsMissingTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regions_missing_total",
			Help: "Region rows absent from processed documents",
		},
		[]string{"region"},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_duration_seconds",
			Help:    "Intake batch processing time",
			Buckets: []float64{.1, .5, 1, 5, 15, 60, 300},
		},
	)

	BatchRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "batch_rows",
			Help: "Composite rows in the current batch",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DocumentsProcessedTotal)
	prometheus.MustRegister(DocumentFailuresTotal)
	prometheus.MustRegister(RegionsMissingTotal)
	prometheus.MustRegister(BatchDuration)
	prometheus.MustRegister(BatchRows)
}
