package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crimelens_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"route", "status"},
	)

	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crimelens_http_request_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	AnalysisRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crimelens_analysis_requests_total",
			Help: "Total analysis requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crimelens_generation_latency_seconds",
			Help:    "Text generation latency in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"kind"},
	)

	GeneratedCharsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crimelens_generated_chars_total",
			Help: "Total characters of generated analysis text",
		},
		[]string{"kind"},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crimelens_dataset_rows",
			Help: "Rows in the loaded dataset after coordinate filtering",
		},
	)

	DatasetRowsDropped = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crimelens_dataset_rows_dropped",
			Help: "Rows dropped at load time for zero coordinates",
		},
	)
)

// Analysis outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeUpstream    = "upstream_error"
)
