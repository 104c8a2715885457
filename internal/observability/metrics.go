package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-ayodele/spendify/internal/extract"
)

var (
	// HTTPRequestsTotal counts HTTP requests by route pattern and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendify_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spendify_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// PipelineStageDuration tracks OCR, completion and assembly latency.
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spendify_pipeline_stage_duration_seconds",
			Help:    "Receipt pipeline stage duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// PipelineFallbacks counts substitutions made when a stage is unavailable.
	PipelineFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendify_pipeline_fallbacks_total",
			Help: "Pipeline fallbacks by kind (ocr_text, mock_llm)",
		},
		[]string{"kind"},
	)

	// AmountOutcomes counts how each amount field was normalized.
	AmountOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendify_extract_amount_outcomes_total",
			Help: "Amount normalization outcomes by field",
		},
		[]string{"field", "outcome"},
	)

	// DegradedTotal counts completions that carried no usable JSON object.
	DegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spendify_extract_degraded_total",
		Help: "Completions assembled from the degraded default record",
	})

	// CurrencyDefaultTotal counts assemblies whose currency fell back to the default.
	CurrencyDefaultTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spendify_extract_currency_default_total",
		Help: "Assemblies whose currency hint was missing or unrecognized",
	})

	// QueueDepth reports jobs waiting in the import queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spendify_import_queue_depth",
		Help: "Jobs waiting in the import queue",
	})
)

// RecordAssembly bumps the extraction outcome counters for one assembled receipt.
func RecordAssembly(a extract.Assembly) {
	AmountOutcomes.WithLabelValues(extract.KeyTotalAmount, a.Total.Outcome.String()).Inc()
	AmountOutcomes.WithLabelValues(extract.KeyTax, a.Tax.Outcome.String()).Inc()
	if a.Degraded {
		DegradedTotal.Inc()
	}
	if !a.CurrencyMatched {
		CurrencyDefaultTotal.Inc()
	}
}
