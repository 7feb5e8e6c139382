package metrics

import "github.com/prometheus/client_golang/prometheus"

// Extraction pipeline metrics.
var (
	ExtractionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crisisportal",
			Name:      "extraction_requests_total",
			Help:      "Total number of filter extraction provider calls",
		},
		[]string{"provider", "model", "status"},
	)

	ExtractionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crisisportal",
			Name:      "extraction_request_duration_seconds",
			Help:      "Filter extraction provider call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"provider", "model"},
	)

	ExtractionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crisisportal",
			Name:      "extraction_tokens_total",
			Help:      "Total tokens consumed by extraction providers",
		},
		[]string{"provider", "model", "type"}, // type: "input" / "output"
	)

	ExtractionFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crisisportal",
			Name:      "extraction_fallback_total",
			Help:      "Extractions answered by the keyword matcher",
		},
	)

	ExtractionBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crisisportal",
			Name:      "extraction_budget_tokens_remaining",
			Help:      "Remaining extraction token budget",
		},
		[]string{"provider", "period"},
	)

	FilterCorrectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crisisportal",
			Name:      "filter_corrections_total",
			Help:      "Service-type values seen by the filter corrector",
		},
		[]string{"action"}, // "kept" / "aliased" / "dropped"
	)
)

var extractionMetricsRegistered bool

// RegisterExtractionMetrics registers extraction metrics. Must be called once from main.
func RegisterExtractionMetrics() {
	if extractionMetricsRegistered {
		return
	}
	prometheus.MustRegister(ExtractionRequestsTotal)
	prometheus.MustRegister(ExtractionRequestDuration)
	prometheus.MustRegister(ExtractionTokensTotal)
	prometheus.MustRegister(ExtractionFallbackTotal)
	prometheus.MustRegister(ExtractionBudgetTokensRemaining)
	prometheus.MustRegister(FilterCorrectionsTotal)
	extractionMetricsRegistered = true
}
