package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phonecbr_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "phonecbr_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Retrieval Metrics
	RetrievalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phonecbr_retrieval_total",
			Help: "Total number of retrieval passes by outcome",
		},
		[]string{"outcome"},
	)

	RetrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "phonecbr_retrieval_duration_seconds",
			Help:    "Duration of one retrieval pass in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	RetrievalCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "phonecbr_retrieval_candidates",
			Help:    "Records surviving the hard filters per retrieval pass",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// Evaluation Metrics
	EvaluationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phonecbr_evaluation_runs_total",
			Help: "Total number of evaluation scenarios run",
		},
		[]string{"scenario", "outcome"},
	)

	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "phonecbr_evaluation_duration_seconds",
			Help:    "Duration of one evaluation scenario in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scenario"},
	)

	EvaluationAccuracy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "phonecbr_evaluation_accuracy",
			Help: "Accuracy of the most recent run per scenario",
		},
		[]string{"scenario"},
	)

	// Catalog Metrics
	CatalogVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "phonecbr_catalog_version",
			Help: "Current catalog snapshot version",
		},
	)

	CatalogPhones = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "phonecbr_catalog_phones",
			Help: "Number of phones in the catalog",
		},
	)

	DegenerateAttributes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "phonecbr_degenerate_attributes",
			Help: "Numeric attributes with zero variance in the current snapshot",
		},
	)

	// Weight Metrics
	WeightUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phonecbr_weight_updates_total",
			Help: "Weight vector update attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRetrieval records one retrieval pass
func RecordRetrieval(duration time.Duration, candidates int, err error) {
	if err != nil {
		RetrievalTotal.WithLabelValues("error").Inc()
		return
	}
	RetrievalTotal.WithLabelValues("ok").Inc()
	RetrievalDuration.Observe(duration.Seconds())
	RetrievalCandidates.Observe(float64(candidates))
}

// RecordEvaluation records one evaluation scenario
func RecordEvaluation(scenario string, duration time.Duration, accuracy float64, err error) {
	if err != nil {
		EvaluationRuns.WithLabelValues(scenario, "error").Inc()
		return
	}
	EvaluationRuns.WithLabelValues(scenario, "ok").Inc()
	EvaluationDuration.WithLabelValues(scenario).Observe(duration.Seconds())
	EvaluationAccuracy.WithLabelValues(scenario).Set(accuracy)
}

// RecordCatalog publishes the snapshot gauges.
func RecordCatalog(version uint64, phones, degenerate int) {
	CatalogVersion.Set(float64(version))
	CatalogPhones.Set(float64(phones))
	DegenerateAttributes.Set(float64(degenerate))
}

// RecordWeightUpdate counts a weight update attempt.
func RecordWeightUpdate(accepted bool) {
	if accepted {
		WeightUpdates.WithLabelValues("accepted").Inc()
		return
	}
	WeightUpdates.WithLabelValues("rejected").Inc()
}
