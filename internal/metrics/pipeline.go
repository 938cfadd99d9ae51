package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	PipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "namedex",
			Name:      "pipeline_requests_total",
			Help:      "Total pipeline requests by terminal status",
		},
		[]string{"status"}, // success / degraded / failed
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "namedex",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	PipelineRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "namedex",
			Name:      "pipeline_retries_total",
			Help:      "Total stage retries",
		},
		[]string{"stage"},
	)

	CollectionSearchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "namedex",
			Name:      "collection_search_failures_total",
			Help:      "Per-collection search failures degraded to empty results",
		},
		[]string{"collection", "reason"}, // reason: timeout / error
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRequestsTotal)
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(PipelineRetriesTotal)
	prometheus.MustRegister(CollectionSearchFailures)
	pipelineMetricsRegistered = true
}
