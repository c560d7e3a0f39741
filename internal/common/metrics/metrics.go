// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	IngestPostsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_ingester_posts_processed_total",
			Help: "Total postings handled by the ingestion guard by outcome",
		},
		[]string{"source", "outcome"},
	)

	// Matching
	MatcherLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_matcher_latency_seconds",
			Help:    "Latency of matching stage calls",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	StageItemsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_items_failed_total",
			Help: "Job ids that failed inside a stage",
		},
		[]string{"stage"},
	)

	// Remote compute
	WakeOnLANSuccess = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gaming_pc_wol_success_total",
			Help: "Successful remote compute wake-ups",
		},
	)

	WakeOnLANFailure = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gaming_pc_wol_failure_total",
			Help: "Remote compute wake-ups that exhausted all attempts",
		},
	)

	// Generation
	GeneratorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_generator_latency_seconds",
			Help:    "Latency of draft generation",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	// Orchestration
	PipelineTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_task_duration_seconds",
			Help: "Duration of each pipeline step",
		},
		[]string{"task"},
	)

	PipelineBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_batches_total",
			Help: "Completed batch runs by result",
		},
		[]string{"result"},
	)

	PipelineBatchesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_batches_active",
			Help: "Batch runs currently in flight",
		},
	)

	PendingQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_pending_urls",
			Help: "URLs waiting in the ingestion queue at the last scheduler tick",
		},
	)
)
