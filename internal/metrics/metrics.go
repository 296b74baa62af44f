// Package metrics registers the Prometheus series the teacher's codebase
// never had (it shipped with tracing only); this is the ambient metrics
// layer a complete service in this domain needs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestStageDuration tracks latency per ingestion pipeline stage.
	IngestStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "resumatch",
		Subsystem: "ingest",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each ingestion pipeline stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	// EmbedderRetries counts embedding attempts beyond the first.
	EmbedderRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resumatch",
		Subsystem: "embedder",
		Name:      "retries_total",
		Help:      "Embedding call retries, labeled by outcome.",
	}, []string{"outcome"})

	// MatchScore records the distribution of computed match scores.
	MatchScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "resumatch",
		Subsystem: "match",
		Name:      "score",
		Help:      "Computed match_score values.",
		Buckets:   []float64{0, 10, 20, 30, 40, 50, 55, 70, 80, 90, 100},
	})

	// RoadmapDuration tracks end-to-end roadmap generation latency.
	RoadmapDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "resumatch",
		Subsystem: "roadmap",
		Name:      "generate_duration_seconds",
		Help:      "Duration of roadmap generation, including the LLM call.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// IngestionFailures counts documents that reached the failed state.
	IngestionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resumatch",
		Subsystem: "ingest",
		Name:      "failures_total",
		Help:      "Documents whose ingestion ended in the failed state.",
	}, []string{"file_type", "reason"})
)
