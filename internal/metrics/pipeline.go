package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion, enrichment and LLM metrics.
var (
	IngestFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_files_total",
			Help:      "Resume files processed by extraction outcome",
		},
		[]string{"outcome"}, // ok / empty / failed / timeout
	)

	IngestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_stage_duration_seconds",
			Help:      "Ingestion stage duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"}, // extract / embed / total
	)

	CatalogDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_documents",
			Help:      "Documents in the currently published catalog",
		},
	)

	EnrichCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_candidates_total",
			Help:      "Enriched candidates by terminal status",
		},
		[]string{"status"},
	)

	EnrichDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrich_candidate_duration_seconds",
			Help:      "Per-candidate enrichment duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Chat completion requests by provider and outcome",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Chat completion duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	LLMBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "llm_circuit_state",
			Help:      "LLM circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers ingestion, enrichment and LLM metrics. Safe to call repeatedly.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(
			IngestFilesTotal,
			IngestDuration,
			CatalogDocuments,
			EnrichCandidatesTotal,
			EnrichDuration,
			LLMRequestsTotal,
			LLMRequestDuration,
			LLMBreakerState,
		)
	})
}
