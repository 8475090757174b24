// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_events_processed_total",
			Help: "Total number of events processed by verdict",
		},
		[]string{"event_type", "verdict"},
	)

	EventProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_event_processing_duration_seconds",
			Help: "Duration of event processing in seconds",
		},
		[]string{"event_type"},
	)

	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_generation_attempts_total",
			Help: "Content generation attempts per provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	AssetsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_assets_persisted_total",
			Help: "Documents persisted per collection",
		},
		[]string{"collection"},
	)

	EventsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipeline_events_in_flight",
			Help: "Number of events currently being handled",
		},
		[]string{"event_type"},
	)
)
