package parameters

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records loader outcomes on a private registry. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	fetchedBytes  *prometheus.CounterVec
}

// NewMetrics creates the loader metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		stageTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manta_parameters_stage_total",
				Help: "Artifact pipeline stages run, by artifact, stage and result",
			},
			[]string{"artifact", "stage", "result"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "manta_parameters_stage_duration_seconds",
				Help:    "Duration of artifact pipeline stages in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"stage"},
		),
		fetchedBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manta_parameters_fetched_bytes_total",
				Help: "Artifact bytes fetched, by source",
			},
			[]string{"source"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes the metrics to path in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) recordStage(name Name, stage string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.stageTotal.WithLabelValues(string(name), stage, result).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordBytes(source Source, n int) {
	if m == nil {
		return
	}
	m.fetchedBytes.WithLabelValues(string(source)).Add(float64(n))
}
