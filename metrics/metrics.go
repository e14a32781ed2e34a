// Package metrics provides Prometheus metrics for the production engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/protrack/production-engine/production"
)

// Metrics records engine events on its own registry.
// It implements production.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	EntriesSubmitted  *prometheus.CounterVec
	TonnageRecorded   *prometheus.CounterVec
	EntriesDeleted    prometheus.Counter
	ValidationErrors  *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
}

var _ production.Recorder = (*Metrics)(nil)

// New creates the engine metrics plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		EntriesSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "production_entries_submitted_total",
				Help: "Total number of shift entries submitted",
			},
			[]string{"platform"},
		),

		TonnageRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "production_tonnage_recorded_total",
				Help: "Total tonnage recorded by submitted shift entries",
			},
			[]string{"platform"},
		),

		EntriesDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "production_entries_deleted_total",
				Help: "Total number of shift entries deleted",
			},
		),

		ValidationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "production_validation_errors_total",
				Help: "Total number of rejected drafts by error code",
			},
			[]string{"code"},
		),

		RecomputeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "production_recompute_duration_seconds",
				Help:    "Time taken to recompute summaries and reconciliations",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) EntrySubmitted(platform production.Platform, tonnage decimal.Decimal) {
	m.EntriesSubmitted.WithLabelValues(platform.String()).Inc()
	// Counters are float64; precision loss here only affects the exported metric.
	m.TonnageRecorded.WithLabelValues(platform.String()).Add(tonnage.InexactFloat64())
}

func (m *Metrics) EntryDeleted() {
	m.EntriesDeleted.Inc()
}

func (m *Metrics) ValidationFailed(code string) {
	m.ValidationErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) Recomputed(kind string, took time.Duration) {
	m.RecomputeDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
