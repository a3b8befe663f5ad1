// Package metrics exposes import counters and timings to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "csv_import"

const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeDBError = "db_error"
)

// ImportMetrics is safe to use through a nil pointer, in which case every
// call is a no-op.
type ImportMetrics struct {
	rowsParsed   *prometheus.CounterVec
	rowsInserted *prometheus.CounterVec
	rowsSkipped  *prometheus.CounterVec
	imports      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	factory := promauto.With(reg)

	return &ImportMetrics{
		rowsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Total number of CSV data rows parsed.",
		}, []string{"variant"}),
		rowsInserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Total number of rows written to the database.",
		}, []string{"variant"}),
		rowsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Total number of parsed rows that were not written.",
		}, []string{"variant"}),
		imports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Total number of import requests by outcome.",
		}, []string{"variant", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Latency distribution for import requests.",
			Buckets: []float64{
				0.005, 0.01, 0.025,
				0.05, 0.1, 0.25,
				0.5, 1, 2.5, 5, 10,
			},
		}, []string{"variant", "outcome"}),
	}
}

func (m *ImportMetrics) ObserveRows(variant string, parsed, inserted int) {
	if m == nil {
		return
	}

	m.rowsParsed.WithLabelValues(variant).Add(float64(parsed))
	m.rowsInserted.WithLabelValues(variant).Add(float64(inserted))

	if skipped := parsed - inserted; skipped > 0 {
		m.rowsSkipped.WithLabelValues(variant).Add(float64(skipped))
	}
}

func (m *ImportMetrics) ObserveImport(variant, outcome string, started time.Time) {
	if m == nil {
		return
	}

	m.imports.WithLabelValues(variant, outcome).Inc()
	m.duration.WithLabelValues(variant, outcome).Observe(time.Since(started).Seconds())
}
