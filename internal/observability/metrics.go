package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, gauges, and histograms for one
// reconciliation run.
type Metrics struct {
	SnapshotsFetched prometheus.Counter
	RecordsParsed    prometheus.Counter
	RecordsDropped   prometheus.Counter // rows with unparseable timestamps

	// Reconciliation metrics.
	DuplicatesCollapsed prometheus.Counter
	RowsSynthesized     prometheus.Counter
	CoarseRowsDropped   prometheus.Counter
	PanelRows           prometheus.Gauge

	RunActive   prometheus.Gauge
	RunDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SnapshotsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncov_etl",
			Name:      "snapshots_fetched_total",
			Help:      "Daily snapshot files retrieved from the source.",
		}),
		RecordsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncov_etl",
			Name:      "records_parsed_total",
			Help:      "Raw records parsed from all snapshots.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncov_etl",
			Name:      "records_dropped_total",
			Help:      "Records dropped at normalization for unparseable timestamps.",
		}),
		DuplicatesCollapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncov_etl",
			Name:      "duplicates_collapsed_total",
			Help:      "Same-day same-location records collapsed by dedup.",
		}),
		RowsSynthesized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncov_etl",
			Name:      "rows_synthesized_total",
			Help:      "Panel rows synthesized by carry-forward gap filling.",
		}),
		CoarseRowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncov_etl",
			Name:      "coarse_rows_dropped_total",
			Help:      "Superseded state-only rows removed after the cutover date.",
		}),
		PanelRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ncov_etl",
			Name:      "panel_rows",
			Help:      "Rows in the reconciled panel after the last run.",
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ncov_etl",
			Name:      "run_active",
			Help:      "1 while a pipeline run is executing, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ncov_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-reconcile-aggregate run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	prometheus.MustRegister(
		m.SnapshotsFetched,
		m.RecordsParsed,
		m.RecordsDropped,
		m.DuplicatesCollapsed,
		m.RowsSynthesized,
		m.CoarseRowsDropped,
		m.PanelRows,
		m.RunActive,
		m.RunDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SnapshotsFetched:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ncov_etl", Name: "snapshots_fetched_total"}),
		RecordsParsed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ncov_etl", Name: "records_parsed_total"}),
		RecordsDropped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ncov_etl", Name: "records_dropped_total"}),
		DuplicatesCollapsed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ncov_etl", Name: "duplicates_collapsed_total"}),
		RowsSynthesized:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ncov_etl", Name: "rows_synthesized_total"}),
		CoarseRowsDropped:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ncov_etl", Name: "coarse_rows_dropped_total"}),
		PanelRows:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "ncov_etl", Name: "panel_rows"}),
		RunActive:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "ncov_etl", Name: "run_active"}),
		RunDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ncov_etl", Name: "run_duration_seconds"}),
	}
}
