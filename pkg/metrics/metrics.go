package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the scan counters. A nil *Metrics records nothing, so
// components can take one unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	// CursorOpens counts cursor opens by plan shape (forward, reverse, mixed).
	CursorOpens *prometheus.CounterVec
	// RowsReturned counts rows produced by index scans per index.
	RowsReturned *prometheus.CounterVec
	// RangesOpened counts physical range reads per index, mixed-plan group lookups included.
	RangesOpened *prometheus.CounterVec
	// Faults counts cursor errors by kind.
	Faults *prometheus.CounterVec
	// RowsLoaded counts index entries written by the loader.
	RowsLoaded *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CursorOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ixscan_cursor_opens_total",
				Help: "Total number of index scan cursors opened",
			},
			[]string{"index", "plan"},
		),
		RowsReturned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ixscan_rows_returned_total",
				Help: "Total number of rows returned by index scans",
			},
			[]string{"index"},
		),
		RangesOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ixscan_ranges_opened_total",
				Help: "Total number of physical range reads",
			},
			[]string{"index"},
		),
		Faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ixscan_cursor_faults_total",
				Help: "Total number of cursor errors by kind",
			},
			[]string{"kind"},
		),
		RowsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ixscan_rows_loaded_total",
				Help: "Total number of index entries loaded",
			},
			[]string{"index"},
		),
	}
	m.registry.MustRegister(m.CursorOpens, m.RowsReturned, m.RangesOpened, m.Faults, m.RowsLoaded)
	return m
}

func (m *Metrics) CursorOpened(index, plan string) {
	if m != nil {
		m.CursorOpens.WithLabelValues(index, plan).Inc()
	}
}

func (m *Metrics) RowReturned(index string) {
	if m != nil {
		m.RowsReturned.WithLabelValues(index).Inc()
	}
}

func (m *Metrics) RangeOpened(index string) {
	if m != nil {
		m.RangesOpened.WithLabelValues(index).Inc()
	}
}

func (m *Metrics) Fault(kind string) {
	if m != nil {
		m.Faults.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Loaded(index string, n int) {
	if m != nil {
		m.RowsLoaded.WithLabelValues(index).Add(float64(n))
	}
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
