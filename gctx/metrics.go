package gctx

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of GCTX readers and writers.
type Metrics struct {
	// Reads is labelled by the plan mode: empty, bulk, single-axis,
	// dual-axis or metadata-only.
	Reads        *prometheus.CounterVec
	Writes       prometheus.Counter
	CellsRead    prometheus.Counter
	// Errors is labelled by operation: read, write, row-meta or
	// column-meta.
	Errors       *prometheus.CounterVec
	ReadDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	reads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gctx_reads_total",
		Help: "Total GCTX reads by mode",
	}, []string{"mode"})

	writes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gctx_writes_total",
		Help: "Total GCTX files written",
	})

	cells := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gctx_matrix_cells_read_total",
		Help: "Total matrix cells read from storage",
	})

	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gctx_errors_total",
		Help: "Total failed GCTX operations",
	}, []string{"op"})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gctx_read_duration_seconds",
		Help:    "Duration of GCTX reads",
		// 1ms to about 16s.
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	reg.MustRegister(reads, writes, cells, errs, duration)

	return &Metrics{
		Reads:        reads,
		Writes:       writes,
		CellsRead:    cells,
		Errors:       errs,
		ReadDuration: duration,
	}
}

// read records one successful read. A nil *Metrics records nothing, and
// so do the other recorders.
func (m *Metrics) read(mode string, cells int, start time.Time) {
	if m == nil {
		return
	}
	m.Reads.WithLabelValues(mode).Inc()
	m.CellsRead.Add(float64(cells))
	m.ReadDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) wrote() {
	if m != nil {
		m.Writes.Inc()
	}
}

func (m *Metrics) failed(op string) {
	if m != nil {
		m.Errors.WithLabelValues(op).Inc()
	}
}
