// Package observability exposes the engine's Prometheus metrics and the
// OTLP tracer provider.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	reconciledomain "github.com/studioledger/studioledger/internal/reconcile/domain"
)

// Metrics exposes Prometheus observability primitives for reconciliation
// runs.
type Metrics struct {
	runs                *prometheus.CounterVec
	runDuration         *prometheus.HistogramVec
	rows                *prometheus.CounterVec
	verifiedRate        prometheus.Gauge
	allocationFallbacks prometheus.Counter
	discountAnnotations prometheus.Counter
}

// NewMetrics registers and returns the run metrics.
func NewMetrics() *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studioledger_runs_total",
		Help: "Counts reconciliation runs by mode and outcome.",
	}, []string{"mode", "status"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studioledger_run_duration_seconds",
		Help:    "Reconciliation run durations by mode.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studioledger_rows_total",
		Help: "Counts produced ledger rows by verification status.",
	}, []string{"status"})

	verifiedRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "studioledger_verified_rate",
		Help: "Share of rows verified in the latest run, in [0,1].",
	})

	allocationFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studioledger_allocation_fallbacks_total",
		Help: "Counts rows funded via the unverified-invoice fallback.",
	})

	discountAnnotations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studioledger_discount_annotations_total",
		Help: "Counts rows annotated with a discount.",
	})

	prometheus.MustRegister(
		runs,
		runDuration,
		rows,
		verifiedRate,
		allocationFallbacks,
		discountAnnotations,
	)

	return &Metrics{
		runs:                runs,
		runDuration:         runDuration,
		rows:                rows,
		verifiedRate:        verifiedRate,
		allocationFallbacks: allocationFallbacks,
		discountAnnotations: discountAnnotations,
	}
}

// ObserveRun records one finished run and its latency.
func (m *Metrics) ObserveRun(mode, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(mode, status).Inc()
	m.runDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// ObserveSummary records the row counts and verified rate of one run.
func (m *Metrics) ObserveSummary(s reconciledomain.Summary) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(string(reconciledomain.StatusVerified)).Add(float64(s.Verified))
	m.rows.WithLabelValues(string(reconciledomain.StatusNotVerified)).Add(float64(s.NotVerified))
	m.rows.WithLabelValues(string(reconciledomain.StatusPackageMissing)).Add(float64(s.PackageMissing))
	m.verifiedRate.Set(s.VerifiedRate())
}

// IncAllocationFallback counts one unverified-invoice fallback.
func (m *Metrics) IncAllocationFallback() {
	if m == nil {
		return
	}
	m.allocationFallbacks.Inc()
}

// AddDiscountAnnotations counts newly annotated rows.
func (m *Metrics) AddDiscountAnnotations(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.discountAnnotations.Add(float64(count))
}
