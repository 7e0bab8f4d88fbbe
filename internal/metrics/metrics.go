package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the attendance service
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal         *prometheus.CounterVec
	ScanDuration       prometheus.Histogram
	EventsMaterialized *prometheus.CounterVec
	DirectoryLookups   *prometheus.CounterVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_scans_total",
			Help: "Barcode scans by outcome",
		}, []string{"outcome"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_scan_duration_seconds",
			Help:    "Time spent resolving and recording a scan",
			Buckets: prometheus.DefBuckets,
		}),
		EventsMaterialized: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_events_materialized_total",
			Help: "Daily events created on demand from shared barcodes",
		}, []string{"event_type"}),
		DirectoryLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_directory_loads_total",
			Help: "Barcode directory snapshot loads by source",
		}, []string{"source"}),
	}
}

// ObserveScan records the outcome and latency of one scan
func (m *Metrics) ObserveScan(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(seconds)
}

// IncMaterialized counts a daily event created for eventType
func (m *Metrics) IncMaterialized(eventType string) {
	if m == nil {
		return
	}
	m.EventsMaterialized.WithLabelValues(eventType).Inc()
}

// IncDirectoryLoad counts a directory snapshot served from source ("cache" or "database")
func (m *Metrics) IncDirectoryLoad(source string) {
	if m == nil {
		return
	}
	m.DirectoryLookups.WithLabelValues(source).Inc()
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
