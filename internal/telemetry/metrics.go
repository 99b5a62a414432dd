// Package telemetry exports the service's Prometheus metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the rage-tracker Prometheus metrics. A nil *Metrics is
// valid and records nothing, so components can run unmetered in tests.
type Metrics struct {
	EventsTotal     *prometheus.CounterVec
	DetectionsTotal prometheus.Counter
	ActiveSessions  prometheus.Gauge
	ClusterSize     prometheus.Histogram
}

// New registers the service metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		EventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rage_tracker_events_total",
			Help: "Click events ingested, by outcome (accepted, ignored, dropped)",
		}, []string{"status"}),
		DetectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rage_tracker_detections_total",
			Help: "Rage-click detections recorded",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rage_tracker_active_sessions",
			Help: "Sessions currently tracked by the registry",
		}),
		ClusterSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rage_tracker_cluster_size",
			Help:    "Click count of each recorded detection",
			Buckets: []float64{3, 4, 5, 7, 10, 15, 20},
		}),
	}
}

// Handler returns the Prometheus scrape handler for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// EventObserved counts one ingested click event by outcome.
func (m *Metrics) EventObserved(status string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(status).Inc()
}

// DetectionRecorded counts one recorded detection and its cluster size.
func (m *Metrics) DetectionRecorded(clicks int) {
	if m == nil {
		return
	}
	m.DetectionsTotal.Inc()
	m.ClusterSize.Observe(float64(clicks))
}

// SetActiveSessions updates the live session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
