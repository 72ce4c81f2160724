// Package telemetry exports sync run metrics in Prometheus format.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/academic-program/reporting-api/internal/entities"
)

const namespace = "academic_reporting"

// SyncMetrics records one observation per finished sync run.
type SyncMetrics struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	universities prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

// NewSyncMetrics creates the collectors on a private registry. Go runtime and
// process collectors are included.
func NewSyncMetrics() *SyncMetrics {
	m := &SyncMetrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Finished sync runs by status and type.",
		}, []string{"status", "type"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_run_duration_seconds",
			Help:      "Wall time of finished sync runs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),
		universities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "synced_universities",
			Help:      "Universities fetched by the last successful sync.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_sync_timestamp_seconds",
			Help:      "Unix time the last successful sync completed.",
		}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.universities,
		m.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records a finished run.
func (m *SyncMetrics) ObserveRun(run entities.SyncRun, duration time.Duration, universities int) {
	m.runsTotal.WithLabelValues(string(run.Status), string(run.SyncType)).Inc()
	m.runDuration.WithLabelValues(string(run.Status)).Observe(duration.Seconds())

	if run.Status != entities.SyncStatusSuccess {
		return
	}
	m.universities.Set(float64(universities))
	completed := time.Now()
	if run.CompletedAt != nil {
		completed = *run.CompletedAt
	}
	m.lastSuccess.Set(float64(completed.Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *SyncMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
