package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core processing metrics shared by every run.
type Metrics struct {
	RunsTotal       prometheus.Counter
	FramesProcessed *prometheus.CounterVec
	FrameDuration   *prometheus.HistogramVec
	FrameRetries    prometheus.Counter
	WorkersActive   prometheus.Gauge
	PluginsLoaded   *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all core metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "pydidas",
				Subsystem: "runner",
				Name:      "runs_total",
				Help:      "Total number of workflow runs started",
			},
		),

		FramesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pydidas",
				Subsystem: "runner",
				Name:      "frames_processed_total",
				Help:      "Total number of frames processed by final status",
			},
			[]string{"status"},
		),

		FrameDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pydidas",
				Subsystem: "runner",
				Name:      "frame_duration_seconds",
				Help:      "Per-frame chain execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		FrameRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "pydidas",
				Subsystem: "runner",
				Name:      "frame_retries_total",
				Help:      "Total number of retried frame executions",
			},
		),

		WorkersActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "pydidas",
				Subsystem: "runner",
				Name:      "workers_active",
				Help:      "Number of currently active frame workers",
			},
		),

		PluginsLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pydidas",
				Subsystem: "plugins",
				Name:      "loaded",
				Help:      "Number of loaded plugin types by kind",
			},
			[]string{"kind"},
		),
	}
}

// RecordRunStarted increments the run counter.
func (m *Metrics) RecordRunStarted() {
	m.RunsTotal.Inc()
}

// RecordFrame records one finished frame with its duration and status.
func (m *Metrics) RecordFrame(status string, duration time.Duration) {
	m.FramesProcessed.WithLabelValues(status).Inc()
	m.FrameDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordRetry increments the retry counter.
func (m *Metrics) RecordRetry() {
	m.FrameRetries.Inc()
}

// RecordPluginsLoaded sets the per-kind plugin type gauge.
func (m *Metrics) RecordPluginsLoaded(kind string, count int) {
	m.PluginsLoaded.WithLabelValues(kind).Set(float64(count))
}
