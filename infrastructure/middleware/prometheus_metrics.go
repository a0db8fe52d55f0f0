// Package middleware provides cross-cutting concerns for the reactor
// runtime: Prometheus metrics and OpenTelemetry tracing over the
// scheduler's execution, attached through the ExecutionObserver port.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-reactor/internal/domain"
)

// PrometheusMetrics implements the ExecutionObserver interface using
// Prometheus. It provides real-time monitoring of wave throughput,
// reaction counts, event-queue depth, and wave latency.
type PrometheusMetrics struct {
	wavesTotal     prometheus.Counter
	reactionsTotal prometheus.Counter
	queueDepth     prometheus.Gauge
	waveLatency    prometheus.Histogram
	wavePending    prometheus.Histogram
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers its collectors with the given registerer. Pass a fresh
// registry in tests to avoid duplicate-registration panics.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		wavesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reactor_waves_total",
			Help: "Total number of reaction waves executed.",
		}),
		reactionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reactor_reactions_fired_total",
			Help: "Total number of reactions fired across all waves.",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reactor_event_queue_depth",
			Help: "Number of distinct tags pending in the event queue.",
		}),
		waveLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reactor_wave_duration_seconds",
			Help:    "Wall-clock duration of reaction waves.",
			Buckets: prometheus.DefBuckets,
		}),
		wavePending: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reactor_wave_initial_reactions",
			Help:    "Number of reactions pending when a wave starts.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
	}
}

// WaveStarted implements ExecutionObserver by recording the initial
// size of the wave.
func (pm *PrometheusMetrics) WaveStarted(_ domain.LogicalTag, pending int) {
	pm.wavePending.Observe(float64(pending))
}

// WaveCompleted implements ExecutionObserver by counting the wave and
// observing its latency.
func (pm *PrometheusMetrics) WaveCompleted(_ domain.LogicalTag, _ int, elapsed time.Duration) {
	pm.wavesTotal.Inc()
	pm.waveLatency.Observe(elapsed.Seconds())
}

// ReactionFired implements ExecutionObserver by counting the reaction.
func (pm *PrometheusMetrics) ReactionFired(domain.GlobalReactionID, domain.LogicalTag) {
	pm.reactionsTotal.Inc()
}

// QueueDepth implements ExecutionObserver by tracking the queue depth
// gauge.
func (pm *PrometheusMetrics) QueueDepth(n int) {
	pm.queueDepth.Set(float64(n))
}
