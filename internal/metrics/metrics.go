// Package metrics exposes processing counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"jellysports/internal/services"
)

// Metrics holds the pipeline instruments.
type Metrics struct {
	FilesProcessed     *prometheus.CounterVec
	CatalogMatches     *prometheus.CounterVec
	ProcessDuration    prometheus.Histogram
	WatchEvents        prometheus.Counter
	QueueDepth         prometheus.Gauge
	WatchedDirectories prometheus.Gauge
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jellysports",
			Subsystem: "processor",
			Name:      "files_total",
			Help:      "Files processed, by outcome.",
		}, []string{"outcome"}),
		CatalogMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jellysports",
			Subsystem: "resolver",
			Name:      "matches_total",
			Help:      "Catalog events matched, by strategy.",
		}, []string{"strategy"}),
		ProcessDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jellysports",
			Subsystem: "processor",
			Name:      "duration_seconds",
			Help:      "Time spent processing one file.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		WatchEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jellysports",
			Subsystem: "watcher",
			Name:      "events_total",
			Help:      "Settled file events delivered by the watcher.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jellysports",
			Subsystem: "daemon",
			Name:      "queue_depth",
			Help:      "Files waiting for a worker.",
		}),
		WatchedDirectories: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jellysports",
			Subsystem: "watcher",
			Name:      "directories",
			Help:      "Directories currently watched.",
		}),
	}
	for _, outcome := range []services.Outcome{services.OutcomeMatched, services.OutcomeNoMatch, services.OutcomeRejected, services.OutcomeFailed} {
		m.FilesProcessed.WithLabelValues(string(outcome))
	}

	reg.MustRegister(
		m.FilesProcessed,
		m.CatalogMatches,
		m.ProcessDuration,
		m.WatchEvents,
		m.QueueDepth,
		m.WatchedDirectories,
	)
	return m
}

// ObserveFile records one processed file. strategy is empty when no catalog
// event was matched.
func (m *Metrics) ObserveFile(err error, strategy string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FilesProcessed.WithLabelValues(string(services.Classify(err))).Inc()
	if strategy != "" {
		m.CatalogMatches.WithLabelValues(strategy).Inc()
	}
	m.ProcessDuration.Observe(elapsed.Seconds())
}
