// Package metrics exposes Prometheus metrics for the proxy.
//
// The collector owns a private registry so tests and embedded uses
// never collide with the global default registry. Metrics cover the
// decision engine, request latency per backend, and the three
// post-decision stages (fallback, enhancement, recording).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the collector.
type Config struct {
	// Enabled turns metric recording on. A disabled collector still
	// serves an (empty) scrape endpoint.
	Enabled bool

	// Namespace prefixes every metric name.
	Namespace string
}

// Collector records proxy metrics on a private registry.
type Collector struct {
	cfg      Config
	registry *prometheus.Registry

	decisions       *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fallbacks       *prometheus.CounterVec
	enhancements    *prometheus.CounterVec
	recordings      *prometheus.CounterVec
}

// NewCollector creates and registers the proxy metrics.
func NewCollector(cfg Config) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "meridian"
	}

	c := &Collector{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),

		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "decisions_total",
				Help:      "Routing decisions by backend and rule class",
			},
			[]string{"backend", "reason"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "Proxied request duration by backend",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"backend"},
		),

		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "fallbacks_total",
				Help:      "Fallback supervisor outcomes",
			},
			[]string{"outcome"},
		),

		enhancements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "enhancements_total",
				Help:      "Response enhancement outcomes",
			},
			[]string{"outcome"},
		),

		recordings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "recordings_total",
				Help:      "Exchange recording outcomes",
			},
			[]string{"outcome"},
		),
	}

	c.registry.MustRegister(
		c.decisions,
		c.requestDuration,
		c.fallbacks,
		c.enhancements,
		c.recordings,
	)

	return c
}

// RecordDecision records one routing decision.
func (c *Collector) RecordDecision(backend, reason string) {
	if !c.cfg.Enabled {
		return
	}
	c.decisions.WithLabelValues(backend, reason).Inc()
}

// ObserveRequest records the duration of one proxied request.
func (c *Collector) ObserveRequest(backend string, duration time.Duration) {
	if !c.cfg.Enabled {
		return
	}
	c.requestDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordFallback records a fallback outcome ("applied", "miss" or
// "error").
func (c *Collector) RecordFallback(outcome string) {
	if !c.cfg.Enabled {
		return
	}
	c.fallbacks.WithLabelValues(outcome).Inc()
}

// RecordEnhancement records an enhancement outcome ("applied" or
// "failed").
func (c *Collector) RecordEnhancement(outcome string) {
	if !c.cfg.Enabled {
		return
	}
	c.enhancements.WithLabelValues(outcome).Inc()
}

// RecordRecording records a recorder outcome ("recorded", "skipped",
// "dropped" or "failed").
func (c *Collector) RecordRecording(outcome string) {
	if !c.cfg.Enabled {
		return
	}
	c.recordings.WithLabelValues(outcome).Inc()
}

// Handler returns the scrape handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the private registry for additional registrations.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
