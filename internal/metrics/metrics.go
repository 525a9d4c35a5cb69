// Package metrics exports check outcomes as Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leapstack-labs/leapcheck/internal/events"
)

// Outcome label values.
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeErrored = "errored"
	OutcomeSkipped = "skipped"
)

// Collector is a durable event subscriber that counts check outcomes and
// observes check durations on its own registry.
type Collector struct {
	registry *prometheus.Registry
	checks   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	expanded prometheus.Counter
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leapcheck",
			Name:      "checks_total",
			Help:      "Checks by terminal outcome and check type.",
		}, []string{"outcome", "check_type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leapcheck",
			Name:      "check_duration_seconds",
			Help:      "Time spent running a check.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"check_type"}),
		expanded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leapcheck",
			Name:      "expanded_entities_total",
			Help:      "Entities produced by match patterns.",
		}),
	}
	c.registry.MustRegister(c.checks, c.duration, c.expanded)
	return c
}

// Kinds implements events.Subscriber.
func (c *Collector) Kinds() []events.Kind {
	return []events.Kind{
		events.KindCheckPassed,
		events.KindCheckFailed,
		events.KindCheckError,
		events.KindUnknownCheck,
		events.KindEntityExpanding,
	}
}

// Handle implements events.Subscriber.
func (c *Collector) Handle(ev events.Event) error {
	switch e := ev.(type) {
	case events.CheckPassedEvent:
		c.checks.WithLabelValues(OutcomePassed, e.Check.CheckType).Inc()
		c.duration.WithLabelValues(e.Check.CheckType).Observe(e.Duration.Seconds())
	case events.CheckFailedEvent:
		c.checks.WithLabelValues(OutcomeFailed, e.CheckType).Inc()
		c.duration.WithLabelValues(e.CheckType).Observe(e.Duration.Seconds())
	case events.CheckErrorEvent:
		c.checks.WithLabelValues(OutcomeErrored, e.Check.CheckType).Inc()
		c.duration.WithLabelValues(e.Check.CheckType).Observe(e.Duration.Seconds())
	case events.UnknownCheckEvent:
		c.checks.WithLabelValues(OutcomeSkipped, e.CheckName).Inc()
	case events.EntityExpandingEvent:
		c.expanded.Add(float64(len(e.Expansion)))
	}
	return nil
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics over HTTP.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

var _ events.Subscriber = (*Collector)(nil)
