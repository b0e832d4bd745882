// Package metrics exposes simulation progress as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the run metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Steps              prometheus.Counter
	StepDuration       prometheus.Histogram
	Friendships        prometheus.Gauge
	FriendshipAttempts prometheus.Counter
	Snapshots          prometheus.Counter
	MaxDisplacement    prometheus.Gauge
}

// NewCollector registers the run metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbitals_steps_total",
			Help: "Simulation steps completed.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orbitals_step_duration_seconds",
			Help:    "Wall time of one simulation step, snapshots included.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		Friendships: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbitals_friendships",
			Help: "Current number of friendship edges.",
		}),
		FriendshipAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbitals_friendship_attempts_total",
			Help: "Friendship attempts triggered, successful or not.",
		}),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbitals_snapshots_total",
			Help: "Canvas snapshots written.",
		}),
		MaxDisplacement: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbitals_max_displacement",
			Help: "Largest unscaled node displacement in the latest step.",
		}),
	}

	for name, col := range map[string]prometheus.Collector{
		"orbitals_steps_total":               c.Steps,
		"orbitals_step_duration_seconds":     c.StepDuration,
		"orbitals_friendships":               c.Friendships,
		"orbitals_friendship_attempts_total": c.FriendshipAttempts,
		"orbitals_snapshots_total":           c.Snapshots,
		"orbitals_max_displacement":          c.MaxDisplacement,
	} {
		if err := reg.Register(col); err != nil {
			return nil, errors.Wrapf(err, "register %s", name)
		}
	}
	return c, nil
}

// ObserveStep records one completed step.
func (c *Collector) ObserveStep(d time.Duration, friendships int, maxDisplacement float64) {
	if c == nil {
		return
	}
	c.Steps.Inc()
	c.StepDuration.Observe(d.Seconds())
	c.Friendships.Set(float64(friendships))
	c.MaxDisplacement.Set(maxDisplacement)
}

// ObserveFriendshipAttempt records a triggered friendship attempt.
func (c *Collector) ObserveFriendshipAttempt() {
	if c == nil {
		return
	}
	c.FriendshipAttempts.Inc()
}

// ObserveSnapshot records a written snapshot.
func (c *Collector) ObserveSnapshot() {
	if c == nil {
		return
	}
	c.Snapshots.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
