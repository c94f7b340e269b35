// Package metrics exports dispatch counters and latencies to Prometheus.
package metrics

import (
	"github.com/aretw0/foldtable/pkg/reducer"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of foldtable_dispatch_total.
const (
	OutcomeApplied   = "applied"
	OutcomeUnmatched = "unmatched"
	OutcomeFailed    = "failed"
)

// UnmatchedType replaces the type label of unmatched events.
// Event types come from clients, so only table keys are used as label values.
const UnmatchedType = "_unmatched"

// Collector records reducer dispatches.
type Collector struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates a Collector and registers it with reg.
// A nil reg leaves the collectors unregistered, which is handy in tests.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foldtable_dispatch_total",
				Help: "Total number of dispatched events by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foldtable_dispatch_duration_seconds",
				Help:    "Duration of handler executions",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"type"},
		),
	}
	if reg != nil {
		reg.MustRegister(c.dispatches, c.duration)
	}
	return c
}

// Observe records a single dispatch.
func (c *Collector) Observe(d reducer.Dispatch) {
	if !d.Matched {
		c.dispatches.WithLabelValues(UnmatchedType, OutcomeUnmatched).Inc()
		return
	}

	outcome := OutcomeApplied
	if d.Err != nil {
		outcome = OutcomeFailed
	}
	c.dispatches.WithLabelValues(d.Key, outcome).Inc()
	c.duration.WithLabelValues(d.Key).Observe(d.Duration.Seconds())
}

// Hooks returns reducer hooks feeding the Collector.
func (c *Collector) Hooks() reducer.Hooks {
	return reducer.Hooks{OnDispatch: c.Observe}
}
