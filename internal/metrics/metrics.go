// Package metrics defines the Prometheus instrumentation recorded by
// the dispatcher and the transaction coordinator. The core registers
// collectors on a caller-supplied registry and never exposes an HTTP
// endpoint itself; a nil *Metrics disables recording entirely, so
// callers that don't care pass nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one graft instance.
type Metrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rollbacks   prometheus.Counter
	traceEvents prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graft_operations_total",
			Help: "Dispatched operations by verb and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graft_operation_duration_seconds",
			Help:    "Wall time per dispatched operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graft_rollbacks_total",
			Help: "Operations rolled back by the transaction coordinator.",
		}),
		traceEvents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "graft_trace_events",
			Help:    "Causal events returned per track operation.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
	}
	reg.MustRegister(m.operations, m.duration, m.rollbacks, m.traceEvents)
	return m
}

// ObserveOperation records one dispatched operation.
func (m *Metrics) ObserveOperation(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveRollback records one coordinator rollback.
func (m *Metrics) ObserveRollback() {
	if m == nil {
		return
	}
	m.rollbacks.Inc()
}

// ObserveTraceEvents records the size of one trace result.
func (m *Metrics) ObserveTraceEvents(n int) {
	if m == nil {
		return
	}
	m.traceEvents.Observe(float64(n))
}
