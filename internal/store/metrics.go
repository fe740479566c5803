package store

import "github.com/prometheus/client_golang/prometheus"

// metrics counts operations and failures per catalogue operation.
// A nil *metrics is a no-op so the instrumentation costs nothing when
// no registerer is configured.
type metrics struct {
	ops      *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entitystore",
			Name:      "operations_total",
			Help:      "Completed persistence operations by name.",
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entitystore",
			Name:      "operation_failures_total",
			Help:      "Failed persistence operations by name.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.ops, m.failures)
	return m
}

func (m *metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op).Inc()
	if err != nil {
		m.failures.WithLabelValues(op).Inc()
	}
}

// record is the per-operation hook; safe on any Store.
func (s *Store) record(op string, err error) {
	s.metrics.observe(op, err)
}
