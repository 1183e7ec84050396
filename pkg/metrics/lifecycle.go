package metrics

import "github.com/prometheus/client_golang/prometheus"

// LifecycleMetrics counts listing and request state transitions.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "state_transitions_total",
		Help:      "Listing and request status transitions.",
	}, []string{"entity", "to"})
	reg.MustRegister(transitions)
	return &LifecycleMetrics{transitions: transitions}
}

// Transition records n entities of kind entity moving to status to.
func (m *LifecycleMetrics) Transition(entity, to string, n int) {
	if m == nil || m.transitions == nil || n <= 0 {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(entity), normalizeLabel(to)).Add(float64(n))
}
