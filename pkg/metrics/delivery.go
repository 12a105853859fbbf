package metrics

import "github.com/prometheus/client_golang/prometheus"

// DeliveryMetrics counts delivery state machine transitions.
type DeliveryMetrics struct {
	transitions *prometheus.CounterVec
	assignments *prometheus.CounterVec
}

// NewDeliveryMetrics registers delivery metrics on the provided registerer.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_transitions_total",
		Help: "Delivery assignment transitions applied.",
	}, []string{"transition"})
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_assignments_total",
		Help: "Courier assignment attempts by result.",
	}, []string{"result"})
	reg.MustRegister(transitions, assignments)
	return &DeliveryMetrics{transitions: transitions, assignments: assignments}
}

// IncTransition counts an applied (non no-op) transition.
func (m *DeliveryMetrics) IncTransition(transition string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition)).Inc()
}

// IncAssignment counts a courier selection result: assigned, manual or no_courier.
func (m *DeliveryMetrics) IncAssignment(result string) {
	if m == nil || m.assignments == nil {
		return
	}
	m.assignments.WithLabelValues(normalizeLabel(result)).Inc()
}
