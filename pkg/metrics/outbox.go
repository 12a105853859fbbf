package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbox dispatch results.
const (
	OutboxPublished    = "published"
	OutboxRetried      = "retried"
	OutboxDeadLettered = "dead_lettered"
)

// OutboxMetrics counts dispatch results per event type.
type OutboxMetrics struct {
	results *prometheus.CounterVec
}

// NewOutboxMetrics registers the dispatcher counters.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_dispatch_total",
		Help: "Outbox rows handled by the publisher, by event type and result.",
	}, []string{"event_type", "result"})
	reg.MustRegister(results)
	return &OutboxMetrics{results: results}
}

// Inc records one handled row.
func (m *OutboxMetrics) Inc(eventType, result string) {
	if m == nil || m.results == nil {
		return
	}
	m.results.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// Counter exposes one series for tests and dashboards.
func (m *OutboxMetrics) Counter(eventType, result string) prometheus.Counter {
	return m.results.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result))
}
