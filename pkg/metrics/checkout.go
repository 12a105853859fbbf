package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Placement outcomes.
const (
	PlacementSuccess  = "success"
	PlacementConflict = "conflict"
	PlacementError    = "error"
)

// PlacementMetrics records order placement outcomes.
type PlacementMetrics struct {
	outcomes  *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewPlacementMetrics registers placement metrics on the provided registerer.
func NewPlacementMetrics(reg prometheus.Registerer) *PlacementMetrics {
	if reg == nil {
		return &PlacementMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_placement_total",
		Help: "Order placement attempts by outcome.",
	}, []string{"outcome"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_placement_conflicts_total",
		Help: "Cart line conflicts reported by placement, by conflict type.",
	}, []string{"type"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Duration of the placement transaction.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(outcomes, conflicts, duration)
	return &PlacementMetrics{outcomes: outcomes, conflicts: conflicts, duration: duration}
}

// Observe records one placement attempt.
func (m *PlacementMetrics) Observe(outcome string, elapsed time.Duration, conflictTypes []string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
	for _, conflictType := range conflictTypes {
		m.conflicts.WithLabelValues(normalizeLabel(conflictType)).Inc()
	}
}
