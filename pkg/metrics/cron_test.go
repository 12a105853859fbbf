package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsSplitsRunsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.Observe("order_ttl", 250*time.Millisecond, nil)
	m.Observe("order_ttl", 10*time.Millisecond, errors.New("db down"))
	m.Observe("", time.Millisecond, nil)

	if got := testutil.ToFloat64(m.Runs("order_ttl", JobSucceeded)); got != 1 {
		t.Fatalf("expected one success, got %f", got)
	}
	if got := testutil.ToFloat64(m.Runs("order_ttl", JobFailed)); got != 1 {
		t.Fatalf("expected one failure, got %f", got)
	}
	if got := testutil.ToFloat64(m.Runs("unknown", JobSucceeded)); got != 1 {
		t.Fatalf("expected unnamed job under unknown, got %f", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "cron_job_duration_seconds", "job", "order_ttl"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got < 0.25 {
		t.Fatalf("expected duration sum >= 0.25, got %f", got)
	}

	var nilMetrics *CronJobMetrics
	nilMetrics.Observe("order_ttl", time.Second, nil)
	if nilMetrics.Runs("order_ttl", JobSucceeded) != nil {
		t.Fatalf("expected nil counter from nil metrics")
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestPlacementMetricsCountsOutcomesAndConflicts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlacementMetrics(reg)
	m.Observe(PlacementSuccess, 20*time.Millisecond, nil)
	m.Observe(PlacementConflict, 10*time.Millisecond, []string{"insufficient_stock", "out_of_stock", "insufficient_stock"})

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "order_placement_total", "outcome", PlacementConflict); err != nil || got != 1 {
		t.Fatalf("expected one conflict outcome, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "order_placement_conflicts_total", "type", "insufficient_stock"); err != nil || got != 2 {
		t.Fatalf("expected two insufficient_stock conflicts, got %f (%v)", got, err)
	}
}

func TestDeliveryMetricsNilSafe(t *testing.T) {
	var m *DeliveryMetrics
	m.IncTransition("pickup")
	m.IncAssignment("assigned")

	reg := prometheus.NewRegistry()
	m = NewDeliveryMetrics(reg)
	m.IncTransition("pickup")
	m.IncAssignment("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "delivery_assignments_total", "result", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected empty result normalized to unknown, got %f (%v)", got, err)
	}
}
