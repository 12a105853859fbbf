package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

type fakeExpirer struct {
	cutoff  time.Time
	limit   int
	orders  []models.Order
	failing map[uuid.UUID]bool
	lost    map[uuid.UUID]bool
	expired []uuid.UUID
	reasons []string
}

func (f *fakeExpirer) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	f.cutoff = cutoff
	f.limit = limit
	return f.orders, nil
}

func (f *fakeExpirer) Expire(ctx context.Context, orderID uuid.UUID, reason string) (bool, error) {
	f.reasons = append(f.reasons, reason)
	if f.failing[orderID] {
		return false, errors.New("boom")
	}
	if f.lost[orderID] {
		return false, nil
	}
	f.expired = append(f.expired, orderID)
	return true, nil
}

func newOrderTTLJob(t *testing.T, orders *fakeExpirer, ttl time.Duration) *orderTTLJob {
	t.Helper()
	jobIface, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Orders: orders,
		TTL:    ttl,
	})
	if err != nil {
		t.Fatalf("NewOrderTTLJob: %v", err)
	}
	job, ok := jobIface.(*orderTTLJob)
	if !ok {
		t.Fatalf("expected orderTTLJob, got %T", jobIface)
	}
	return job
}

func TestOrderTTLJobExpiresStaleOrders(t *testing.T) {
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	a, b := models.Order{ID: uuid.New()}, models.Order{ID: uuid.New()}
	orders := &fakeExpirer{orders: []models.Order{a, b}, lost: map[uuid.UUID]bool{b.ID: true}}
	job := newOrderTTLJob(t, orders, 2*time.Hour)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !orders.cutoff.Equal(now.Add(-2 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", orders.cutoff)
	}
	if orders.limit != orderExpiryBatchSize {
		t.Fatalf("unexpected batch size %d", orders.limit)
	}
	if len(orders.expired) != 1 || orders.expired[0] != a.ID {
		t.Fatalf("expected only %s expired, got %v", a.ID, orders.expired)
	}
	if orders.reasons[0] != orderExpiryReason {
		t.Fatalf("unexpected reason %q", orders.reasons[0])
	}
}

func TestOrderTTLJobContinuesPastFailures(t *testing.T) {
	a, b := models.Order{ID: uuid.New()}, models.Order{ID: uuid.New()}
	orders := &fakeExpirer{orders: []models.Order{a, b}, failing: map[uuid.UUID]bool{a.ID: true}}
	job := newOrderTTLJob(t, orders, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(orders.expired) != 1 || orders.expired[0] != b.ID {
		t.Fatalf("expected second order expired despite failure, got %v", orders.expired)
	}
	if job.ttl != defaultPendingOrderTTL {
		t.Fatalf("expected default ttl, got %s", job.ttl)
	}
}
