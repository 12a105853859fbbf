package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/logger"
)

type fakeOutboxPurger struct {
	cutoff      time.Time
	minAttempts int
	err         error
}

func (f *fakeOutboxPurger) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.cutoff = cutoff
	f.minAttempts = minAttemptCount
	return 7, f.err
}

type fakeDLQPurger struct {
	cutoff time.Time
	calls  int
}

func (f *fakeDLQPurger) DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return 2, nil
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func retentionJob(t *testing.T, params OutboxRetentionJobParams, now time.Time) *outboxRetentionJob {
	t.Helper()
	params.Logger = logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	params.DB = passTx{}
	job, err := NewOutboxRetentionJob(params)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	j := job.(*outboxRetentionJob)
	j.now = func() time.Time { return now }
	return j
}

func TestOutboxRetentionUsesSeparateWindows(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	outbox, dlq := &fakeOutboxPurger{}, &fakeDLQPurger{}
	job := retentionJob(t, OutboxRetentionJobParams{Outbox: outbox, DLQ: dlq, Days: 7, MinAttempts: 4}, now)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.AddDate(0, 0, -7); !outbox.cutoff.Equal(want) {
		t.Fatalf("expected outbox cutoff %s, got %s", want, outbox.cutoff)
	}
	if outbox.minAttempts != 4 {
		t.Fatalf("expected min attempts 4, got %d", outbox.minAttempts)
	}
	if want := now.AddDate(0, 0, -90); !dlq.cutoff.Equal(want) {
		t.Fatalf("expected default dlq cutoff %s, got %s", want, dlq.cutoff)
	}
}

func TestOutboxRetentionStopsOnOutboxError(t *testing.T) {
	dlq := &fakeDLQPurger{}
	job := retentionJob(t, OutboxRetentionJobParams{
		Outbox: &fakeOutboxPurger{err: errors.New("boom")},
		DLQ:    dlq,
	}, time.Now())

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if dlq.calls != 0 {
		t.Fatalf("expected dlq purge to be skipped, got %d calls", dlq.calls)
	}
}

func TestOutboxRetentionWithoutDLQ(t *testing.T) {
	outbox := &fakeOutboxPurger{}
	job := retentionJob(t, OutboxRetentionJobParams{Outbox: outbox}, time.Now())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if outbox.minAttempts != defaultMinAttempts {
		t.Fatalf("expected default min attempts, got %d", outbox.minAttempts)
	}
}
