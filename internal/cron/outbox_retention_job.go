package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/logger"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	defaultDLQRetention    = 90 * 24 * time.Hour
	defaultMinAttempts     = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type dlqPurger interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configure the outbox cleanup job. Day counts of zero
// fall back to 30 days for the outbox and 90 for dead letters.
type OutboxRetentionJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Outbox  outboxPurger
	DLQ     dlqPurger
	Days    int
	DLQDays int
	// MinAttempts marks a never-published row as dead; match the publisher's max attempts.
	MinAttempts int
}

// NewOutboxRetentionJob builds the job that deletes old published or dead
// outbox rows and expired dead letters in one transaction. DLQ may be nil.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		outbox:      params.Outbox,
		dlq:         params.DLQ,
		keep:        days(params.Days, defaultOutboxRetention),
		keepDLQ:     days(params.DLQDays, defaultDLQRetention),
		minAttempts: params.MinAttempts,
		now:         time.Now,
	}
	if job.minAttempts <= 0 {
		job.minAttempts = defaultMinAttempts
	}
	return job, nil
}

func days(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * 24 * time.Hour
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	outbox      outboxPurger
	dlq         dlqPurger
	keep        time.Duration
	keepDLQ     time.Duration
	minAttempts int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff, dlqCutoff := now.Add(-j.keep), now.Add(-j.keepDLQ)

	var events, letters int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.outbox.DeletePublishedBefore(ctx, tx, cutoff, j.minAttempts)
		if err != nil {
			return fmt.Errorf("purge outbox: %w", err)
		}
		events = n
		if j.dlq == nil {
			return nil
		}
		if letters, err = j.dlq.DeleteFailedBefore(ctx, tx, dlqCutoff); err != nil {
			return fmt.Errorf("purge dlq: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"outbox_cutoff":       cutoff,
		"dlq_cutoff":          dlqCutoff,
		"outbox_rows_deleted": events,
		"dlq_rows_deleted":    letters,
	}), "outbox retention cleanup complete")
	return nil
}
