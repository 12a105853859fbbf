package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/dbtest"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/outbox/payloads"
)

func TestServiceEmitWritesEnvelope(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: uuid.New(), Role: "customer"},
			Data:          payloads.OrderCreatedEvent{OrderID: orderID, TotalCents: 1200},
		})
	})
	require.NoError(t, err)

	rows, err := repo.ListForAggregate(context.Background(), enums.AggregateOrder, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOrderCreated, rows[0].EventType)
	assert.Contains(t, string(rows[0].Payload), `"version":1`)
	assert.Contains(t, string(rows[0].Payload), `"totalCents":1200`)
}

func TestServiceEmitRollsBackWithTransaction(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          payloads.OrderCancelledEvent{OrderID: orderID},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	exists, err := repo.Exists(context.Background(), enums.EventOrderCancelled, enums.AggregateOrder, orderID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestServiceEmitRejectsUnknownType(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.OutboxEventType("bogus"),
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
		})
	})
	require.Error(t, err)
}

func TestEmitIfNotExistsDeduplicates(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	orderID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventCommissionAccrued,
		AggregateType: enums.AggregateCommission,
		AggregateID:   orderID,
		Data:          payloads.CommissionAccruedEvent{OrderID: orderID},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		}))
	}

	rows, err := repo.ListForAggregate(context.Background(), enums.AggregateCommission, orderID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	first := seedEvent(t, db, time.Now().UTC().Add(-2*time.Minute), 0)
	second := seedEvent(t, db, time.Now().UTC().Add(-time.Minute), 0)
	exhausted := seedEvent(t, db, time.Now().UTC(), 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 5)
		if err != nil {
			return err
		}
		require.Len(t, rows, 2)
		assert.Equal(t, first.ID, rows[0].ID)
		assert.Equal(t, second.ID, rows[1].ID)

		if err := repo.MarkPublishedTx(tx, first.ID); err != nil {
			return err
		}
		if err := repo.MarkFailedTx(tx, second.ID, errors.New("pubsub unavailable")); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, exhausted.ID, errors.New("poison"), 5)
	})
	require.NoError(t, err)

	var published models.OutboxEvent
	require.NoError(t, db.First(&published, "id = ?", first.ID).Error)
	assert.NotNil(t, published.PublishedAt)

	var failed models.OutboxEvent
	require.NoError(t, db.First(&failed, "id = ?", second.ID).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	assert.Nil(t, failed.PublishedAt)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "pubsub unavailable", *failed.LastError)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		remaining, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	}))
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ID, remaining[0].ID)
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	old := time.Now().UTC().Add(-48 * time.Hour)

	published := seedEvent(t, db, old, 0)
	require.NoError(t, repo.MarkPublishedTx(db, published.ID))
	// exhausted events age out with the published ones
	seedEvent(t, db, old, 10)
	pending := seedEvent(t, db, old, 1)
	recent := seedEvent(t, db, time.Now().UTC(), 0)
	require.NoError(t, repo.MarkPublishedTx(db, recent.ID))

	var deleted int64
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = repo.DeletePublishedBefore(context.Background(), tx, time.Now().UTC().Add(-24*time.Hour), 10)
		return err
	}))
	assert.Equal(t, int64(2), deleted)

	var ids []uuid.UUID
	require.NoError(t, db.Model(&models.OutboxEvent{}).Pluck("id", &ids).Error)
	assert.ElementsMatch(t, []uuid.UUID{pending.ID, recent.ID}, ids)
}

func TestDLQRepositoryInsertTruncates(t *testing.T) {
	db := dbtest.Open(t)
	dlq := NewDLQRepository(db)
	eventID := uuid.New()
	long := make([]byte, maxDLQErrorLen+100)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)

	require.NoError(t, dlq.InsertTx(db, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventPayoutRequested,
		AggregateType: enums.AggregatePayout,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		ErrorReason:   enums.OutboxDLQReasonBadPayload,
		ErrorMessage:  &msg,
	}))

	entry, err := dlq.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Len(t, *entry.ErrorMessage, maxDLQErrorLen)

	missing, err := dlq.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDLQRepositoryDeleteFailedBefore(t *testing.T) {
	db := dbtest.Open(t)
	dlq := NewDLQRepository(db)
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seed := func(failedAt time.Time) uuid.UUID {
		eventID := uuid.New()
		require.NoError(t, dlq.InsertTx(db, models.OutboxDLQ{
			EventID:       eventID,
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       []byte(`{}`),
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			FailedAt:      failedAt,
		}))
		return eventID
	}
	old := seed(cutoff.Add(-time.Hour))
	fresh := seed(cutoff.Add(time.Hour))

	deleted, err := dlq.DeleteFailedBefore(context.Background(), db, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gone, err := dlq.FindByEventID(context.Background(), old)
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := dlq.FindByEventID(context.Background(), fresh)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	_, err = dlq.DeleteFailedBefore(context.Background(), nil, cutoff)
	assert.Error(t, err)
}

func seedEvent(t *testing.T, db *gorm.DB, createdAt time.Time, attempts int) models.OutboxEvent {
	t.Helper()
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1,"data":{}}`),
		CreatedAt:     createdAt,
		AttemptCount:  attempts,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}
