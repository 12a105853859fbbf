package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/db/dbtest"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/outbox"
	"github.com/freshcart/freshcart-backend/pkg/outbox/payloads"
)

type recordingPublisher struct {
	events []outbox.DomainEvent
	err    error
}

func (p *recordingPublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if p.err != nil {
		return p.err
	}
	for _, prior := range p.events {
		if prior.EventType == event.EventType && prior.AggregateID == event.AggregateID {
			return nil
		}
	}
	p.events = append(p.events, event)
	return nil
}

type fakeRepository struct {
	existing map[enums.CommissionType]bool
	created  []models.CommissionEntry
	createFn func(entry *models.CommissionEntry) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, entry *models.CommissionEntry) error {
	if f.createFn != nil {
		if err := f.createFn(entry); err != nil {
			return err
		}
	}
	entry.ID = uuid.New()
	f.created = append(f.created, *entry)
	return nil
}

func (f *fakeRepository) HasEntry(ctx context.Context, orderID uuid.UUID, entryType enums.CommissionType) (bool, error) {
	return f.existing[entryType], nil
}

func (f *fakeRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.CommissionEntry, error) {
	return f.created, nil
}

func (f *fakeRepository) SumAccrued(ctx context.Context, beneficiaryID *uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) SumCommittedPayouts(ctx context.Context, payeeID *uuid.UUID) (int64, error) {
	return 0, nil
}

var testCommission = config.CommissionConfig{DeveloperCents: 500, DeliveryCents: 3000}

func TestAccrueForDeliveryCreatesBothEntries(t *testing.T) {
	repo := &fakeRepository{}
	pub := &recordingPublisher{}
	svc, err := NewService(repo, pub, testCommission)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	order := &models.Order{ID: uuid.New()}
	courier := uuid.New()
	entries, err := svc.AccrueForDelivery(context.Background(), nil, order, courier)
	if err != nil {
		t.Fatalf("AccrueForDelivery error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Type != enums.CommissionTypeDeveloper || entries[0].AmountCents != 500 || entries[0].BeneficiaryID != nil {
		t.Fatalf("unexpected developer entry: %+v", entries[0])
	}
	if entries[1].Type != enums.CommissionTypeDelivery || entries[1].AmountCents != 3000 || *entries[1].BeneficiaryID != courier {
		t.Fatalf("unexpected delivery entry: %+v", entries[1])
	}
	if len(pub.events) != 1 || pub.events[0].EventType != enums.EventCommissionAccrued {
		t.Fatalf("expected one commission_accrued event, got %+v", pub.events)
	}
	data := pub.events[0].Data.(payloads.CommissionAccruedEvent)
	if len(data.Entries) != 2 {
		t.Fatalf("expected event to carry both entries")
	}
}

func TestAccrueForDeliverySkipsExisting(t *testing.T) {
	repo := &fakeRepository{existing: map[enums.CommissionType]bool{
		enums.CommissionTypeDeveloper: true,
		enums.CommissionTypeDelivery:  true,
	}}
	pub := &recordingPublisher{}
	svc, _ := NewService(repo, pub, testCommission)

	entries, err := svc.AccrueForDelivery(context.Background(), nil, &models.Order{ID: uuid.New()}, uuid.New())
	if err != nil {
		t.Fatalf("AccrueForDelivery error: %v", err)
	}
	if len(entries) != 0 || len(repo.created) != 0 || len(pub.events) != 0 {
		t.Fatalf("expected replay to be a no-op")
	}
}

func TestAccrueForDeliveryErrors(t *testing.T) {
	repo := &fakeRepository{createFn: func(entry *models.CommissionEntry) error { return errors.New("db down") }}
	svc, _ := NewService(repo, &recordingPublisher{}, testCommission)

	if _, err := svc.AccrueForDelivery(context.Background(), nil, nil, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing order, got %v", err)
	}
	if _, err := svc.AccrueForDelivery(context.Background(), nil, &models.Order{ID: uuid.New()}, uuid.Nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing courier, got %v", err)
	}
	if _, err := svc.AccrueForDelivery(context.Background(), nil, &models.Order{ID: uuid.New()}, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestAccrueForDeliveryEmitsOncePerOrder(t *testing.T) {
	conn := dbtest.Open(t)
	outboxRepo := outbox.NewRepository(conn)
	svc, err := NewService(NewRepository(conn), outbox.NewService(outboxRepo, nil), testCommission)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx := context.Background()
	order := &models.Order{ID: uuid.New()}

	if _, err := svc.AccrueForDelivery(ctx, conn, order, uuid.New()); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if err := conn.Where("order_id = ? AND type = ?", order.ID, enums.CommissionTypeDelivery).
		Delete(&models.CommissionEntry{}).Error; err != nil {
		t.Fatalf("drop delivery entry: %v", err)
	}

	entries, err := svc.AccrueForDelivery(ctx, conn, order, uuid.New())
	if err != nil {
		t.Fatalf("replay accrue: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != enums.CommissionTypeDelivery {
		t.Fatalf("expected replay to restore the delivery entry, got %+v", entries)
	}
	events, err := outboxRepo.ListForAggregate(ctx, enums.AggregateCommission, order.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one commission_accrued event, got %d", len(events))
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(nil, &recordingPublisher{}, testCommission); err == nil {
		t.Fatal("expected repository error")
	}
	if _, err := NewService(&fakeRepository{}, nil, testCommission); err == nil {
		t.Fatal("expected publisher error")
	}
	if _, err := NewService(&fakeRepository{}, &recordingPublisher{}, config.CommissionConfig{DeliveryCents: -1}); err == nil {
		t.Fatal("expected negative amount error")
	}
}

func TestBalanceAgainstDatabase(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), &recordingPublisher{}, testCommission)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx := context.Background()
	courier := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := svc.AccrueForDelivery(ctx, conn, &models.Order{ID: uuid.New()}, courier); err != nil {
			t.Fatalf("accrue: %v", err)
		}
	}
	payout := models.Payout{
		ID:          uuid.New(),
		PayeeID:     &courier,
		RequestedBy: uuid.New(),
		AmountCents: 2500,
		Type:        enums.CommissionTypeDelivery,
		Status:      enums.PayoutStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := conn.Create(&payout).Error; err != nil {
		t.Fatalf("seed payout: %v", err)
	}
	rejected := payout
	rejected.ID = uuid.New()
	rejected.Status = enums.PayoutStatusRejected
	if err := conn.Create(&rejected).Error; err != nil {
		t.Fatalf("seed rejected payout: %v", err)
	}

	balance, err := svc.Balance(ctx, nil, &courier)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.AccruedCents != 6000 || balance.CommittedCents != 2500 || balance.OutstandingCents != 3500 {
		t.Fatalf("unexpected courier balance %+v", balance)
	}

	platform, err := svc.Balance(ctx, nil, nil)
	if err != nil {
		t.Fatalf("platform balance: %v", err)
	}
	if platform.AccruedCents != 1000 || platform.OutstandingCents != 1000 {
		t.Fatalf("unexpected platform balance %+v", platform)
	}

	entries, err := NewRepository(conn).ListByOrderID(ctx, uuid.New())
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected no entries for unknown order, got %v %v", entries, err)
	}
}
