package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/outbox"
	"github.com/freshcart/freshcart-backend/pkg/outbox/payloads"
)

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Balance is what a beneficiary has accrued against what is already committed to payouts.
type Balance struct {
	BeneficiaryID    *uuid.UUID `json:"beneficiaryId,omitempty"`
	AccruedCents     int64      `json:"accruedCents"`
	CommittedCents   int64      `json:"committedCents"`
	OutstandingCents int64      `json:"outstandingCents"`
}

// Service records commission accruals.
type Service interface {
	AccrueForDelivery(ctx context.Context, tx *gorm.DB, order *models.Order, courierID uuid.UUID) ([]models.CommissionEntry, error)
	Balance(ctx context.Context, tx *gorm.DB, beneficiaryID *uuid.UUID) (*Balance, error)
}

type service struct {
	repo   Repository
	outbox outboxPublisher
	cfg    config.CommissionConfig
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, publisher outboxPublisher, cfg config.CommissionConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.DeveloperCents < 0 || cfg.DeliveryCents < 0 {
		return nil, fmt.Errorf("commission amounts must be non-negative")
	}
	return &service{repo: repo, outbox: publisher, cfg: cfg}, nil
}

// AccrueForDelivery inserts the developer and delivery commissions for a confirmed delivery.
// Entries that already exist are skipped, so replays add nothing.
func (s *service) AccrueForDelivery(ctx context.Context, tx *gorm.DB, order *models.Order, courierID uuid.UUID) ([]models.CommissionEntry, error) {
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id is required")
	}
	repo := s.repo.WithTx(tx)

	courier := courierID
	wanted := []models.CommissionEntry{
		{OrderID: order.ID, Type: enums.CommissionTypeDeveloper, AmountCents: s.cfg.DeveloperCents},
		{OrderID: order.ID, Type: enums.CommissionTypeDelivery, BeneficiaryID: &courier, AmountCents: s.cfg.DeliveryCents},
	}

	created := make([]models.CommissionEntry, 0, len(wanted))
	for _, entry := range wanted {
		exists, err := repo.HasEntry(ctx, entry.OrderID, entry.Type)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check commission entry")
		}
		if exists {
			continue
		}
		entry := entry
		if err := repo.Create(ctx, &entry); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create commission entry")
		}
		created = append(created, entry)
	}
	if len(created) == 0 {
		return created, nil
	}

	lines := make([]payloads.CommissionLine, 0, len(created))
	for _, entry := range created {
		lines = append(lines, payloads.CommissionLine{
			EntryID:       entry.ID,
			Type:          entry.Type,
			BeneficiaryID: entry.BeneficiaryID,
			AmountCents:   entry.AmountCents,
		})
	}
	// one accrual event per order, even when a replay fills in a missing entry
	if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCommissionAccrued,
		AggregateType: enums.AggregateCommission,
		AggregateID:   order.ID,
		Data:          payloads.CommissionAccruedEvent{OrderID: order.ID, Entries: lines},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit commission accrued")
	}
	return created, nil
}

// Balance reports accrued minus pending and approved payouts. A nil tx reads outside a transaction.
func (s *service) Balance(ctx context.Context, tx *gorm.DB, beneficiaryID *uuid.UUID) (*Balance, error) {
	repo := s.repo.WithTx(tx)
	accrued, err := repo.SumAccrued(ctx, beneficiaryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum commission entries")
	}
	committed, err := repo.SumCommittedPayouts(ctx, beneficiaryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payouts")
	}
	return &Balance{
		BeneficiaryID:    beneficiaryID,
		AccruedCents:     accrued,
		CommittedCents:   committed,
		OutstandingCents: accrued - committed,
	}, nil
}
