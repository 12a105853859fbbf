package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Repository manages persistence for commission entries and payout totals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.CommissionEntry) error
	HasEntry(ctx context.Context, orderID uuid.UUID, entryType enums.CommissionType) (bool, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.CommissionEntry, error)
	SumAccrued(ctx context.Context, beneficiaryID *uuid.UUID) (int64, error)
	SumCommittedPayouts(ctx context.Context, payeeID *uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.CommissionEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) HasEntry(ctx context.Context, orderID uuid.UUID, entryType enums.CommissionType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CommissionEntry{}).
		Where("order_id = ? AND type = ?", orderID, entryType).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.CommissionEntry, error) {
	var entries []models.CommissionEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumAccrued totals entries for a beneficiary; nil selects the platform's entries.
func (r *repository) SumAccrued(ctx context.Context, beneficiaryID *uuid.UUID) (int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&models.CommissionEntry{}).Select("COALESCE(SUM(amount_cents), 0)")
	if beneficiaryID == nil {
		q = q.Where("beneficiary_id IS NULL")
	} else {
		q = q.Where("beneficiary_id = ?", *beneficiaryID)
	}
	if err := q.Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumCommittedPayouts totals pending and approved payouts to a payee; nil selects the platform.
func (r *repository) SumCommittedPayouts(ctx context.Context, payeeID *uuid.UUID) (int64, error) {
	var total int64
	q := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("status IN ?", []enums.PayoutStatus{enums.PayoutStatusPending, enums.PayoutStatusApproved})
	if payeeID == nil {
		q = q.Where("payee_id IS NULL")
	} else {
		q = q.Where("payee_id = ?", *payeeID)
	}
	if err := q.Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
