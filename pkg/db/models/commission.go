package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// CommissionEntry is an accrued fee for a delivered order. Unique per (order_id, type).
type CommissionEntry struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID            `gorm:"column:order_id;type:uuid;not null"`
	Type          enums.CommissionType `gorm:"column:type;not null"`
	BeneficiaryID *uuid.UUID           `gorm:"column:beneficiary_id;type:uuid"`
	AmountCents   int64                `gorm:"column:amount_cents;not null"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}

// Payout settles accrued commission. Nil payer or payee means the platform.
type Payout struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PayerID     *uuid.UUID           `gorm:"column:payer_id;type:uuid"`
	PayeeID     *uuid.UUID           `gorm:"column:payee_id;type:uuid"`
	RequestedBy uuid.UUID            `gorm:"column:requested_by;type:uuid;not null"`
	AmountCents int64                `gorm:"column:amount_cents;not null"`
	Type        enums.CommissionType `gorm:"column:type;not null"`
	Status      enums.PayoutStatus   `gorm:"column:status;not null;default:'pending'"`
	ResolvedBy  *uuid.UUID           `gorm:"column:resolved_by;type:uuid"`
	ResolvedAt  *time.Time           `gorm:"column:resolved_at"`
	Note        *string              `gorm:"column:note"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
