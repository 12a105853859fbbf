package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Order is the durable record produced by a successful placement.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	DeliveryAddress  string            `gorm:"column:delivery_address;not null"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	SubtotalCents    int64             `gorm:"column:subtotal_cents;not null"`
	DiscountCents    int64             `gorm:"column:discount_cents;not null;default:0"`
	DeliveryFeeCents int64             `gorm:"column:delivery_fee_cents;not null;default:0"`
	TotalCents       int64             `gorm:"column:total_cents;not null"`
	CouponID         *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	CancelReason     *string           `gorm:"column:cancel_reason"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	DeliveredAt      *time.Time        `gorm:"column:delivered_at"`
	CancelledAt      *time.Time        `gorm:"column:cancelled_at"`
	StockRestoredAt  *time.Time        `gorm:"column:stock_restored_at"`
}

// OrderItem snapshots the resolved price at placement. It is never updated.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	ProductName    string     `gorm:"column:product_name;not null"`
	VariantLabel   *string    `gorm:"column:variant_label"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceCents int64      `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// LineTotalCents is quantity times the snapshotted unit price.
func (i OrderItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}
