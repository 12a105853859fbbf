package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Coupon is a discount code. DiscountValue is a percent for percentage coupons and cents for fixed ones.
type Coupon struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string             `gorm:"column:code;not null"`
	DiscountType     enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue    decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinOrderCents    int64              `gorm:"column:min_order_cents;not null;default:0"`
	MaxDiscountCents *int64             `gorm:"column:max_discount_cents"`
	ValidFrom        *time.Time         `gorm:"column:valid_from"`
	ValidUntil       *time.Time         `gorm:"column:valid_until"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	IsStackable      bool               `gorm:"column:is_stackable;not null;default:false"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponUsage records a redemption, written only by a successful placement.
type CouponUsage struct {
	ID       uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID uuid.UUID  `gorm:"column:coupon_id;type:uuid;not null"`
	UserID   uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	OrderID  *uuid.UUID `gorm:"column:order_id;type:uuid"`
	UsedAt   time.Time  `gorm:"column:used_at;autoCreateTime"`
}
