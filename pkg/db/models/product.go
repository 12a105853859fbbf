package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Stock is tracked here for the product and all of its variants.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string           `gorm:"column:name;not null"`
	Category       string           `gorm:"column:category;not null"`
	UnitLabel      string           `gorm:"column:unit_label;not null"`
	PriceCents     int64            `gorm:"column:price_cents;not null"`
	ListPriceCents *int64           `gorm:"column:list_price_cents"`
	StockQuantity  int              `gorm:"column:stock_quantity;not null;default:0"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	Variants       []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is a size/quantity SKU of a product with its own price.
type ProductVariant struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Value          string    `gorm:"column:value;not null"`
	Unit           string    `gorm:"column:unit;not null"`
	PriceCents     int64     `gorm:"column:price_cents;not null"`
	ListPriceCents *int64    `gorm:"column:list_price_cents"`
	IsDefault      bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Label renders the variant as shown on receipts, e.g. "500 g".
func (v ProductVariant) Label() string {
	if v.Unit == "" {
		return v.Value
	}
	return v.Value + " " + v.Unit
}
