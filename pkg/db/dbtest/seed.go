package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// SeedProduct inserts an active product.
func SeedProduct(t testing.TB, db *gorm.DB, name, category string, priceCents int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Category:      category,
		UnitLabel:     "pc",
		PriceCents:    priceCents,
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedVariant inserts a variant of productID.
func SeedVariant(t testing.TB, db *gorm.DB, productID uuid.UUID, value, unit string, priceCents int64, isDefault bool) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ID:         uuid.New(),
		ProductID:  productID,
		Value:      value,
		Unit:       unit,
		PriceCents: priceCents,
		IsDefault:  isDefault,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

// SeedCoupon inserts an active coupon.
func SeedCoupon(t testing.TB, db *gorm.DB, code string, discountType enums.DiscountType, value string, minOrderCents int64, maxDiscountCents *int64, stackable bool) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		ID:               uuid.New(),
		Code:             code,
		DiscountType:     discountType,
		DiscountValue:    decimal.RequireFromString(value),
		MinOrderCents:    minOrderCents,
		MaxDiscountCents: maxDiscountCents,
		IsActive:         true,
		IsStackable:      stackable,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return coupon
}

// SeedCourier inserts a courier; a non-nil activeOn marks the courier checked in that day.
func SeedCourier(t testing.TB, db *gorm.DB, approved bool, activeOn *time.Time) *models.Courier {
	t.Helper()
	courier := &models.Courier{
		UserID:      uuid.New(),
		DisplayName: "courier",
		IsApproved:  approved,
		ActiveOn:    activeOn,
	}
	if err := db.Create(courier).Error; err != nil {
		t.Fatalf("seed courier: %v", err)
	}
	return courier
}

// SeedOrder inserts an order with one item per product at the product's price.
func SeedOrder(t testing.TB, db *gorm.DB, userID uuid.UUID, status enums.OrderStatus, products map[*models.Product]int) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		DeliveryAddress: "1 Market St",
		Status:          status,
	}
	for product, qty := range products {
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       qty,
			UnitPriceCents: product.PriceCents,
		})
		order.SubtotalCents += int64(qty) * product.PriceCents
	}
	order.TotalCents = order.SubtotalCents
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

// Today is the UTC midnight of now.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
