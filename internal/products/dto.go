package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
)

// ProductDTO is the catalog view returned to admin clients.
type ProductDTO struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Category       string       `json:"category"`
	UnitLabel      string       `json:"unitLabel"`
	PriceCents     int64        `json:"priceCents"`
	ListPriceCents *int64       `json:"listPriceCents,omitempty"`
	StockQuantity  int          `json:"stockQuantity"`
	IsActive       bool         `json:"isActive"`
	Variants       []VariantDTO `json:"variants"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// VariantDTO is a priced size of a product.
type VariantDTO struct {
	ID             uuid.UUID `json:"id"`
	Label          string    `json:"label"`
	PriceCents     int64     `json:"priceCents"`
	ListPriceCents *int64    `json:"listPriceCents,omitempty"`
	IsDefault      bool      `json:"isDefault"`
}

func toDTO(p *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.Category,
		UnitLabel:      p.UnitLabel,
		PriceCents:     p.PriceCents,
		ListPriceCents: p.ListPriceCents,
		StockQuantity:  p.StockQuantity,
		IsActive:       p.IsActive,
		Variants:       make([]VariantDTO, 0, len(p.Variants)),
		UpdatedAt:      p.UpdatedAt,
	}
	for _, v := range p.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:             v.ID,
			Label:          v.Label(),
			PriceCents:     v.PriceCents,
			ListPriceCents: v.ListPriceCents,
			IsDefault:      v.IsDefault,
		})
	}
	return dto
}
