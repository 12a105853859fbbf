package helpers

import (
	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Line is one requested placement line.
type Line struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// Conflict explains why one line cannot be fulfilled.
type Conflict struct {
	ProductID    uuid.UUID          `json:"productId"`
	VariantID    *uuid.UUID         `json:"variantId,omitempty"`
	ConflictType enums.ConflictType `json:"conflictType"`
	Requested    int                `json:"requested"`
	Available    int                `json:"available"`
}

// ProductIDs returns the distinct product ids of lines in first-seen order.
func ProductIDs(lines []Line) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// RequestedByProduct sums positive quantities per product. Stock is shared by a product's
// variants, so lines for the same product draw on one pool.
func RequestedByProduct(lines []Line) map[uuid.UUID]int {
	totals := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.Quantity > 0 {
			totals[line.ProductID] += line.Quantity
		}
	}
	return totals
}

// DetectConflicts classifies every line against the locked products. A line yields at most one
// conflict; the first failing check wins.
func DetectConflicts(lines []Line, products map[uuid.UUID]models.Product) []Conflict {
	requested := RequestedByProduct(lines)
	var conflicts []Conflict
	for _, line := range lines {
		product, found := products[line.ProductID]
		conflict := Conflict{ProductID: line.ProductID, VariantID: line.VariantID, Requested: line.Quantity}
		if found {
			conflict.Available = product.StockQuantity
		}
		switch {
		case line.Quantity <= 0:
			conflict.ConflictType = enums.ConflictInvalidQuantity
		case !found:
			conflict.ConflictType = enums.ConflictNotFound
		case !product.IsActive:
			conflict.ConflictType = enums.ConflictProductInactive
		case line.VariantID != nil && FindVariant(product, *line.VariantID) == nil:
			conflict.ConflictType = enums.ConflictVariantNotFound
		case product.StockQuantity <= 0:
			conflict.ConflictType = enums.ConflictOutOfStock
			conflict.Available = 0
		case product.StockQuantity < requested[line.ProductID]:
			conflict.ConflictType = enums.ConflictInsufficientStock
			conflict.Requested = requested[line.ProductID]
		default:
			continue
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts
}

// FindVariant returns the variant with id when it belongs to product.
func FindVariant(product models.Product, id uuid.UUID) *models.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == id && product.Variants[i].ProductID == product.ID {
			return &product.Variants[i]
		}
	}
	return nil
}

// UnitPrice resolves the price charged for a line: the variant's price when one is named,
// otherwise the product's. The label is nil for plain products.
func UnitPrice(product models.Product, variantID *uuid.UUID) (int64, *string) {
	if variantID == nil {
		return product.PriceCents, nil
	}
	variant := FindVariant(product, *variantID)
	if variant == nil {
		return product.PriceCents, nil
	}
	label := variant.Label()
	return variant.PriceCents, &label
}
