package helpers

import (
	"strings"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/config"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

// ValidateShape rejects requests that cannot be placed regardless of catalog state.
func ValidateShape(userID uuid.UUID, address string, lines []Line) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required").
			WithDetails(map[string]any{"field": "deliveryAddress"})
	}
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required for every item")
		}
	}
	return nil
}

// DeliveryFee is free above the threshold (strictly greater) or when every category is exempt;
// otherwise the flat fee applies.
func DeliveryFee(subtotalCents int64, categories []string, cfg config.CheckoutConfig) int64 {
	if subtotalCents > cfg.FreeDeliveryThresholdCents {
		return 0
	}
	exempt := cfg.ExemptCategorySet()
	if len(categories) > 0 && len(exempt) > 0 {
		allExempt := true
		for _, category := range categories {
			if _, ok := exempt[strings.ToLower(strings.TrimSpace(category))]; !ok {
				allExempt = false
				break
			}
		}
		if allExempt {
			return 0
		}
	}
	return cfg.DeliveryFlatFeeCents
}
