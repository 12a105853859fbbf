package enums

import "fmt"

// ConflictType classifies why a cart line cannot be fulfilled at placement.
type ConflictType string

const (
	ConflictNotFound          ConflictType = "not_found"
	ConflictProductInactive   ConflictType = "product_inactive"
	ConflictVariantNotFound   ConflictType = "variant_not_found"
	ConflictInvalidQuantity   ConflictType = "invalid_quantity"
	ConflictOutOfStock        ConflictType = "out_of_stock"
	ConflictInsufficientStock ConflictType = "insufficient_stock"
)

var validConflictTypes = []ConflictType{
	ConflictNotFound,
	ConflictProductInactive,
	ConflictVariantNotFound,
	ConflictInvalidQuantity,
	ConflictOutOfStock,
	ConflictInsufficientStock,
}

// String implements fmt.Stringer.
func (c ConflictType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ConflictType.
func (c ConflictType) IsValid() bool {
	for _, candidate := range validConflictTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseConflictType converts raw input into a ConflictType.
func ParseConflictType(value string) (ConflictType, error) {
	for _, candidate := range validConflictTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid conflict type %q", value)
}
