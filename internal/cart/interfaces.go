package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	FindLine(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartLine, error)
	Create(ctx context.Context, line *models.CartLine) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error)
	Delete(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
