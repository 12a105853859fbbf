package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, updates map[string]any) (int64, error)
	MarkStockRestored(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// AssignmentReader exposes the delivery assignment of an order, if any.
type AssignmentReader interface {
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error)
}
