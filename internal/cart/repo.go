package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
)

// Repository exposes persistence operations for server-side cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns the user's lines, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// FindLine loads the line for one (product, variant) pair.
func (r *Repository) FindLine(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := lineScope(r.db.WithContext(ctx), userID, productID, variantID).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// Create inserts a new line.
func (r *Repository) Create(ctx context.Context, line *models.CartLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(line).Error
}

// SetQuantity overwrites the quantity of an existing line and reports how many rows changed.
func (r *Repository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error) {
	res := lineScope(r.db.WithContext(ctx).Model(&models.CartLine{}), userID, productID, variantID).
		Update("quantity", qty)
	return res.RowsAffected, res.Error
}

// Delete removes one line; deleting a missing line is not an error.
func (r *Repository) Delete(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) error {
	return lineScope(r.db.WithContext(ctx), userID, productID, variantID).Delete(&models.CartLine{}).Error
}

// DeleteByUser empties the user's cart.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartLine{}).Error
}

func lineScope(q *gorm.DB, userID, productID uuid.UUID, variantID *uuid.UUID) *gorm.DB {
	q = q.Where("user_id = ? AND product_id = ?", userID, productID)
	if variantID == nil {
		return q.Where("variant_id IS NULL")
	}
	return q.Where("variant_id = ?", *variantID)
}
