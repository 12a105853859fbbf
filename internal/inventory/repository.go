package inventory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
)

// Repository owns every write to products.stock_quantity.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Decrement(ctx context.Context, productID uuid.UUID, qty int) error
	Restore(ctx context.Context, productID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockProducts takes row locks on the given products in id order and preloads their variants.
// Missing ids are simply absent from the result.
func (r *repository) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	unique := uniqueSorted(ids)
	out := make(map[uuid.UUID]models.Product, len(unique))
	if len(unique) == 0 {
		return out, nil
	}

	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", unique).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var variants []models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", unique).
		Find(&variants).Error; err != nil {
		return nil, err
	}
	byProduct := make(map[uuid.UUID][]models.ProductVariant, len(rows))
	for _, v := range variants {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}

	for _, row := range rows {
		row.Variants = byProduct[row.ID]
		out[row.ID] = row
	}
	return out, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Decrement floors at zero so a stale caller can never drive stock negative.
func (r *repository) Decrement(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("CASE WHEN stock_quantity >= ? THEN stock_quantity - ? ELSE 0 END", qty, qty),
			"updated_at":     gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *repository) Restore(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"updated_at":     gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func uniqueSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
