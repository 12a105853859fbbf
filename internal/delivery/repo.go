package delivery

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
)

// Repository persists delivery assignments and the courier roster.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.DeliveryAssignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAssignment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAssignment, error)
	LockByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListDisputes(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.DeliveryAssignment, error)
	ListEligibleCouriers(ctx context.Context, day string) ([]models.Courier, error)
	FindCourier(ctx context.Context, userID uuid.UUID) (*models.Courier, error)
	CreateCourier(ctx context.Context, courier *models.Courier) error
	UpdateCourier(ctx context.Context, userID uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a delivery repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.DeliveryAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAssignment, error) {
	var assignment models.DeliveryAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error) {
	var assignment models.DeliveryAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAssignment, error) {
	var assignment models.DeliveryAssignment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) LockByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error) {
	var assignment models.DeliveryAssignment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&assignment, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListDisputes returns rejected, unconfirmed assignments newest first using keyset pagination on
// (updated_at, id).
func (r *repository) ListDisputes(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.DeliveryAssignment, error) {
	q := r.db.WithContext(ctx).
		Where("is_rejected = ? AND user_confirmed_at IS NULL", true)
	if cursor != nil {
		q = q.Where("((updated_at < ?) OR (updated_at = ? AND id < ?))", cursor.SortAt, cursor.SortAt, cursor.ID)
	}
	var rows []models.DeliveryAssignment
	if err := q.Order("updated_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListEligibleCouriers returns approved couriers checked in on day (YYYY-MM-DD). Comparing
// calendar dates keeps the session time zone out of the match.
func (r *repository) ListEligibleCouriers(ctx context.Context, day string) ([]models.Courier, error) {
	var rows []models.Courier
	if err := r.db.WithContext(ctx).
		Where("is_approved = ? AND DATE(active_on) = ?", true, day).
		Order("user_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindCourier(ctx context.Context, userID uuid.UUID) (*models.Courier, error) {
	var courier models.Courier
	if err := r.db.WithContext(ctx).First(&courier, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *repository) CreateCourier(ctx context.Context, courier *models.Courier) error {
	return r.db.WithContext(ctx).Create(courier).Error
}

func (r *repository) UpdateCourier(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Courier{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}
