package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockRestocker interface {
	Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (int, error)
}

// Service exposes admin catalog operations.
type Service interface {
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, actor policy.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Restock(ctx context.Context, actor policy.Actor, productID uuid.UUID, qty int) (*ProductDTO, error)
}

// UpdateProductInput holds a partial catalog edit. Nil fields are left untouched.
// Price edits never touch existing order items, which carry their own snapshot.
type UpdateProductInput struct {
	PriceCents       *int64
	ListPriceCents   *int64
	IsActive         *bool
	DefaultVariantID *uuid.UUID
}

type service struct {
	tx    txRunner
	repo  *Repository
	stock stockRestocker
}

// NewService builds the catalog admin service.
func NewService(tx txRunner, repo *Repository, stock stockRestocker) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{tx: tx, repo: repo, stock: stock}, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return toDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, actor policy.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCatalogManage, policy.Resource{}); err != nil {
		return nil, err
	}
	if input.PriceCents != nil && *input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be non-negative")
	}
	if input.ListPriceCents != nil && *input.ListPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list_price_cents must be non-negative")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, productID); err != nil {
			return mapLoadError(err)
		}

		fields := map[string]any{}
		if input.PriceCents != nil {
			fields["price_cents"] = *input.PriceCents
		}
		if input.ListPriceCents != nil {
			fields["list_price_cents"] = *input.ListPriceCents
		}
		if input.IsActive != nil {
			fields["is_active"] = *input.IsActive
		}
		if len(fields) > 0 {
			fields["updated_at"] = time.Now().UTC()
		}
		if err := repo.UpdateFields(ctx, productID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}

		if input.DefaultVariantID != nil {
			variant, err := repo.FindVariant(ctx, *input.DefaultVariantID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "variant not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
			}
			if variant.ProductID != productID {
				return pkgerrors.New(pkgerrors.CodeValidation, "variant belongs to another product")
			}
			if err := repo.SetDefaultVariant(ctx, productID, variant.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default variant")
			}
		}

		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			return mapLoadError(err)
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(updated), nil
}

func (s *service) Restock(ctx context.Context, actor policy.Actor, productID uuid.UUID, qty int) (*ProductDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCatalogManage, policy.Resource{}); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var restocked *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.stock.Restock(ctx, tx, productID, qty); err != nil {
			return err
		}
		product, err := s.repo.WithTx(tx).FindByID(ctx, productID)
		if err != nil {
			return mapLoadError(err)
		}
		restocked = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(restocked), nil
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}
