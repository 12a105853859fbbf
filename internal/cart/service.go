package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/inventory"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LineInput adds or updates one cart line.
type LineInput struct {
	ProductID uuid.UUID  `json:"productId" validate:"required"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gte=1"`
}

// LineDTO is a priced cart line.
type LineDTO struct {
	ProductID      uuid.UUID  `json:"productId"`
	VariantID      *uuid.UUID `json:"variantId,omitempty"`
	ProductName    string     `json:"productName"`
	VariantLabel   *string    `json:"variantLabel,omitempty"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int64      `json:"unitPriceCents"`
	LineTotalCents int64      `json:"lineTotalCents"`
	Available      bool       `json:"available"`
}

// CartDTO is the cart view shared by server and guest carts.
type CartDTO struct {
	Lines         []LineDTO `json:"lines"`
	SubtotalCents int64     `json:"subtotalCents"`
}

// Service exposes cart operations for signed-in customers and guests.
type Service interface {
	List(ctx context.Context, actor policy.Actor) (*CartDTO, error)
	Lines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	Upsert(ctx context.Context, actor policy.Actor, input LineInput) (*CartDTO, error)
	SetQuantity(ctx context.Context, actor policy.Actor, productID uuid.UUID, variantID *uuid.UUID, qty int) (bool, error)
	Remove(ctx context.Context, actor policy.Actor, productID uuid.UUID, variantID *uuid.UUID) error
	Clear(ctx context.Context, actor policy.Actor) error
	ClearTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	Claim(ctx context.Context, actor policy.Actor, token string, mode enums.CartClaimMode) (*CartDTO, error)

	GuestView(ctx context.Context, token string) (*CartDTO, error)
	GuestSet(ctx context.Context, token string, input LineInput) (*CartDTO, error)
	GuestAdd(ctx context.Context, token string, input LineInput) (*CartDTO, error)
	GuestRemove(ctx context.Context, token string, productID uuid.UUID, variantID *uuid.UUID) error
	ClearGuest(ctx context.Context, token string) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products inventory.Repository
	guest    *GuestStore
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products inventory.Repository, guest *GuestStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if guest == nil {
		return nil, fmt.Errorf("guest cart store required")
	}
	return &service{repo: repo, tx: tx, products: products, guest: guest, logg: logg}, nil
}

func (s *service) List(ctx context.Context, actor policy.Actor) (*CartDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCartManage, policy.Owned(actor.UserID)); err != nil {
		return nil, err
	}
	lines, err := s.Lines(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	entries := make([]GuestLine, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, GuestLine{ProductID: line.ProductID, VariantID: line.VariantID, Quantity: line.Quantity})
	}
	return s.price(ctx, entries)
}

// Lines returns the raw server cart; checkout resubmission builds its input from it.
func (s *service) Lines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	return lines, nil
}

// Upsert sets the quantity of a (product, variant) line, creating it when absent.
func (s *service) Upsert(ctx context.Context, actor policy.Actor, input LineInput) (*CartDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCartManage, policy.Owned(actor.UserID)); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.validateLine(ctx, s.products.WithTx(tx), input); err != nil {
			return err
		}
		return s.upsert(ctx, s.repo.WithTx(tx), actor.UserID, input.ProductID, input.VariantID, func(int) int { return input.Quantity })
	})
	if err != nil {
		return nil, err
	}
	return s.List(ctx, actor)
}

// SetQuantity rewrites an existing line. It reports false when the line does not exist.
func (s *service) SetQuantity(ctx context.Context, actor policy.Actor, productID uuid.UUID, variantID *uuid.UUID, qty int) (bool, error) {
	if err := policy.Authorize(actor, policy.ActionCartManage, policy.Owned(actor.UserID)); err != nil {
		return false, err
	}
	if qty < 1 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	rows, err := s.repo.SetQuantity(ctx, actor.UserID, productID, variantID, qty)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return rows > 0, nil
}

func (s *service) Remove(ctx context.Context, actor policy.Actor, productID uuid.UUID, variantID *uuid.UUID) error {
	if err := policy.Authorize(actor, policy.ActionCartManage, policy.Owned(actor.UserID)); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.UserID, productID, variantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, actor policy.Actor) error {
	if err := policy.Authorize(actor, policy.ActionCartManage, policy.Owned(actor.UserID)); err != nil {
		return err
	}
	return s.ClearTx(ctx, nil, actor.UserID)
}

// ClearTx empties the server cart inside the caller's transaction.
func (s *service) ClearTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if err := s.repo.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Claim folds a guest cart into the signed-in customer's cart. merge sums quantities, replace
// swaps the server cart for the guest lines, discard drops the guest cart. Guest lines whose
// product is gone or inactive are skipped. The guest cart is deleted afterwards in every mode.
func (s *service) Claim(ctx context.Context, actor policy.Actor, token string, mode enums.CartClaimMode) (*CartDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCartManage, policy.Owned(actor.UserID)); err != nil {
		return nil, err
	}
	if !mode.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid claim mode %q", mode)
	}
	guestLines, err := s.guest.Lines(ctx, token)
	if err != nil {
		return nil, err
	}

	if mode != enums.CartClaimDiscard {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			products := s.products.WithTx(tx)
			if mode == enums.CartClaimReplace {
				if err := repo.DeleteByUser(ctx, actor.UserID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
				}
			}
			for _, line := range guestLines {
				input := LineInput{ProductID: line.ProductID, VariantID: line.VariantID, Quantity: line.Quantity}
				if err := s.validateLine(ctx, products, input); err != nil {
					if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
						return err
					}
					s.logSkipped(ctx, line, err)
					continue
				}
				add := line.Quantity
				if err := s.upsert(ctx, repo, actor.UserID, line.ProductID, line.VariantID, func(current int) int { return current + add }); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.guest.Clear(ctx, token); err != nil {
		return nil, err
	}
	return s.List(ctx, actor)
}

func (s *service) GuestView(ctx context.Context, token string) (*CartDTO, error) {
	lines, err := s.guest.Lines(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, lines)
}

func (s *service) GuestSet(ctx context.Context, token string, input LineInput) (*CartDTO, error) {
	if err := s.validateLine(ctx, s.products, input); err != nil {
		return nil, err
	}
	if err := s.guest.Set(ctx, token, GuestLine{ProductID: input.ProductID, VariantID: input.VariantID, Quantity: input.Quantity}); err != nil {
		return nil, err
	}
	return s.GuestView(ctx, token)
}

func (s *service) GuestAdd(ctx context.Context, token string, input LineInput) (*CartDTO, error) {
	if err := s.validateLine(ctx, s.products, input); err != nil {
		return nil, err
	}
	if _, err := s.guest.Add(ctx, token, GuestLine{ProductID: input.ProductID, VariantID: input.VariantID, Quantity: input.Quantity}); err != nil {
		return nil, err
	}
	return s.GuestView(ctx, token)
}

func (s *service) GuestRemove(ctx context.Context, token string, productID uuid.UUID, variantID *uuid.UUID) error {
	return s.guest.Remove(ctx, token, productID, variantID)
}

func (s *service) ClearGuest(ctx context.Context, token string) error {
	return s.guest.Clear(ctx, token)
}

func (s *service) upsert(ctx context.Context, repo CartRepository, userID, productID uuid.UUID, variantID *uuid.UUID, next func(current int) int) error {
	existing, err := repo.FindLine(ctx, userID, productID, variantID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		line := &models.CartLine{
			ID:        uuid.New(),
			UserID:    userID,
			ProductID: productID,
			VariantID: variantID,
			Quantity:  next(0),
		}
		if err := repo.Create(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}
		return nil
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if _, err := repo.SetQuantity(ctx, userID, productID, variantID, next(existing.Quantity)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return nil
}

func (s *service) validateLine(ctx context.Context, products inventory.Repository, input LineInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if input.VariantID != nil && findVariant(product, *input.VariantID) == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return nil
}

func (s *service) price(ctx context.Context, lines []GuestLine) (*CartDTO, error) {
	out := &CartDTO{Lines: make([]LineDTO, 0, len(lines))}
	cache := map[uuid.UUID]*models.Product{}
	for _, line := range lines {
		product, ok := cache[line.ProductID]
		if !ok {
			found, err := s.products.FindByID(ctx, line.ProductID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			product = found
			cache[line.ProductID] = found
		}
		dto := LineDTO{ProductID: line.ProductID, VariantID: line.VariantID, Quantity: line.Quantity}
		if product != nil {
			dto.ProductName = product.Name
			dto.UnitPriceCents = product.PriceCents
			dto.Available = product.IsActive && product.StockQuantity > 0
			if line.VariantID != nil {
				if variant := findVariant(product, *line.VariantID); variant != nil {
					label := variant.Label()
					dto.VariantLabel = &label
					dto.UnitPriceCents = variant.PriceCents
				} else {
					dto.Available = false
				}
			}
		}
		dto.LineTotalCents = int64(dto.Quantity) * dto.UnitPriceCents
		if dto.Available {
			out.SubtotalCents += dto.LineTotalCents
		}
		out.Lines = append(out.Lines, dto)
	}
	return out, nil
}

func (s *service) logSkipped(ctx context.Context, line GuestLine, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"product_id": line.ProductID.String(),
		"reason":     err.Error(),
	}), "skipping guest cart line on claim")
}

func findVariant(product *models.Product, id uuid.UUID) *models.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == id {
			return &product.Variants[i]
		}
	}
	return nil
}
