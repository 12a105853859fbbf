package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

// ValidationResult is the storefront answer to "does this code apply?".
type ValidationResult struct {
	Valid          bool       `json:"valid"`
	CouponID       *uuid.UUID `json:"couponId,omitempty"`
	Code           string     `json:"code,omitempty"`
	DiscountCents  *int64     `json:"discountCents,omitempty"`
	ShortfallCents *int64     `json:"shortfallCents,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Redemption is a coupon that passed evaluation inside a placement transaction.
type Redemption struct {
	Coupon        models.Coupon
	DiscountCents int64
}

// Service validates coupons for display and redeems them at placement.
type Service interface {
	Validate(ctx context.Context, userID uuid.UUID, code string, subtotalCents int64) (*ValidationResult, error)
	Redeem(ctx context.Context, tx *gorm.DB, userID, couponID uuid.UUID, subtotalCents int64) (*Redemption, error)
	RecordUsage(ctx context.Context, tx *gorm.DB, userID, couponID, orderID uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the coupon service. A nil clock uses time.Now.
func NewService(repo Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) Validate(ctx context.Context, userID uuid.UUID, code string, subtotalCents int64) (*ValidationResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if subtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be non-negative")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationResult{Valid: false, Error: ReasonNotFound}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	used := false
	if userID != uuid.Nil {
		used, err = s.repo.HasUsage(ctx, userID, coupon.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon usage")
		}
	}

	eval := Evaluate(*coupon, used, subtotalCents, s.now().UTC())
	if !eval.Valid {
		result := &ValidationResult{Valid: false, Error: eval.Reason}
		if eval.ShortfallCents > 0 {
			shortfall := eval.ShortfallCents
			result.ShortfallCents = &shortfall
		}
		return result, nil
	}

	id := coupon.ID
	discount := eval.DiscountCents
	return &ValidationResult{
		Valid:         true,
		CouponID:      &id,
		Code:          coupon.Code,
		DiscountCents: &discount,
	}, nil
}

// Redeem locks the coupon row and re-evaluates it against the server-computed subtotal.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, userID, couponID uuid.UUID, subtotalCents int64) (*Redemption, error) {
	repo := s.repo.WithTx(tx)
	coupon, err := repo.LockByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not valid").
				WithDetails(map[string]any{"reason": ReasonNotFound})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock coupon")
	}
	used, err := repo.HasUsage(ctx, userID, coupon.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon usage")
	}

	eval := Evaluate(*coupon, used, subtotalCents, s.now().UTC())
	if !eval.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not valid").WithDetails(eval.Details())
	}
	return &Redemption{Coupon: *coupon, DiscountCents: eval.DiscountCents}, nil
}

func (s *service) RecordUsage(ctx context.Context, tx *gorm.DB, userID, couponID, orderID uuid.UUID) error {
	usage := &models.CouponUsage{
		CouponID: couponID,
		UserID:   userID,
		OrderID:  &orderID,
		UsedAt:   s.now().UTC(),
	}
	if err := s.repo.WithTx(tx).CreateUsage(ctx, usage); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record coupon usage")
	}
	return nil
}
