package coupons

import (
	"fmt"
	"time"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/money"
)

const (
	ReasonExpiredOrInactive = "coupon expired/inactive"
	ReasonMinimumNotMet     = "minimum order not met"
	ReasonAlreadyUsed       = "already used"
	ReasonNotFound          = "coupon not found"
)

// Evaluation is the outcome of checking a coupon against a subtotal.
type Evaluation struct {
	Valid          bool
	DiscountCents  int64
	Reason         string
	ShortfallCents int64
}

// Evaluate decides whether coupon applies to subtotalCents at now. It has no side effects.
func Evaluate(coupon models.Coupon, alreadyUsed bool, subtotalCents int64, now time.Time) Evaluation {
	if !coupon.IsActive {
		return Evaluation{Reason: ReasonExpiredOrInactive}
	}
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return Evaluation{Reason: ReasonExpiredOrInactive}
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return Evaluation{Reason: ReasonExpiredOrInactive}
	}
	if subtotalCents < coupon.MinOrderCents {
		shortfall := coupon.MinOrderCents - subtotalCents
		return Evaluation{
			Reason:         fmt.Sprintf("%s: add %s more", ReasonMinimumNotMet, money.FormatCents(shortfall)),
			ShortfallCents: shortfall,
		}
	}
	if !coupon.IsStackable && alreadyUsed {
		return Evaluation{Reason: ReasonAlreadyUsed}
	}

	var discount int64
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		discount = money.Percent(subtotalCents, coupon.DiscountValue)
	case enums.DiscountTypeFixed:
		discount = coupon.DiscountValue.Round(0).IntPart()
	default:
		return Evaluation{Reason: ReasonExpiredOrInactive}
	}

	if coupon.MaxDiscountCents != nil && discount > *coupon.MaxDiscountCents {
		discount = *coupon.MaxDiscountCents
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return Evaluation{Valid: true, DiscountCents: discount}
}

// Details renders an invalid evaluation for an error envelope.
func (e Evaluation) Details() map[string]any {
	details := map[string]any{"reason": e.Reason}
	if e.ShortfallCents > 0 {
		details["shortfallCents"] = e.ShortfallCents
	}
	return details
}
