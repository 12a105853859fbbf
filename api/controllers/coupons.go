package controllers

import (
	"net/http"

	"github.com/freshcart/freshcart-backend/api/responses"
	"github.com/freshcart/freshcart-backend/api/validators"
	"github.com/freshcart/freshcart-backend/internal/coupons"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

type couponValidateRequest struct {
	Code          string `json:"code" validate:"required,max=64"`
	SubtotalCents int64  `json:"subtotalCents" validate:"gte=0"`
}

// CouponValidate previews a coupon against a client subtotal. An unusable coupon is
// reported with valid=false and the reason; placement re-evaluates it server side.
func CouponValidate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload couponValidateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), actor.UserID, validators.SanitizeString(payload.Code, 64), payload.SubtotalCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
