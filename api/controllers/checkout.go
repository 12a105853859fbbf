package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/api/middleware"
	"github.com/freshcart/freshcart-backend/api/responses"
	"github.com/freshcart/freshcart-backend/api/validators"
	"github.com/freshcart/freshcart-backend/internal/checkout"
	"github.com/freshcart/freshcart-backend/internal/checkout/resolution"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

// ConflictResolver applies a conflict resolution action to a failed placement.
type ConflictResolver interface {
	Run(ctx context.Context, actor policy.Actor, action enums.ResolutionAction, session resolution.Session) (*resolution.Outcome, error)
}

type resolveRequest struct {
	Action          string              `json:"action" validate:"required,oneof=adjust remove fix_all"`
	DeliveryAddress string              `json:"deliveryAddress" validate:"required"`
	CouponID        *uuid.UUID          `json:"couponId,omitempty"`
	Conflicts       []checkout.Conflict `json:"conflicts" validate:"required,min=1"`
}

// Checkout places an order. Stock conflicts come back as data with 409 so the
// client can offer the resolution actions.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkout.PlaceOrderInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.UserID = actor.UserID

		result, err := svc.Place(r.Context(), actor, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePlacement(w, result)
	}
}

// CheckoutResolve applies a resolution action to the caller's cart and resubmits it.
func CheckoutResolve(resolver ConflictResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "resolution service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload resolveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := enums.ParseResolutionAction(payload.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
			return
		}

		outcome, err := resolver.Run(r.Context(), actor, action, resolution.Session{
			UserID:    actor.UserID,
			Address:   payload.DeliveryAddress,
			CouponID:  payload.CouponID,
			Conflicts: payload.Conflicts,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if len(outcome.Remaining) > 0 {
			status = http.StatusConflict
		}
		responses.WriteSuccessStatus(w, status, outcome)
	}
}

func writePlacement(w http.ResponseWriter, result *checkout.PlaceOrderResult) {
	if result != nil && !result.Success {
		responses.WriteSuccessStatus(w, http.StatusConflict, result)
		return
	}
	responses.WriteSuccess(w, result)
}

func actorFromRequest(r *http.Request) (policy.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return policy.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}
