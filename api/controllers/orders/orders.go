package orders

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/api/middleware"
	"github.com/freshcart/freshcart-backend/api/responses"
	"github.com/freshcart/freshcart-backend/api/validators"
	internalorders "github.com/freshcart/freshcart-backend/internal/orders"
	"github.com/freshcart/freshcart-backend/internal/policy"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

// Service is the order surface the HTTP layer drives.
type Service interface {
	Get(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*internalorders.OrderDTO, error)
	Confirm(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*internalorders.OrderDTO, error)
	Cancel(ctx context.Context, actor policy.Actor, orderID uuid.UUID, reason string) (*internalorders.OrderDTO, error)
	Reject(ctx context.Context, actor policy.Actor, orderID uuid.UUID, reason string) (*internalorders.OrderDTO, error)
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Detail returns an order with its items and delivery summary.
func Detail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder cancels an order for its owner or an admin. Repeating the call on a
// cancelled order succeeds without restoring stock again.
func CancelOrder(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := optionalReason(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), actor, orderID, reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ConfirmOrder(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Confirm(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func RejectOrder(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := optionalReason(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Reject(r.Context(), actor, orderID, reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func actorAndOrder(r *http.Request) (policy.Actor, uuid.UUID, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return policy.Actor{}, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return policy.Actor{}, uuid.Nil, err
	}
	return actor, orderID, nil
}

// optionalReason reads {"reason": "..."} when a body is present.
func optionalReason(r *http.Request) (string, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return "", nil
	}
	var payload reasonRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return "", err
	}
	return validators.SanitizeString(payload.Reason, validators.MaxReasonLength), nil
}
