package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/api/middleware"
	"github.com/freshcart/freshcart-backend/api/responses"
	"github.com/freshcart/freshcart-backend/api/validators"
	cartsvc "github.com/freshcart/freshcart-backend/internal/cart"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

// UserCart is the signed-in cart surface.
type UserCart interface {
	List(ctx context.Context, actor policy.Actor) (*cartsvc.CartDTO, error)
	Upsert(ctx context.Context, actor policy.Actor, input cartsvc.LineInput) (*cartsvc.CartDTO, error)
	Remove(ctx context.Context, actor policy.Actor, productID uuid.UUID, variantID *uuid.UUID) error
	Clear(ctx context.Context, actor policy.Actor) error
	Claim(ctx context.Context, actor policy.Actor, token string, mode enums.CartClaimMode) (*cartsvc.CartDTO, error)
}

// GuestCart is the anonymous cart surface keyed by a client token.
type GuestCart interface {
	GuestView(ctx context.Context, token string) (*cartsvc.CartDTO, error)
	GuestSet(ctx context.Context, token string, input cartsvc.LineInput) (*cartsvc.CartDTO, error)
	GuestAdd(ctx context.Context, token string, input cartsvc.LineInput) (*cartsvc.CartDTO, error)
	GuestRemove(ctx context.Context, token string, productID uuid.UUID, variantID *uuid.UUID) error
}

// CartFetch returns the caller's priced server cart.
func CartFetch(svc UserCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.List(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartUpsert sets the quantity of one line. PUT /cart carries the product id in the
// body and PUT /cart/items/{productId} in the route.
func CartUpsert(svc UserCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := optionalProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := payload.toInput(productID)
		if input.ProductID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId is required"))
			return
		}

		cart, err := svc.Upsert(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartItemRemove deletes one line. Removing a missing line succeeds.
func CartItemRemove(svc UserCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, variantID, err := itemRef(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), actor, productID, variantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func CartClear(svc UserCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CartClaim folds a guest cart into the caller's server cart.
func CartClaim(svc UserCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload claimRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mode, err := enums.ParseCartClaimMode(payload.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mode"))
			return
		}

		cart, err := svc.Claim(r.Context(), actor, payload.GuestToken, mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func GuestCartFetch(svc GuestCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		cart, err := svc.GuestView(r.Context(), guestToken(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// GuestCartWrite sets a line quantity with PUT and increments it with POST.
func GuestCartWrite(svc GuestCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		productID, err := optionalProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := payload.toInput(productID)
		if input.ProductID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId is required"))
			return
		}

		write := svc.GuestSet
		if r.Method == http.MethodPost {
			write = svc.GuestAdd
		}
		cart, err := write(r.Context(), guestToken(r), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func GuestCartItemRemove(svc GuestCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		productID, variantID, err := itemRef(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.GuestRemove(r.Context(), guestToken(r), productID, variantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func actorFromRequest(r *http.Request) (policy.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return policy.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}

func guestToken(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "token"))
}

func optionalProductID(r *http.Request) (uuid.UUID, error) {
	if strings.TrimSpace(chi.URLParam(r, "productId")) == "" {
		return uuid.Nil, nil
	}
	return validators.ParseUUIDParam(r, "productId")
}

func itemRef(r *http.Request) (uuid.UUID, *uuid.UUID, error) {
	productID, err := validators.ParseUUIDParam(r, "productId")
	if err != nil {
		return uuid.Nil, nil, err
	}
	variantID, err := validators.ParseOptionalUUIDQuery(r, "variantId")
	if err != nil {
		return uuid.Nil, nil, err
	}
	return productID, variantID, nil
}
