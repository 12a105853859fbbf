package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/api/responses"
	"github.com/freshcart/freshcart-backend/api/validators"
	product "github.com/freshcart/freshcart-backend/internal/products"
	"github.com/freshcart/freshcart-backend/internal/policy"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

// CatalogService is the admin catalog surface.
type CatalogService interface {
	UpdateProduct(ctx context.Context, actor policy.Actor, productID uuid.UUID, input product.UpdateProductInput) (*product.ProductDTO, error)
	Restock(ctx context.Context, actor policy.Actor, productID uuid.UUID, qty int) (*product.ProductDTO, error)
}

type productPatchRequest struct {
	PriceCents       *int64     `json:"priceCents,omitempty" validate:"omitempty,gte=0"`
	ListPriceCents   *int64     `json:"listPriceCents,omitempty" validate:"omitempty,gte=0"`
	IsActive         *bool      `json:"isActive,omitempty"`
	DefaultVariantID *uuid.UUID `json:"defaultVariantId,omitempty"`
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// AdminProductUpdate applies a partial edit. Placed orders keep their price snapshot.
func AdminProductUpdate(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productPatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateProduct(r.Context(), actor, productID, product.UpdateProductInput{
			PriceCents:       payload.PriceCents,
			ListPriceCents:   payload.ListPriceCents,
			IsActive:         payload.IsActive,
			DefaultVariantID: payload.DefaultVariantID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminProductRestock(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Restock(r.Context(), actor, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
