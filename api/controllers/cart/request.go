package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/freshcart/freshcart-backend/internal/cart"
)

// lineRequest is the body of PUT /cart and the guest item endpoints. The product id
// comes from the body for whole-cart writes and from the route for item writes.
type lineRequest struct {
	ProductID *uuid.UUID `json:"productId,omitempty"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gte=1"`
}

type claimRequest struct {
	GuestToken string `json:"guestToken" validate:"required,min=16,max=128"`
	Mode       string `json:"mode" validate:"required,oneof=merge replace discard"`
}

func (l lineRequest) toInput(productID uuid.UUID) cartsvc.LineInput {
	if l.ProductID != nil && productID == uuid.Nil {
		productID = *l.ProductID
	}
	return cartsvc.LineInput{
		ProductID: productID,
		VariantID: l.VariantID,
		Quantity:  l.Quantity,
	}
}
