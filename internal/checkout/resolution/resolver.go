package resolution

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/internal/checkout"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
)

type cartEditor interface {
	Lines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	SetQuantity(ctx context.Context, actor policy.Actor, productID uuid.UUID, variantID *uuid.UUID, qty int) (bool, error)
	Remove(ctx context.Context, actor policy.Actor, productID uuid.UUID, variantID *uuid.UUID) error
}

type placer interface {
	Place(ctx context.Context, actor policy.Actor, input checkout.PlaceOrderInput) (*checkout.PlaceOrderResult, error)
}

// Session is the conflict set returned by a placement attempt plus what is needed to resubmit it.
type Session struct {
	UserID    uuid.UUID           `json:"-"`
	Address   string              `json:"deliveryAddress"`
	CouponID  *uuid.UUID          `json:"couponId,omitempty"`
	Conflicts []checkout.Conflict `json:"conflicts"`
}

// Outcome reports what a resolution action did. Result is set when the cart was resubmitted;
// Remaining holds the conflicts the action did not address.
type Outcome struct {
	Action      enums.ResolutionAction     `json:"action"`
	Resubmitted bool                       `json:"resubmitted"`
	CartEmpty   bool                       `json:"cartEmpty,omitempty"`
	Result      *checkout.PlaceOrderResult `json:"result,omitempty"`
	Remaining   []checkout.Conflict        `json:"remaining"`
}

// Resolver edits the server cart to clear placement conflicts and resubmits it.
type Resolver struct {
	cart   cartEditor
	placer placer
	logg   *logger.Logger
}

// NewResolver wires the resolution flow.
func NewResolver(cart cartEditor, placer placer, logg *logger.Logger) (*Resolver, error) {
	if cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if placer == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	return &Resolver{cart: cart, placer: placer, logg: logg}, nil
}

// Run dispatches action.
func (r *Resolver) Run(ctx context.Context, actor policy.Actor, action enums.ResolutionAction, session Session) (*Outcome, error) {
	switch action {
	case enums.ResolutionAdjust:
		return r.Adjust(ctx, actor, session)
	case enums.ResolutionRemove:
		return r.Remove(ctx, actor, session)
	case enums.ResolutionFixAll:
		return r.FixAll(ctx, actor, session)
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown resolution action %q", action)
	}
}

// Adjust lowers each short line to what is available. When no removable conflicts remain the
// cart is resubmitted.
func (r *Resolver) Adjust(ctx context.Context, actor policy.Actor, session Session) (*Outcome, error) {
	if err := authorize(actor, session); err != nil {
		return nil, err
	}
	plan := Classify(session.Conflicts)
	if err := r.adjust(ctx, actor, plan.Adjustable); err != nil {
		return nil, err
	}
	return r.finish(ctx, actor, enums.ResolutionAdjust, session, plan.Removable)
}

// Remove deletes every line that cannot be fulfilled. When no adjustable conflicts remain the
// cart is resubmitted.
func (r *Resolver) Remove(ctx context.Context, actor policy.Actor, session Session) (*Outcome, error) {
	if err := authorize(actor, session); err != nil {
		return nil, err
	}
	plan := Classify(session.Conflicts)
	if err := r.remove(ctx, actor, plan.Removable); err != nil {
		return nil, err
	}
	return r.finish(ctx, actor, enums.ResolutionRemove, session, plan.Adjustable)
}

// FixAll removes, adjusts and resubmits.
func (r *Resolver) FixAll(ctx context.Context, actor policy.Actor, session Session) (*Outcome, error) {
	if err := authorize(actor, session); err != nil {
		return nil, err
	}
	plan := Classify(session.Conflicts)
	if err := r.remove(ctx, actor, plan.Removable); err != nil {
		return nil, err
	}
	if err := r.adjust(ctx, actor, plan.Adjustable); err != nil {
		return nil, err
	}
	return r.finish(ctx, actor, enums.ResolutionFixAll, session, nil)
}

func (r *Resolver) remove(ctx context.Context, actor policy.Actor, conflicts []checkout.Conflict) error {
	for _, c := range conflicts {
		if err := r.cart.Remove(ctx, actor, c.ProductID, c.VariantID); err != nil {
			return err
		}
	}
	return nil
}

// adjust spreads each product's available units over its cart lines in cart order. Several lines
// of one product share the product's stock, so later lines may drop to zero and are removed.
func (r *Resolver) adjust(ctx context.Context, actor policy.Actor, conflicts []checkout.Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	available := make(map[uuid.UUID]int, len(conflicts))
	for _, c := range conflicts {
		available[c.ProductID] = c.Available
	}
	lines, err := r.cart.Lines(ctx, actor.UserID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		left, ok := available[line.ProductID]
		if !ok {
			continue
		}
		qty := line.Quantity
		if qty > left {
			qty = left
		}
		available[line.ProductID] = left - qty
		if qty == 0 {
			if err := r.cart.Remove(ctx, actor, line.ProductID, line.VariantID); err != nil {
				return err
			}
			continue
		}
		if qty == line.Quantity {
			continue
		}
		if _, err := r.cart.SetQuantity(ctx, actor, line.ProductID, line.VariantID, qty); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) finish(ctx context.Context, actor policy.Actor, action enums.ResolutionAction, session Session, remaining []checkout.Conflict) (*Outcome, error) {
	outcome := &Outcome{Action: action, Remaining: []checkout.Conflict{}}
	if len(remaining) > 0 {
		outcome.Remaining = remaining
		return outcome, nil
	}

	lines, err := r.cart.Lines(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		outcome.CartEmpty = true
		return outcome, nil
	}
	input := checkout.PlaceOrderInput{
		UserID:          actor.UserID,
		DeliveryAddress: strings.TrimSpace(session.Address),
		CouponID:        session.CouponID,
		Items:           make([]checkout.PlaceItem, 0, len(lines)),
	}
	for _, line := range lines {
		input.Items = append(input.Items, checkout.PlaceItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
	}
	result, err := r.placer.Place(ctx, actor, input)
	if err != nil {
		return nil, err
	}
	outcome.Resubmitted = true
	outcome.Result = result
	if !result.Success {
		outcome.Remaining = result.Conflicts
	}
	if r.logg != nil {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"user_id": actor.UserID.String(),
			"action":  string(action),
			"success": result.Success,
		}), "resolution resubmitted cart")
	}
	return outcome, nil
}

func authorize(actor policy.Actor, session Session) error {
	owner := session.UserID
	if owner == uuid.Nil {
		owner = actor.UserID
	}
	return policy.Authorize(actor, policy.ActionCheckoutPlace, policy.Owned(owner))
}
