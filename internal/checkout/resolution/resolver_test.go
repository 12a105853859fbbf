package resolution

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/internal/checkout"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

type stubCart struct {
	lines   []models.CartLine
	removes int
	sets    int
}

func sameVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *stubCart) Lines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out, nil
}

func (s *stubCart) SetQuantity(ctx context.Context, actor policy.Actor, productID uuid.UUID, variantID *uuid.UUID, qty int) (bool, error) {
	s.sets++
	for i := range s.lines {
		if s.lines[i].ProductID == productID && sameVariant(s.lines[i].VariantID, variantID) {
			s.lines[i].Quantity = qty
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCart) Remove(ctx context.Context, actor policy.Actor, productID uuid.UUID, variantID *uuid.UUID) error {
	s.removes++
	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.ProductID == productID && sameVariant(line.VariantID, variantID) {
			continue
		}
		kept = append(kept, line)
	}
	s.lines = kept
	return nil
}

type stubPlacer struct {
	calls  int
	last   checkout.PlaceOrderInput
	result *checkout.PlaceOrderResult
}

func (s *stubPlacer) Place(ctx context.Context, actor policy.Actor, input checkout.PlaceOrderInput) (*checkout.PlaceOrderResult, error) {
	s.calls++
	s.last = input
	if s.result != nil {
		return s.result, nil
	}
	id := uuid.New()
	return &checkout.PlaceOrderResult{Success: true, OrderID: &id}, nil
}

func conflict(productID uuid.UUID, kind enums.ConflictType, requested, available int) checkout.Conflict {
	return checkout.Conflict{ProductID: productID, ConflictType: kind, Requested: requested, Available: available}
}

func TestClassifyPutsEveryConflictInOneList(t *testing.T) {
	conflicts := []checkout.Conflict{
		conflict(uuid.New(), enums.ConflictOutOfStock, 1, 0),
		conflict(uuid.New(), enums.ConflictProductInactive, 1, 5),
		conflict(uuid.New(), enums.ConflictNotFound, 1, 0),
		conflict(uuid.New(), enums.ConflictVariantNotFound, 1, 5),
		conflict(uuid.New(), enums.ConflictInvalidQuantity, 0, 5),
		conflict(uuid.New(), enums.ConflictInsufficientStock, 4, 2),
		conflict(uuid.New(), enums.ConflictInsufficientStock, 4, 0),
	}
	plan := Classify(conflicts)
	if len(plan.Removable) != 6 || len(plan.Adjustable) != 1 {
		t.Fatalf("expected 6 removable and 1 adjustable, got %d and %d", len(plan.Removable), len(plan.Adjustable))
	}
	if plan.Adjustable[0].ProductID != conflicts[5].ProductID {
		t.Fatalf("unexpected adjustable conflict %+v", plan.Adjustable[0])
	}
	if !Classify(nil).Empty() {
		t.Fatalf("expected empty plan for no conflicts")
	}
}

func TestAdjustWithRemovablesLeftDoesNotResubmit(t *testing.T) {
	short, gone := uuid.New(), uuid.New()
	me := policy.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}
	cart := &stubCart{lines: []models.CartLine{
		{ProductID: short, Quantity: 4},
		{ProductID: gone, Quantity: 1},
	}}
	placer := &stubPlacer{}
	resolver, err := NewResolver(cart, placer, nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	session := Session{Address: "1 Main St", Conflicts: []checkout.Conflict{
		conflict(short, enums.ConflictInsufficientStock, 4, 2),
		conflict(gone, enums.ConflictOutOfStock, 1, 0),
	}}

	for i := 0; i < 2; i++ {
		outcome, err := resolver.Adjust(context.Background(), me, session)
		if err != nil {
			t.Fatalf("adjust: %v", err)
		}
		if outcome.Resubmitted || len(outcome.Remaining) != 1 || outcome.Remaining[0].ProductID != gone {
			t.Fatalf("unexpected outcome %+v", outcome)
		}
	}
	if cart.lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", cart.lines[0].Quantity)
	}
	if cart.sets != 1 {
		t.Fatalf("expected a single quantity write, got %d", cart.sets)
	}
	if placer.calls != 0 {
		t.Fatalf("expected no resubmission, got %d", placer.calls)
	}
}

func TestRemoveResubmitsWhenNothingRemains(t *testing.T) {
	keep, gone := uuid.New(), uuid.New()
	me := policy.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}
	coupon := uuid.New()
	cart := &stubCart{lines: []models.CartLine{
		{ProductID: keep, Quantity: 3},
		{ProductID: gone, Quantity: 1},
	}}
	placer := &stubPlacer{}
	resolver, _ := NewResolver(cart, placer, nil)

	outcome, err := resolver.Remove(context.Background(), me, Session{
		Address:   " 1 Main St ",
		CouponID:  &coupon,
		Conflicts: []checkout.Conflict{conflict(gone, enums.ConflictProductInactive, 1, 3)},
	})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !outcome.Resubmitted || outcome.Result == nil || !outcome.Result.Success {
		t.Fatalf("expected successful resubmission, got %+v", outcome)
	}
	if len(placer.last.Items) != 1 || placer.last.Items[0].ProductID != keep || placer.last.Items[0].Quantity != 3 {
		t.Fatalf("unexpected resubmitted items %+v", placer.last.Items)
	}
	if placer.last.DeliveryAddress != "1 Main St" || placer.last.CouponID == nil || *placer.last.CouponID != coupon {
		t.Fatalf("resubmission lost session data %+v", placer.last)
	}
}

func TestFixAllSharesStockAcrossVariantLines(t *testing.T) {
	rice, gone := uuid.New(), uuid.New()
	small, large := uuid.New(), uuid.New()
	me := policy.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}
	cart := &stubCart{lines: []models.CartLine{
		{ProductID: rice, VariantID: &small, Quantity: 2},
		{ProductID: rice, VariantID: &large, Quantity: 3},
		{ProductID: gone, Quantity: 1},
	}}
	fresh := []checkout.Conflict{conflict(rice, enums.ConflictInsufficientStock, 2, 1)}
	placer := &stubPlacer{result: &checkout.PlaceOrderResult{Success: false, Conflicts: fresh}}
	resolver, _ := NewResolver(cart, placer, nil)

	outcome, err := resolver.FixAll(context.Background(), me, Session{Address: "1 Main St", Conflicts: []checkout.Conflict{
		{ProductID: rice, VariantID: &small, ConflictType: enums.ConflictInsufficientStock, Requested: 5, Available: 3},
		{ProductID: rice, VariantID: &large, ConflictType: enums.ConflictInsufficientStock, Requested: 5, Available: 3},
		conflict(gone, enums.ConflictNotFound, 1, 0),
	}})
	if err != nil {
		t.Fatalf("fix all: %v", err)
	}
	if len(cart.lines) != 2 || cart.lines[0].Quantity != 2 || cart.lines[1].Quantity != 1 {
		t.Fatalf("unexpected cart after fix all %+v", cart.lines)
	}
	if !outcome.Resubmitted || len(outcome.Remaining) != 1 {
		t.Fatalf("expected resubmission with fresh conflicts, got %+v", outcome)
	}
}

func TestFixAllOnEmptiedCart(t *testing.T) {
	gone := uuid.New()
	me := policy.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}
	cart := &stubCart{lines: []models.CartLine{{ProductID: gone, Quantity: 1}}}
	placer := &stubPlacer{}
	resolver, _ := NewResolver(cart, placer, nil)

	outcome, err := resolver.Run(context.Background(), me, enums.ResolutionFixAll, Session{
		Address:   "1 Main St",
		Conflicts: []checkout.Conflict{conflict(gone, enums.ConflictOutOfStock, 1, 0)},
	})
	if err != nil {
		t.Fatalf("fix all: %v", err)
	}
	if !outcome.CartEmpty || outcome.Resubmitted || placer.calls != 0 {
		t.Fatalf("expected empty cart outcome, got %+v", outcome)
	}
}

func TestResolverGuards(t *testing.T) {
	resolver, _ := NewResolver(&stubCart{}, &stubPlacer{}, nil)
	me := policy.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}

	if _, err := resolver.Run(context.Background(), me, "undo", Session{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := resolver.Remove(context.Background(), me, Session{UserID: uuid.New()}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for another user's session, got %v", err)
	}
	if _, err := NewResolver(nil, &stubPlacer{}, nil); err == nil {
		t.Fatalf("expected error for missing cart")
	}
}
