package policy

import (
	"testing"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

func TestAuthorize(t *testing.T) {
	customer := Actor{UserID: uuid.New(), Role: enums.RoleCustomer}
	otherCustomer := Actor{UserID: uuid.New(), Role: enums.RoleCustomer}
	courier := Actor{UserID: uuid.New(), Role: enums.RoleCourier}
	admin := Actor{UserID: uuid.New(), Role: enums.RoleAdmin}

	order := Resource{OwnerID: &customer.UserID, AssigneeID: &courier.UserID}
	unassigned := Resource{OwnerID: &customer.UserID}

	tests := []struct {
		name   string
		actor  Actor
		action Action
		res    Resource
		want   pkgerrors.Code
	}{
		{"owner views order", customer, ActionOrderView, order, ""},
		{"other customer views order", otherCustomer, ActionOrderView, order, pkgerrors.CodeForbidden},
		{"assignee views order", courier, ActionOrderView, order, ""},
		{"courier views unassigned order", courier, ActionOrderView, unassigned, pkgerrors.CodeForbidden},
		{"admin views any order", admin, ActionOrderView, unassigned, ""},
		{"owner cancels", customer, ActionOrderCancel, order, ""},
		{"courier cannot cancel", courier, ActionOrderCancel, order, pkgerrors.CodeForbidden},
		{"customer cannot confirm", customer, ActionOrderConfirm, order, pkgerrors.CodeForbidden},
		{"admin rejects", admin, ActionOrderReject, order, ""},
		{"assignee picks up", courier, ActionDeliveryPickup, order, ""},
		{"customer cannot pick up", customer, ActionDeliveryPickup, order, pkgerrors.CodeForbidden},
		{"owner responds", customer, ActionDeliveryRespond, order, ""},
		{"admin cannot respond for customer", admin, ActionDeliveryRespond, order, pkgerrors.CodeForbidden},
		{"dispute queue admin only", courier, ActionDisputeQueue, Resource{}, pkgerrors.CodeForbidden},
		{"admin clears dispute", admin, ActionDisputeResolve, Resource{}, ""},
		{"customer cannot clear dispute", customer, ActionDisputeResolve, order, pkgerrors.CodeForbidden},
		{"payee resolves payout", courier, ActionPayoutResolve, Owned(courier.UserID), ""},
		{"non payee resolves payout", courier, ActionPayoutResolve, Owned(admin.UserID), pkgerrors.CodeForbidden},
		{"missing actor", Actor{}, ActionOrderView, order, pkgerrors.CodeUnauthorized},
		{"unknown role", Actor{UserID: uuid.New(), Role: enums.Role("owner")}, ActionOrderView, order, pkgerrors.CodeUnauthorized},
		{"unknown action", admin, Action("order.delete"), order, pkgerrors.CodeForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.actor, tc.action, tc.res)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			if !pkgerrors.IsCode(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
		})
	}
}
