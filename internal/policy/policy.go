package policy

import (
	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/outbox"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

// Resource carries the ownership facts a rule can check.
type Resource struct {
	OwnerID    *uuid.UUID
	AssigneeID *uuid.UUID
}

// Owned is shorthand for a resource owned by id.
func Owned(id uuid.UUID) Resource {
	return Resource{OwnerID: &id}
}

type Action string

const (
	ActionCheckoutPlace         Action = "checkout.place"
	ActionCartManage            Action = "cart.manage"
	ActionOrderView             Action = "order.view"
	ActionOrderCancel           Action = "order.cancel"
	ActionOrderConfirm          Action = "order.confirm"
	ActionOrderReject           Action = "order.reject"
	ActionOrderAssign           Action = "order.assign"
	ActionDeliveryPickup        Action = "delivery.pickup"
	ActionDeliveryMark          Action = "delivery.mark_delivered"
	ActionDeliveryRespond       Action = "delivery.respond"
	ActionDisputeQueue          Action = "delivery.dispute_queue"
	ActionDisputeResolve        Action = "delivery.dispute_resolve"
	ActionCourierRegister       Action = "courier.register"
	ActionCourierCheckIn        Action = "courier.check_in"
	ActionCourierApprove        Action = "courier.approve"
	ActionCatalogManage         Action = "catalog.manage"
	ActionPayoutRequest         Action = "payout.request"
	ActionPayoutResolve         Action = "payout.resolve"
	ActionPayoutResolvePlatform Action = "payout.resolve_platform"
)

type scope int

const (
	scopeAny scope = iota
	scopeOwner
	scopeAssignee
)

type rule map[enums.Role]scope

var rules = map[Action]rule{
	ActionCheckoutPlace:         {enums.RoleCustomer: scopeOwner},
	ActionCartManage:            {enums.RoleCustomer: scopeOwner},
	ActionOrderView:             {enums.RoleCustomer: scopeOwner, enums.RoleCourier: scopeAssignee, enums.RoleAdmin: scopeAny},
	ActionOrderCancel:           {enums.RoleCustomer: scopeOwner, enums.RoleAdmin: scopeAny},
	ActionOrderConfirm:          {enums.RoleAdmin: scopeAny},
	ActionOrderReject:           {enums.RoleAdmin: scopeAny},
	ActionOrderAssign:           {enums.RoleAdmin: scopeAny},
	ActionDeliveryPickup:        {enums.RoleCourier: scopeAssignee},
	ActionDeliveryMark:          {enums.RoleCourier: scopeAssignee},
	ActionDeliveryRespond:       {enums.RoleCustomer: scopeOwner},
	ActionDisputeQueue:          {enums.RoleAdmin: scopeAny},
	ActionDisputeResolve:        {enums.RoleAdmin: scopeAny},
	ActionCourierRegister:       {enums.RoleCourier: scopeOwner},
	ActionCourierCheckIn:        {enums.RoleCourier: scopeOwner},
	ActionCourierApprove:        {enums.RoleAdmin: scopeAny},
	ActionCatalogManage:         {enums.RoleAdmin: scopeAny},
	ActionPayoutRequest:         {enums.RoleCourier: scopeAny, enums.RoleAdmin: scopeAny},
	ActionPayoutResolve:         {enums.RoleCourier: scopeOwner, enums.RoleAdmin: scopeOwner},
	ActionPayoutResolvePlatform: {enums.RoleAdmin: scopeAny},
}

// Authorize checks that actor may perform action on res.
func Authorize(actor Actor, action Action, res Resource) error {
	if actor.UserID == uuid.Nil || !actor.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated actor required")
	}
	r, ok := rules[action]
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "action %s is not permitted", action)
	}
	s, ok := r[actor.Role]
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "role %s may not perform %s", actor.Role, action)
	}
	switch s {
	case scopeAny:
		return nil
	case scopeOwner:
		if matches(res.OwnerID, actor.UserID) {
			return nil
		}
	case scopeAssignee:
		if matches(res.AssigneeID, actor.UserID) {
			return nil
		}
	}
	return pkgerrors.Newf(pkgerrors.CodeForbidden, "actor may not perform %s on this resource", action)
}

func matches(id *uuid.UUID, actor uuid.UUID) bool {
	return id != nil && *id == actor
}

// Ref converts the actor into the outbox envelope form.
func (a Actor) Ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role.String()}
}
