package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/api/responses"
	"github.com/freshcart/freshcart-backend/api/validators"
	"github.com/freshcart/freshcart-backend/internal/delivery"
	"github.com/freshcart/freshcart-backend/internal/policy"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
)

// DeliveryService is the courier, customer and admin delivery surface.
type DeliveryService interface {
	AssignManually(ctx context.Context, actor policy.Actor, orderID, courierID uuid.UUID) (*delivery.AssignmentDTO, error)
	Pickup(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*delivery.AssignmentDTO, error)
	MarkDelivered(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID) (*delivery.AssignmentDTO, error)
	Respond(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, accept bool, reason string) (*delivery.AssignmentDTO, error)
	DisputeQueue(ctx context.Context, actor policy.Actor, params pagination.Params) (*delivery.DisputePage, error)
	ClearDispute(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, note string) (*delivery.AssignmentDTO, error)
	Register(ctx context.Context, actor policy.Actor, displayName string) (*delivery.CourierDTO, error)
	CheckIn(ctx context.Context, actor policy.Actor) (*delivery.CourierDTO, error)
	Approve(ctx context.Context, actor policy.Actor, courierID uuid.UUID, approved bool) (*delivery.CourierDTO, error)
}

type respondRequest struct {
	Accept *bool  `json:"accept" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

type courierRegisterRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=120"`
}

type courierApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

type clearDisputeRequest struct {
	Note string `json:"note" validate:"max=500"`
}

type assignRequest struct {
	CourierID uuid.UUID `json:"courierId" validate:"required"`
}

// CourierPickup moves the caller's assignment for an order to picked up.
func CourierPickup(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Pickup(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

func CourierMarkDelivered(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.MarkDelivered(r.Context(), actor, assignmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

func CourierRegister(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload courierRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		courier, err := svc.Register(r.Context(), actor, validators.SanitizeString(payload.DisplayName, 120))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, courier)
	}
}

// CourierCheckIn marks the caller active for today's assignment pool.
func CourierCheckIn(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		courier, err := svc.CheckIn(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, courier)
	}
}

// AssignmentRespond records the customer's confirmation or dispute of a delivery.
func AssignmentRespond(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload respondRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason := validators.SanitizeString(payload.Reason, validators.MaxReasonLength)
		assignment, err := svc.Respond(r.Context(), actor, assignmentID, *payload.Accept, reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

// AdminDisputes lists rejected deliveries oldest first.
func AdminDisputes(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.DisputeQueue(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminClearDispute closes a dispute and sends the delivery back to the courier.
func AdminClearDispute(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload clearDisputeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		note := validators.SanitizeString(payload.Note, validators.MaxReasonLength)
		assignment, err := svc.ClearDispute(r.Context(), actor, assignmentID, note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

func AdminAssignCourier(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload assignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.AssignManually(r.Context(), actor, orderID, payload.CourierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

func AdminCourierApproval(svc DeliveryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courierID, err := validators.ParseUUIDParam(r, "courierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload courierApprovalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		courier, err := svc.Approve(r.Context(), actor, courierID, *payload.Approved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, courier)
	}
}
