package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/orders"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/metrics"
	"github.com/freshcart/freshcart-backend/pkg/outbox"
	"github.com/freshcart/freshcart-backend/pkg/outbox/payloads"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderTransitioner interface {
	Transition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, to enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error)
}

type commissionAccruer interface {
	AccrueForDelivery(ctx context.Context, tx *gorm.DB, order *models.Order, courierID uuid.UUID) ([]models.CommissionEntry, error)
}

// Service drives the delivery assignment state machine and the courier roster.
type Service interface {
	AssignOnCreate(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.DeliveryAssignment, error)
	AssignManually(ctx context.Context, actor policy.Actor, orderID, courierID uuid.UUID) (*AssignmentDTO, error)
	Pickup(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*AssignmentDTO, error)
	MarkDelivered(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID) (*AssignmentDTO, error)
	Respond(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, accept bool, reason string) (*AssignmentDTO, error)
	DisputeQueue(ctx context.Context, actor policy.Actor, params pagination.Params) (*DisputePage, error)
	ClearDispute(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, note string) (*AssignmentDTO, error)
	Register(ctx context.Context, actor policy.Actor, displayName string) (*CourierDTO, error)
	CheckIn(ctx context.Context, actor policy.Actor) (*CourierDTO, error)
	Approve(ctx context.Context, actor policy.Actor, courierID uuid.UUID, approved bool) (*CourierDTO, error)
}

// ServiceParams groups the collaborators of the delivery service.
type ServiceParams struct {
	Tx          txRunner
	Repo        Repository
	Orders      orders.Repository
	Transitions orderTransitioner
	Commission  commissionAccruer
	Outbox      outboxPublisher
	Selector    *Selector
	Metrics     *metrics.DeliveryMetrics
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	tx          txRunner
	repo        Repository
	orders      orders.Repository
	transitions orderTransitioner
	commission  commissionAccruer
	outbox      outboxPublisher
	selector    *Selector
	metrics     *metrics.DeliveryMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService validates the collaborators and builds the delivery service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Transitions == nil {
		return nil, fmt.Errorf("order transitioner required")
	}
	if params.Commission == nil {
		return nil, fmt.Errorf("commission accruer required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	selector := params.Selector
	if selector == nil {
		selector = NewSelector(0)
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		tx:          params.Tx,
		repo:        params.Repo,
		orders:      params.Orders,
		transitions: params.Transitions,
		commission:  params.Commission,
		outbox:      params.Outbox,
		selector:    selector,
		metrics:     params.Metrics,
		logg:        params.Logger,
		now:         now,
	}, nil
}

// AssignOnCreate binds a freshly placed order to one approved courier checked in today.
// It runs inside the placement transaction. No eligible courier leaves the order unassigned.
func (s *service) AssignOnCreate(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.DeliveryAssignment, error) {
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	repo := s.repo.WithTx(tx)
	now := s.now()

	couriers, err := repo.ListEligibleCouriers(ctx, calendarDay(now))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list eligible couriers")
	}
	ids := make([]uuid.UUID, 0, len(couriers))
	for _, c := range couriers {
		ids = append(ids, c.UserID)
	}
	courierID, ok := s.selector.Pick(ids)
	if !ok {
		s.metrics.IncAssignment("no_courier")
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "no eligible courier for order")
		}
		return nil, nil
	}

	assignment := &models.DeliveryAssignment{
		ID:               uuid.New(),
		OrderID:          order.ID,
		DeliveryPersonID: &courierID,
		AssignedAt:       &now,
	}
	if err := repo.Create(ctx, assignment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery assignment")
	}
	if err := s.emitAssigned(ctx, tx, assignment, courierID, false, nil); err != nil {
		return nil, err
	}
	s.metrics.IncAssignment("assigned")
	return assignment, nil
}

// AssignManually lets an admin place an approved courier on a live order that has none.
func (s *service) AssignManually(ctx context.Context, actor policy.Actor, orderID, courierID uuid.UUID) (*AssignmentDTO, error) {
	if err := policy.Authorize(actor, policy.ActionOrderAssign, policy.Resource{}); err != nil {
		return nil, err
	}
	var out AssignmentDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		courier, err := repo.FindCourier(ctx, courierID)
		if err != nil {
			return mapLoadError(err, "courier")
		}
		if !courier.IsApproved {
			return pkgerrors.New(pkgerrors.CodeValidation, "courier is not approved")
		}
		order, err := s.orders.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err, "order")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s", order.Status).
				WithDetails(map[string]any{"status": order.Status})
		}

		now := s.now()
		assignment, err := repo.LockByOrderID(ctx, orderID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			assignment = &models.DeliveryAssignment{
				ID:               uuid.New(),
				OrderID:          orderID,
				DeliveryPersonID: &courierID,
				AssignedAt:       &now,
			}
			if err := repo.Create(ctx, assignment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery assignment")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery assignment")
		case assignment.DeliveryPersonID != nil:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already has a courier")
		default:
			if err := repo.Update(ctx, assignment.ID, map[string]any{
				"delivery_person_id": courierID,
				"assigned_at":        now,
				"updated_at":         now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery assignment")
			}
			assignment.DeliveryPersonID = &courierID
			assignment.AssignedAt = &now
		}

		if err := s.emitAssigned(ctx, tx, assignment, courierID, true, actor.Ref()); err != nil {
			return err
		}
		out = toAssignmentDTO(assignment, order.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAssignment("manual")
	return &out, nil
}

// Pickup moves the order out for delivery. Picking up twice is harmless.
func (s *service) Pickup(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*AssignmentDTO, error) {
	var (
		out     AssignmentDTO
		applied bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := repo.LockByOrderID(ctx, orderID)
		if err != nil {
			return mapLoadError(err, "delivery assignment")
		}
		if err := policy.Authorize(actor, policy.ActionDeliveryPickup, policy.Resource{AssigneeID: assignment.DeliveryPersonID}); err != nil {
			return err
		}
		order, err := s.orders.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err, "order")
		}
		switch {
		case order.Status == enums.OrderStatusOutForDelivery:
			out = toAssignmentDTO(assignment, order.Status)
			return nil
		case order.Status.IsTerminal():
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s", order.Status).
				WithDetails(map[string]any{"status": order.Status})
		}

		order, err = s.transitions.Transition(ctx, tx, orderID, enums.OrderStatusOutForDelivery, actor.Ref())
		if err != nil {
			return err
		}
		now := s.now()
		if err := repo.Update(ctx, assignment.ID, map[string]any{"picked_up_at": now, "updated_at": now}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery assignment")
		}
		assignment.PickedUpAt = &now
		assignment.UpdatedAt = now
		if err := s.emitTransition(ctx, tx, enums.EventDeliveryPickedUp, assignment, order.Status, "", actor.Ref()); err != nil {
			return err
		}
		out = toAssignmentDTO(assignment, order.Status)
		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if applied {
		s.metrics.IncTransition("picked_up")
	}
	return &out, nil
}

// MarkDelivered records the courier's claim of delivery. A disputed assignment stays locked
// until an admin clears the dispute.
func (s *service) MarkDelivered(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID) (*AssignmentDTO, error) {
	var (
		out     AssignmentDTO
		applied bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := repo.LockByID(ctx, assignmentID)
		if err != nil {
			return mapLoadError(err, "delivery assignment")
		}
		if err := policy.Authorize(actor, policy.ActionDeliveryMark, policy.Resource{AssigneeID: assignment.DeliveryPersonID}); err != nil {
			return err
		}
		order, err := s.orders.WithTx(tx).FindByID(ctx, assignment.OrderID)
		if err != nil {
			return mapLoadError(err, "order")
		}
		if assignment.UserConfirmedAt != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery already confirmed")
		}
		if assignment.IsRejected {
			return errDisputed
		}
		if assignment.MarkedDeliveredAt != nil {
			out = toAssignmentDTO(assignment, order.Status)
			return nil
		}
		if order.Status != enums.OrderStatusOutForDelivery {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s, not out for delivery", order.Status).
				WithDetails(map[string]any{"status": order.Status})
		}

		now := s.now()
		if err := repo.Update(ctx, assignment.ID, map[string]any{
			"marked_delivered_at": now,
			"updated_at":          now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery assignment")
		}
		assignment.MarkedDeliveredAt = &now
		assignment.UpdatedAt = now
		if err := s.emitTransition(ctx, tx, enums.EventDeliveryMarkedDelivered, assignment, order.Status, "", actor.Ref()); err != nil {
			return err
		}
		out = toAssignmentDTO(assignment, order.Status)
		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if applied {
		s.metrics.IncTransition("marked_delivered")
	}
	return &out, nil
}

// Respond records the customer's answer to a delivery claim. Accepting delivers the order and
// accrues commission; rejecting opens a dispute and leaves the order status alone.
func (s *service) Respond(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, accept bool, reason string) (*AssignmentDTO, error) {
	reason = strings.TrimSpace(reason)
	var (
		out        AssignmentDTO
		transition string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := repo.LockByID(ctx, assignmentID)
		if err != nil {
			return mapLoadError(err, "delivery assignment")
		}
		order, err := s.orders.WithTx(tx).FindByID(ctx, assignment.OrderID)
		if err != nil {
			return mapLoadError(err, "order")
		}
		if err := policy.Authorize(actor, policy.ActionDeliveryRespond, policy.Owned(order.UserID)); err != nil {
			return err
		}
		if assignment.MarkedDeliveredAt == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery has not been marked delivered")
		}
		if order.Status.IsExit() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s", order.Status).
				WithDetails(map[string]any{"status": order.Status})
		}

		if accept {
			if assignment.UserConfirmedAt != nil {
				out = toAssignmentDTO(assignment, order.Status)
				return nil
			}
			if assignment.IsRejected {
				return errDisputed
			}
			return s.confirm(ctx, tx, actor, assignment, &out, &transition)
		}

		if assignment.UserConfirmedAt != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery already confirmed")
		}
		if assignment.IsRejected {
			out = toAssignmentDTO(assignment, order.Status)
			return nil
		}
		now := s.now()
		updates := map[string]any{"is_rejected": true, "updated_at": now}
		if reason != "" {
			updates["rejection_reason"] = reason
			assignment.RejectionReason = &reason
		}
		if err := repo.Update(ctx, assignment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery assignment")
		}
		assignment.IsRejected = true
		assignment.UpdatedAt = now
		if err := s.emitTransition(ctx, tx, enums.EventDeliveryDisputed, assignment, order.Status, reason, actor.Ref()); err != nil {
			return err
		}
		out = toAssignmentDTO(assignment, order.Status)
		transition = "disputed"
		return nil
	})
	if err != nil {
		return nil, err
	}
	if transition != "" {
		s.metrics.IncTransition(transition)
	}
	return &out, nil
}

func (s *service) confirm(ctx context.Context, tx *gorm.DB, actor policy.Actor, assignment *models.DeliveryAssignment, out *AssignmentDTO, transition *string) error {
	if assignment.DeliveryPersonID == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery has no courier")
	}
	order, err := s.transitions.Transition(ctx, tx, assignment.OrderID, enums.OrderStatusDelivered, actor.Ref())
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.repo.WithTx(tx).Update(ctx, assignment.ID, map[string]any{
		"user_confirmed_at": now,
		"is_rejected":       false,
		"updated_at":        now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery assignment")
	}
	assignment.UserConfirmedAt = &now
	assignment.IsRejected = false
	assignment.UpdatedAt = now

	if _, err := s.commission.AccrueForDelivery(ctx, tx, order, *assignment.DeliveryPersonID); err != nil {
		return err
	}
	if err := s.emitTransition(ctx, tx, enums.EventDeliveryConfirmed, assignment, order.Status, "", actor.Ref()); err != nil {
		return err
	}
	*out = toAssignmentDTO(assignment, order.Status)
	*transition = "confirmed"
	return nil
}

// ClearDispute closes an admin review by reopening the delivery: the rejection is dropped and the
// delivery mark is withdrawn, so the courier has to mark it again and the customer confirm again.
func (s *service) ClearDispute(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, note string) (*AssignmentDTO, error) {
	if err := policy.Authorize(actor, policy.ActionDisputeResolve, policy.Resource{}); err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	var (
		out     AssignmentDTO
		applied bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := repo.LockByID(ctx, assignmentID)
		if err != nil {
			return mapLoadError(err, "delivery assignment")
		}
		order, err := s.orders.WithTx(tx).FindByID(ctx, assignment.OrderID)
		if err != nil {
			return mapLoadError(err, "order")
		}
		if !assignment.IsRejected {
			out = toAssignmentDTO(assignment, order.Status)
			return nil
		}
		if order.Status.IsTerminal() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s", order.Status).
				WithDetails(map[string]any{"status": order.Status})
		}

		now := s.now()
		if err := repo.Update(ctx, assignment.ID, map[string]any{
			"is_rejected":         false,
			"rejection_reason":    nil,
			"marked_delivered_at": nil,
			"updated_at":          now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery assignment")
		}
		assignment.IsRejected = false
		assignment.RejectionReason = nil
		assignment.MarkedDeliveredAt = nil
		assignment.UpdatedAt = now
		if err := s.emitTransition(ctx, tx, enums.EventDeliveryDisputeCleared, assignment, order.Status, note, actor.Ref()); err != nil {
			return err
		}
		out = toAssignmentDTO(assignment, order.Status)
		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if applied {
		s.metrics.IncTransition("dispute_cleared")
		if s.logg != nil {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"assignment_id": assignmentID.String(),
				"note":          note,
			}), "delivery dispute cleared")
		}
	}
	return &out, nil
}

// DisputeQueue lists disputed, unconfirmed assignments for admins, newest first.
func (s *service) DisputeQueue(ctx context.Context, actor policy.Actor, params pagination.Params) (*DisputePage, error) {
	if err := policy.Authorize(actor, policy.ActionDisputeQueue, policy.Resource{}); err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListDisputes(ctx, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disputes")
	}

	rows, next := pagination.Split(rows, limit, func(a models.DeliveryAssignment) pagination.Cursor {
		return pagination.Cursor{SortAt: a.UpdatedAt, ID: a.ID}
	})
	page := &DisputePage{Items: make([]AssignmentDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		order, err := s.orders.FindByID(ctx, rows[i].OrderID)
		if err != nil {
			return nil, mapLoadError(err, "order")
		}
		page.Items = append(page.Items, toAssignmentDTO(&rows[i], order.Status))
	}
	return page, nil
}

// Register creates the caller's courier roster entry, unapproved.
func (s *service) Register(ctx context.Context, actor policy.Actor, displayName string) (*CourierDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCourierRegister, policy.Owned(actor.UserID)); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}
	courier := &models.Courier{UserID: actor.UserID, DisplayName: displayName}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindCourier(ctx, actor.UserID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "courier already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
		}
		if err := repo.CreateCourier(ctx, courier); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create courier")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toCourierDTO(courier)
	return &dto, nil
}

// CheckIn marks an approved courier available for today's assignments.
func (s *service) CheckIn(ctx context.Context, actor policy.Actor) (*CourierDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCourierCheckIn, policy.Owned(actor.UserID)); err != nil {
		return nil, err
	}
	var out CourierDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		courier, err := repo.FindCourier(ctx, actor.UserID)
		if err != nil {
			return mapLoadError(err, "courier")
		}
		if !courier.IsApproved {
			return pkgerrors.New(pkgerrors.CodeForbidden, "courier is not approved")
		}
		now := s.now()
		today := startOfDay(now)
		if err := repo.UpdateCourier(ctx, courier.UserID, map[string]any{"active_on": calendarDay(now)}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check in courier")
		}
		courier.ActiveOn = &today
		out = toCourierDTO(courier)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Approve toggles a courier's approval.
func (s *service) Approve(ctx context.Context, actor policy.Actor, courierID uuid.UUID, approved bool) (*CourierDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCourierApprove, policy.Resource{}); err != nil {
		return nil, err
	}
	var out CourierDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		courier, err := repo.FindCourier(ctx, courierID)
		if err != nil {
			return mapLoadError(err, "courier")
		}
		if err := repo.UpdateCourier(ctx, courierID, map[string]any{"is_approved": approved}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update courier approval")
		}
		courier.IsApproved = approved
		out = toCourierDTO(courier)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"courier_id": courierID.String(),
			"approved":   approved,
		}), "courier approval updated")
	}
	return &out, nil
}

func (s *service) emitAssigned(ctx context.Context, tx *gorm.DB, assignment *models.DeliveryAssignment, courierID uuid.UUID, manual bool, actor *outbox.ActorRef) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventDeliveryAssigned,
		AggregateType: enums.AggregateDeliveryAssignment,
		AggregateID:   assignment.ID,
		Actor:         actor,
		Data: payloads.DeliveryAssignedEvent{
			AssignmentID: assignment.ID,
			OrderID:      assignment.OrderID,
			CourierID:    courierID,
			Manual:       manual,
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit delivery assigned")
	}
	return nil
}

func (s *service) emitTransition(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, assignment *models.DeliveryAssignment, orderStatus enums.OrderStatus, reason string, actor *outbox.ActorRef) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateDeliveryAssignment,
		AggregateID:   assignment.ID,
		Actor:         actor,
		Data: payloads.DeliveryTransitionEvent{
			AssignmentID: assignment.ID,
			OrderID:      assignment.OrderID,
			CourierID:    assignment.DeliveryPersonID,
			State:        assignment.State(orderStatus),
			Reason:       reason,
			At:           assignment.UpdatedAt,
		},
		OccurredAt: assignment.UpdatedAt,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit "+string(eventType))
	}
	return nil
}

// calendarDay is the UTC date of t as written to and matched against couriers.active_on.
func calendarDay(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var errDisputed = pkgerrors.New(pkgerrors.CodeStateConflict, "delivery is disputed and awaits admin review")

func mapLoadError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
