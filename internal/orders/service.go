package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/inventory"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/outbox"
	"github.com/freshcart/freshcart-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockRestorer interface {
	Restore(ctx context.Context, tx *gorm.DB, quantities inventory.Quantities) error
}

// Service drives the order lifecycle.
type Service interface {
	Get(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*OrderDTO, error)
	Transition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, to enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error)
	Confirm(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, actor policy.Actor, orderID uuid.UUID, reason string) (*OrderDTO, error)
	Reject(ctx context.Context, actor policy.Actor, orderID uuid.UUID, reason string) (*OrderDTO, error)
	Expire(ctx context.Context, orderID uuid.UUID, reason string) (bool, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type service struct {
	tx          txRunner
	repo        Repository
	assignments AssignmentReader
	stock       stockRestorer
	outbox      outboxPublisher
	logg        *logger.Logger
	now         func() time.Time
}

// NewService wires the order lifecycle service.
func NewService(tx txRunner, repo Repository, assignments AssignmentReader, stock stockRestorer, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if assignments == nil {
		return nil, fmt.Errorf("assignment reader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock restorer required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		assignments: assignments,
		stock:       stock,
		outbox:      publisher,
		logg:        logg,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Get(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapOrderError(err)
	}
	assignment, err := s.loadAssignment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionOrderView, orderResource(order, assignment)); err != nil {
		return nil, err
	}
	return ToDTO(order, assignment), nil
}

// Transition moves an order forward along pending -> confirmed -> out_for_delivery -> delivered.
// Steps may be skipped; moving backwards or out of a terminal status is a state conflict.
// Exits go through Cancel, Reject or Expire so stock is restored.
func (s *service) Transition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, to enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error) {
	if !to.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", to)
	}
	if to.IsExit() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exit statuses require cancel or reject")
	}
	repo := s.repo.WithTx(tx)
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapOrderError(err)
	}
	if order.Status == to {
		return order, nil
	}
	if order.Status.IsTerminal() {
		return nil, stateConflict(order.Status, to)
	}
	if to.Rank() <= order.Status.Rank() {
		return nil, stateConflict(order.Status, to)
	}

	now := s.now()
	updates := map[string]any{"status": to, "updated_at": now}
	if to == enums.OrderStatusDelivered {
		updates["delivered_at"] = now
	}
	rows, err := repo.CompareAndSetStatus(ctx, orderID, []enums.OrderStatus{order.Status}, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
	}

	from := order.Status
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         actor,
		Data:          payloads.OrderStatusChangedEvent{OrderID: orderID, From: from, To: to},
		OccurredAt:    now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status changed")
	}

	order.Status = to
	order.UpdatedAt = now
	if to == enums.OrderStatusDelivered {
		order.DeliveredAt = &now
	}
	return order, nil
}

func (s *service) Confirm(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	if err := policy.Authorize(actor, policy.ActionOrderConfirm, policy.Resource{}); err != nil {
		return nil, err
	}
	var out *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.Transition(ctx, tx, orderID, enums.OrderStatusConfirmed, actor.Ref())
		out = order
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.render(ctx, out)
}

// Cancel lets a customer cancel their own pending or confirmed order, or an admin cancel any
// non-terminal order.
func (s *service) Cancel(ctx context.Context, actor policy.Actor, orderID uuid.UUID, reason string) (*OrderDTO, error) {
	var out *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return mapOrderError(err)
		}
		if err := policy.Authorize(actor, policy.ActionOrderCancel, policy.Owned(order.UserID)); err != nil {
			return err
		}
		if !actor.IsAdmin() && order.Status == enums.OrderStatusOutForDelivery {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already out for delivery").
				WithDetails(map[string]any{"status": order.Status})
		}
		out, _, err = s.exit(ctx, tx, order, enums.OrderStatusCancelled, reason, actor.Ref())
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.render(ctx, out)
}

func (s *service) Reject(ctx context.Context, actor policy.Actor, orderID uuid.UUID, reason string) (*OrderDTO, error) {
	if err := policy.Authorize(actor, policy.ActionOrderReject, policy.Resource{}); err != nil {
		return nil, err
	}
	var out *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return mapOrderError(err)
		}
		out, _, err = s.exit(ctx, tx, order, enums.OrderStatusRejected, reason, actor.Ref())
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.render(ctx, out)
}

// Expire cancels a still-pending order on behalf of the system. It reports whether this call
// performed the cancellation.
func (s *service) Expire(ctx context.Context, orderID uuid.UUID, reason string) (bool, error) {
	applied := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return mapOrderError(err)
		}
		if order.Status != enums.OrderStatusPending {
			return nil
		}
		_, won, err := s.exit(ctx, tx, order, enums.OrderStatusCancelled, reason, nil)
		applied = won
		return err
	})
	return applied, err
}

func (s *service) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	rows, err := s.repo.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}
	return rows, nil
}

// exit moves order into cancelled or rejected. Only the caller whose compare-and-set wins
// restores stock; every other caller observes the exit and returns without side effects.
func (s *service) exit(ctx context.Context, tx *gorm.DB, order *models.Order, to enums.OrderStatus, reason string, actor *outbox.ActorRef) (*models.Order, bool, error) {
	repo := s.repo.WithTx(tx)
	now := s.now()

	updates := map[string]any{
		"status":       to,
		"cancelled_at": now,
		"updated_at":   now,
	}
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		updates["cancel_reason"] = trimmed
	}
	rows, err := repo.CompareAndSetStatus(ctx, order.ID, enums.NonTerminalOrderStatuses, updates)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if rows == 0 {
		current, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return nil, false, mapOrderError(err)
		}
		if current.Status.IsExit() {
			return current, false, nil
		}
		return nil, false, stateConflict(current.Status, to)
	}

	restored, err := repo.MarkStockRestored(ctx, order.ID, now)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark stock restored")
	}
	quantities := inventory.FromOrderItems(order.Items)
	if restored == 1 {
		if err := s.stock.Restore(ctx, tx, quantities); err != nil {
			return nil, false, err
		}
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCancelled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderCancelledEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			Status:        to,
			PreviousState: order.Status,
			Reason:        strings.TrimSpace(reason),
			RestoredUnits: quantities.Total(),
			CancelledAt:   now,
		},
		OccurredAt: now,
	}); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order cancelled")
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"from":           order.Status,
			"to":             to,
			"restored_units": quantities.Total(),
		}), "order exited")
	}

	current, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, false, mapOrderError(err)
	}
	return current, true, nil
}

func (s *service) render(ctx context.Context, order *models.Order) (*OrderDTO, error) {
	assignment, err := s.loadAssignment(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return ToDTO(order, assignment), nil
}

func (s *service) loadAssignment(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error) {
	assignment, err := s.assignments.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery assignment")
	}
	return assignment, nil
}

func orderResource(order *models.Order, assignment *models.DeliveryAssignment) policy.Resource {
	res := policy.Owned(order.UserID)
	if assignment != nil {
		res.AssigneeID = assignment.DeliveryPersonID
	}
	return res
}

func stateConflict(from, to enums.OrderStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, to).
		WithDetails(map[string]any{"from": from, "to": to})
}

func mapOrderError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
