package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/ledger"
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

type balanceReader interface {
	Balance(ctx context.Context, tx *gorm.DB, beneficiaryID *uuid.UUID) (*ledger.Balance, error)
}

// Service requests and resolves commission payouts.
type Service interface {
	Request(ctx context.Context, actor policy.Actor, req PayoutRequest) (*PayoutDTO, error)
	Resolve(ctx context.Context, actor policy.Actor, payoutID uuid.UUID, approve bool, note string) (*PayoutDTO, error)
	Balance(ctx context.Context, actor policy.Actor) (*ledger.Balance, error)
}

type service struct {
	tx       txRunner
	repo     Repository
	balances balanceReader
	outbox   outboxPublisher
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the payout service.
func NewService(tx txRunner, repo Repository, balances balanceReader, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if balances == nil {
		return nil, fmt.Errorf("balance reader required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		balances: balances,
		outbox:   publisher,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Request creates a pending payout paid by the actor. Admins pay on behalf of the platform.
// Delivery commissions are paid by the platform to a courier and are capped at the courier's
// outstanding balance. Developer commissions are paid by a courier to the platform.
func (s *service) Request(ctx context.Context, actor policy.Actor, req PayoutRequest) (*PayoutDTO, error) {
	if err := policy.Authorize(actor, policy.ActionPayoutRequest, policy.Resource{}); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payout type %q", req.Type)
	}
	if req.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var payer *uuid.UUID
	if !actor.IsAdmin() {
		id := actor.UserID
		payer = &id
	}

	switch req.Type {
	case enums.CommissionTypeDelivery:
		if !actor.IsAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "delivery commissions are paid by the platform")
		}
		if req.PayeeID == nil || *req.PayeeID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payee is required for delivery commission")
		}
	case enums.CommissionTypeDeveloper:
		if actor.IsAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "developer commissions are paid by couriers")
		}
		if req.PayeeID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "developer commission is paid to the platform")
		}
	}

	payout := &models.Payout{
		ID:          uuid.New(),
		PayerID:     payer,
		PayeeID:     req.PayeeID,
		RequestedBy: actor.UserID,
		AmountCents: req.AmountCents,
		Type:        req.Type,
		Status:      enums.PayoutStatusPending,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if req.Type == enums.CommissionTypeDelivery {
			if _, err := repo.LockCourier(ctx, *req.PayeeID); err != nil {
				return mapLoadError(err, "courier")
			}
			balance, err := s.balances.Balance(ctx, tx, req.PayeeID)
			if err != nil {
				return err
			}
			if req.AmountCents > balance.OutstandingCents {
				return pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds outstanding balance").
					WithDetails(map[string]any{"outstandingCents": balance.OutstandingCents})
			}
		}
		if err := repo.Create(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}
		return s.emit(ctx, tx, enums.EventPayoutRequested, payout, actor.Ref())
	})
	if err != nil {
		return nil, err
	}
	return toDTO(payout), nil
}

// Resolve approves or rejects a pending payout. The requester may not resolve their own payout.
func (s *service) Resolve(ctx context.Context, actor policy.Actor, payoutID uuid.UUID, approve bool, note string) (*PayoutDTO, error) {
	decision := enums.PayoutStatusRejected
	if approve {
		decision = enums.PayoutStatusApproved
	}
	note = strings.TrimSpace(note)

	var out *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payout, err := repo.LockByID(ctx, payoutID)
		if err != nil {
			return mapLoadError(err, "payout")
		}
		if payout.PayeeID == nil {
			err = policy.Authorize(actor, policy.ActionPayoutResolvePlatform, policy.Resource{})
		} else {
			err = policy.Authorize(actor, policy.ActionPayoutResolve, policy.Owned(*payout.PayeeID))
		}
		if err != nil {
			return err
		}
		if payout.RequestedBy == actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "requester cannot resolve their own payout")
		}

		switch payout.Status {
		case decision:
			out = payout
			return nil
		case enums.PayoutStatusPending:
		default:
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "payout already %s", payout.Status).
				WithDetails(map[string]any{"status": payout.Status})
		}

		now := s.now()
		resolver := actor.UserID
		updates := map[string]any{
			"status":      decision,
			"resolved_by": resolver,
			"resolved_at": now,
			"updated_at":  now,
		}
		if note != "" {
			updates["note"] = note
			payout.Note = &note
		}
		if err := repo.Update(ctx, payout.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}
		payout.Status = decision
		payout.ResolvedBy = &resolver
		payout.ResolvedAt = &now
		out = payout
		return s.emit(ctx, tx, enums.EventPayoutResolved, payout, actor.Ref())
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"payout_id": payoutID.String(),
			"status":    out.Status,
		}), "payout resolved")
	}
	return toDTO(out), nil
}

// Balance reports the caller's outstanding commission. Admins see the platform's balance.
func (s *service) Balance(ctx context.Context, actor policy.Actor) (*ledger.Balance, error) {
	if err := policy.Authorize(actor, policy.ActionPayoutRequest, policy.Resource{}); err != nil {
		return nil, err
	}
	var beneficiary *uuid.UUID
	if !actor.IsAdmin() {
		id := actor.UserID
		beneficiary = &id
	}
	return s.balances.Balance(ctx, nil, beneficiary)
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, payout *models.Payout, actor *outbox.ActorRef) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayout,
		AggregateID:   payout.ID,
		Actor:         actor,
		Data: payloads.PayoutEvent{
			PayoutID:    payout.ID,
			PayerID:     payout.PayerID,
			PayeeID:     payout.PayeeID,
			Type:        payout.Type,
			AmountCents: payout.AmountCents,
			Status:      payout.Status,
			ResolvedBy:  payout.ResolvedBy,
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit "+string(eventType))
	}
	return nil
}

func mapLoadError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
