package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when placement commits.
type OrderCreatedEvent struct {
	OrderID          uuid.UUID  `json:"orderId"`
	UserID           uuid.UUID  `json:"userId"`
	SubtotalCents    int64      `json:"subtotalCents"`
	DiscountCents    int64      `json:"discountCents"`
	DeliveryFeeCents int64      `json:"deliveryFeeCents"`
	TotalCents       int64      `json:"totalCents"`
	ItemCount        int        `json:"itemCount"`
	CouponID         *uuid.UUID `json:"couponId,omitempty"`
}

// OrderStatusChangedEvent records a forward move of an order.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"orderId"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// OrderCancelledEvent is emitted once per order when it leaves through cancelled or rejected.
type OrderCancelledEvent struct {
	OrderID       uuid.UUID         `json:"orderId"`
	UserID        uuid.UUID         `json:"userId"`
	Status        enums.OrderStatus `json:"status"`
	PreviousState enums.OrderStatus `json:"previousStatus"`
	Reason        string            `json:"reason,omitempty"`
	RestoredUnits int               `json:"restoredUnits"`
	CancelledAt   time.Time         `json:"cancelledAt"`
}

// DeliveryAssignedEvent is emitted when a courier is bound to an order.
type DeliveryAssignedEvent struct {
	AssignmentID uuid.UUID `json:"assignmentId"`
	OrderID      uuid.UUID `json:"orderId"`
	CourierID    uuid.UUID `json:"courierId"`
	Manual       bool      `json:"manual"`
}

// DeliveryTransitionEvent covers pickup, delivery marking, confirmation and disputes.
type DeliveryTransitionEvent struct {
	AssignmentID uuid.UUID             `json:"assignmentId"`
	OrderID      uuid.UUID             `json:"orderId"`
	CourierID    *uuid.UUID            `json:"courierId,omitempty"`
	State        enums.AssignmentState `json:"state"`
	Reason       string                `json:"reason,omitempty"`
	At           time.Time             `json:"at"`
}

// CommissionLine is one accrued entry.
type CommissionLine struct {
	EntryID       uuid.UUID            `json:"entryId"`
	Type          enums.CommissionType `json:"type"`
	BeneficiaryID *uuid.UUID           `json:"beneficiaryId,omitempty"`
	AmountCents   int64                `json:"amountCents"`
}

// CommissionAccruedEvent is emitted when a confirmed delivery accrues commission.
type CommissionAccruedEvent struct {
	OrderID uuid.UUID        `json:"orderId"`
	Entries []CommissionLine `json:"entries"`
}

// PayoutEvent covers payout requests and resolutions.
type PayoutEvent struct {
	PayoutID    uuid.UUID            `json:"payoutId"`
	PayerID     *uuid.UUID           `json:"payerId,omitempty"`
	PayeeID     *uuid.UUID           `json:"payeeId,omitempty"`
	Type        enums.CommissionType `json:"type"`
	AmountCents int64                `json:"amountCents"`
	Status      enums.PayoutStatus   `json:"status"`
	ResolvedBy  *uuid.UUID           `json:"resolvedBy,omitempty"`
}
