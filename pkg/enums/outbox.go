package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder              OutboxAggregateType = "order"
	AggregateDeliveryAssignment OutboxAggregateType = "delivery_assignment"
	AggregateCommission         OutboxAggregateType = "commission_entry"
	AggregatePayout             OutboxAggregateType = "payout"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateDeliveryAssignment,
	AggregateCommission,
	AggregatePayout,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated            OutboxEventType = "order_created"
	EventOrderStatusChanged      OutboxEventType = "order_status_changed"
	EventOrderCancelled          OutboxEventType = "order_cancelled"
	EventDeliveryAssigned        OutboxEventType = "delivery_assigned"
	EventDeliveryPickedUp        OutboxEventType = "delivery_picked_up"
	EventDeliveryMarkedDelivered OutboxEventType = "delivery_marked_delivered"
	EventDeliveryConfirmed       OutboxEventType = "delivery_confirmed"
	EventDeliveryDisputed        OutboxEventType = "delivery_disputed"
	EventDeliveryDisputeCleared  OutboxEventType = "delivery_dispute_cleared"
	EventCommissionAccrued       OutboxEventType = "commission_accrued"
	EventPayoutRequested         OutboxEventType = "payout_requested"
	EventPayoutResolved          OutboxEventType = "payout_resolved"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderCancelled,
	EventDeliveryAssigned,
	EventDeliveryPickedUp,
	EventDeliveryMarkedDelivered,
	EventDeliveryConfirmed,
	EventDeliveryDisputed,
	EventDeliveryDisputeCleared,
	EventCommissionAccrued,
	EventPayoutRequested,
	EventPayoutResolved,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
