package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Courier is a delivery person's roster entry.
type Courier struct {
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey"`
	DisplayName string     `gorm:"column:display_name;not null"`
	IsApproved  bool       `gorm:"column:is_approved;not null;default:false"`
	ActiveOn    *time.Time `gorm:"column:active_on;type:date"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// DeliveryAssignment binds one order to one delivery person for its lifetime.
type DeliveryAssignment struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	DeliveryPersonID  *uuid.UUID `gorm:"column:delivery_person_id;type:uuid"`
	AssignedAt        *time.Time `gorm:"column:assigned_at"`
	PickedUpAt        *time.Time `gorm:"column:picked_up_at"`
	MarkedDeliveredAt *time.Time `gorm:"column:marked_delivered_at"`
	UserConfirmedAt   *time.Time `gorm:"column:user_confirmed_at"`
	IsRejected        bool       `gorm:"column:is_rejected;not null;default:false"`
	RejectionReason   *string    `gorm:"column:rejection_reason"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// State derives the assignment's position in the delivery state machine.
func (a DeliveryAssignment) State(orderStatus enums.OrderStatus) enums.AssignmentState {
	switch {
	case a.UserConfirmedAt != nil:
		return enums.AssignmentStateConfirmed
	case a.IsRejected:
		return enums.AssignmentStateRejected
	case orderStatus.IsExit():
		return enums.AssignmentStateRejected
	case a.MarkedDeliveredAt != nil:
		return enums.AssignmentStateMarkedDelivered
	case a.PickedUpAt != nil || orderStatus == enums.OrderStatusOutForDelivery:
		return enums.AssignmentStatePickedUp
	case a.DeliveryPersonID != nil:
		return enums.AssignmentStateAssigned
	default:
		return enums.AssignmentStateUnassigned
	}
}
