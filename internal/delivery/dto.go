package delivery

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// AssignmentDTO is the delivery assignment view returned to couriers, customers and admins.
type AssignmentDTO struct {
	ID                uuid.UUID             `json:"id"`
	OrderID           uuid.UUID             `json:"orderId"`
	DeliveryPersonID  *uuid.UUID            `json:"deliveryPersonId,omitempty"`
	State             enums.AssignmentState `json:"state"`
	OrderStatus       enums.OrderStatus     `json:"orderStatus,omitempty"`
	AssignedAt        *time.Time            `json:"assignedAt,omitempty"`
	PickedUpAt        *time.Time            `json:"pickedUpAt,omitempty"`
	MarkedDeliveredAt *time.Time            `json:"markedDeliveredAt,omitempty"`
	UserConfirmedAt   *time.Time            `json:"userConfirmedAt,omitempty"`
	IsRejected        bool                  `json:"isRejected"`
	RejectionReason   *string               `json:"rejectionReason,omitempty"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// DisputePage is one page of the admin dispute queue.
type DisputePage struct {
	Items      []AssignmentDTO `json:"items"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

// CourierDTO is a roster entry.
type CourierDTO struct {
	UserID      uuid.UUID  `json:"userId"`
	DisplayName string     `json:"displayName"`
	IsApproved  bool       `json:"isApproved"`
	ActiveOn    *time.Time `json:"activeOn,omitempty"`
}

func toAssignmentDTO(a *models.DeliveryAssignment, orderStatus enums.OrderStatus) AssignmentDTO {
	return AssignmentDTO{
		ID:                a.ID,
		OrderID:           a.OrderID,
		DeliveryPersonID:  a.DeliveryPersonID,
		State:             a.State(orderStatus),
		OrderStatus:       orderStatus,
		AssignedAt:        a.AssignedAt,
		PickedUpAt:        a.PickedUpAt,
		MarkedDeliveredAt: a.MarkedDeliveredAt,
		UserConfirmedAt:   a.UserConfirmedAt,
		IsRejected:        a.IsRejected,
		RejectionReason:   a.RejectionReason,
		UpdatedAt:         a.UpdatedAt,
	}
}

func toCourierDTO(c *models.Courier) CourierDTO {
	return CourierDTO{
		UserID:      c.UserID,
		DisplayName: c.DisplayName,
		IsApproved:  c.IsApproved,
		ActiveOn:    c.ActiveOn,
	}
}
