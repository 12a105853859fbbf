package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// OrderDTO is the order detail view.
type OrderDTO struct {
	ID               uuid.UUID          `json:"id"`
	UserID           uuid.UUID          `json:"userId"`
	Status           enums.OrderStatus  `json:"status"`
	DeliveryAddress  string             `json:"deliveryAddress"`
	SubtotalCents    int64              `json:"subtotalCents"`
	DiscountCents    int64              `json:"discountCents"`
	DeliveryFeeCents int64              `json:"deliveryFeeCents"`
	TotalCents       int64              `json:"totalCents"`
	CouponID         *uuid.UUID         `json:"couponId,omitempty"`
	CancelReason     *string            `json:"cancelReason,omitempty"`
	Items            []OrderItemDTO     `json:"items"`
	Assignment       *AssignmentSummary `json:"assignment,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
	DeliveredAt      *time.Time         `json:"deliveredAt,omitempty"`
	CancelledAt      *time.Time         `json:"cancelledAt,omitempty"`
}

// OrderItemDTO is a snapshotted line.
type OrderItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"productId"`
	VariantID      *uuid.UUID `json:"variantId,omitempty"`
	ProductName    string     `json:"productName"`
	VariantLabel   *string    `json:"variantLabel,omitempty"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int64      `json:"unitPriceCents"`
	LineTotalCents int64      `json:"lineTotalCents"`
}

// AssignmentSummary is the delivery view embedded in an order.
type AssignmentSummary struct {
	ID                uuid.UUID             `json:"id"`
	DeliveryPersonID  *uuid.UUID            `json:"deliveryPersonId,omitempty"`
	State             enums.AssignmentState `json:"state"`
	PickedUpAt        *time.Time            `json:"pickedUpAt,omitempty"`
	MarkedDeliveredAt *time.Time            `json:"markedDeliveredAt,omitempty"`
	UserConfirmedAt   *time.Time            `json:"userConfirmedAt,omitempty"`
	IsRejected        bool                  `json:"isRejected"`
	RejectionReason   *string               `json:"rejectionReason,omitempty"`
}

// ToDTO renders an order with its optional assignment.
func ToDTO(order *models.Order, assignment *models.DeliveryAssignment) *OrderDTO {
	dto := &OrderDTO{
		ID:               order.ID,
		UserID:           order.UserID,
		Status:           order.Status,
		DeliveryAddress:  order.DeliveryAddress,
		SubtotalCents:    order.SubtotalCents,
		DiscountCents:    order.DiscountCents,
		DeliveryFeeCents: order.DeliveryFeeCents,
		TotalCents:       order.TotalCents,
		CouponID:         order.CouponID,
		CancelReason:     order.CancelReason,
		Items:            make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
		DeliveredAt:      order.DeliveredAt,
		CancelledAt:      order.CancelledAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			ProductName:    item.ProductName,
			VariantLabel:   item.VariantLabel,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents(),
		})
	}
	if assignment != nil {
		dto.Assignment = &AssignmentSummary{
			ID:                assignment.ID,
			DeliveryPersonID:  assignment.DeliveryPersonID,
			State:             assignment.State(order.Status),
			PickedUpAt:        assignment.PickedUpAt,
			MarkedDeliveredAt: assignment.MarkedDeliveredAt,
			UserConfirmedAt:   assignment.UserConfirmedAt,
			IsRejected:        assignment.IsRejected,
			RejectionReason:   assignment.RejectionReason,
		}
	}
	return dto
}
