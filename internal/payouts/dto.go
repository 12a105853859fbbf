package payouts

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// PayoutRequest asks for a settlement. A nil PayeeID means the platform.
type PayoutRequest struct {
	PayeeID     *uuid.UUID           `json:"payeeId,omitempty"`
	Type        enums.CommissionType `json:"type" validate:"required,oneof=developer_commission delivery_commission"`
	AmountCents int64                `json:"amountCents" validate:"required,gt=0"`
}

// PayoutDTO is the payout view.
type PayoutDTO struct {
	ID          uuid.UUID            `json:"id"`
	PayerID     *uuid.UUID           `json:"payerId,omitempty"`
	PayeeID     *uuid.UUID           `json:"payeeId,omitempty"`
	RequestedBy uuid.UUID            `json:"requestedBy"`
	Type        enums.CommissionType `json:"type"`
	AmountCents int64                `json:"amountCents"`
	Status      enums.PayoutStatus   `json:"status"`
	ResolvedBy  *uuid.UUID           `json:"resolvedBy,omitempty"`
	ResolvedAt  *time.Time           `json:"resolvedAt,omitempty"`
	Note        *string              `json:"note,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func toDTO(p *models.Payout) *PayoutDTO {
	return &PayoutDTO{
		ID:          p.ID,
		PayerID:     p.PayerID,
		PayeeID:     p.PayeeID,
		RequestedBy: p.RequestedBy,
		Type:        p.Type,
		AmountCents: p.AmountCents,
		Status:      p.Status,
		ResolvedBy:  p.ResolvedBy,
		ResolvedAt:  p.ResolvedAt,
		Note:        p.Note,
		CreatedAt:   p.CreatedAt,
	}
}
