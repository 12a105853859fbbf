package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/checkout/helpers"
	"github.com/freshcart/freshcart-backend/internal/coupons"
	"github.com/freshcart/freshcart-backend/internal/inventory"
	"github.com/freshcart/freshcart-backend/internal/orders"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/db"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/metrics"
	"github.com/freshcart/freshcart-backend/pkg/outbox"
	"github.com/freshcart/freshcart-backend/pkg/outbox/payloads"
)

// Conflict explains why one requested line cannot be fulfilled.
type Conflict = helpers.Conflict

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	Lock(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	Decrement(ctx context.Context, tx *gorm.DB, quantities inventory.Quantities) error
}

type couponRedeemer interface {
	Redeem(ctx context.Context, tx *gorm.DB, userID, couponID uuid.UUID, subtotalCents int64) (*coupons.Redemption, error)
	RecordUsage(ctx context.Context, tx *gorm.DB, userID, couponID, orderID uuid.UUID) error
}

type cartClearer interface {
	ClearTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	ClearGuest(ctx context.Context, token string) error
}

type courierAssigner interface {
	AssignOnCreate(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.DeliveryAssignment, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PlaceItem is one line the customer asks to buy. PriceCents is the price the client displayed;
// the charged price is always resolved from the catalog.
type PlaceItem struct {
	ProductID  uuid.UUID  `json:"productId" validate:"required"`
	VariantID  *uuid.UUID `json:"variantId,omitempty"`
	Quantity   int        `json:"quantity"`
	PriceCents int64      `json:"priceCents"`
}

// PlaceOrderInput is the placement request.
type PlaceOrderInput struct {
	UserID              uuid.UUID   `json:"-"`
	DeliveryAddress     string      `json:"deliveryAddress" validate:"required"`
	Items               []PlaceItem `json:"items" validate:"required,min=1,dive"`
	CouponID            *uuid.UUID  `json:"couponId,omitempty"`
	ClientDiscountCents *int64      `json:"clientDiscountCents,omitempty"`
	GuestToken          *string     `json:"guestToken,omitempty"`
}

// OrderTotals are the server-computed amounts of a placed order.
type OrderTotals struct {
	SubtotalCents    int64 `json:"subtotalCents"`
	DiscountCents    int64 `json:"discountCents"`
	DeliveryFeeCents int64 `json:"deliveryFeeCents"`
	TotalCents       int64 `json:"totalCents"`
}

// PlaceOrderResult reports either the created order or the conflicts that blocked it.
type PlaceOrderResult struct {
	Success   bool         `json:"success"`
	OrderID   *uuid.UUID   `json:"orderId,omitempty"`
	Totals    *OrderTotals `json:"totals,omitempty"`
	Conflicts []Conflict   `json:"conflicts,omitempty"`
}

// Service places orders.
type Service interface {
	Place(ctx context.Context, actor policy.Actor, input PlaceOrderInput) (*PlaceOrderResult, error)
}

// ServiceParams groups the collaborators of the placement transaction.
type ServiceParams struct {
	Tx       txRunner
	Orders   orders.Repository
	Stock    stockLedger
	Coupons  couponRedeemer
	Cart     cartClearer
	Delivery courierAssigner
	Outbox   outboxPublisher
	Config   config.CheckoutConfig
	Metrics  *metrics.PlacementMetrics
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	orders   orders.Repository
	stock    stockLedger
	coupons  couponRedeemer
	cart     cartClearer
	delivery courierAssigner
	outbox   outboxPublisher
	cfg      config.CheckoutConfig
	metrics  *metrics.PlacementMetrics
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Delivery == nil {
		return nil, fmt.Errorf("delivery service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:       params.Tx,
		orders:   params.Orders,
		stock:    params.Stock,
		coupons:  params.Coupons,
		cart:     params.Cart,
		delivery: params.Delivery,
		outbox:   params.Outbox,
		cfg:      params.Config,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

var errConflicts = errors.New("placement blocked by conflicts")

// Place runs the placement transaction: lock stock, price, apply the coupon, persist the order,
// decrement stock, clear the cart, assign a courier and emit events. Stock conflicts roll the
// transaction back and are returned as data.
func (s *service) Place(ctx context.Context, actor policy.Actor, input PlaceOrderInput) (*PlaceOrderResult, error) {
	started := time.Now()
	if input.UserID == uuid.Nil {
		input.UserID = actor.UserID
	}
	if err := policy.Authorize(actor, policy.ActionCheckoutPlace, policy.Owned(input.UserID)); err != nil {
		return nil, err
	}

	lines := make([]helpers.Line, 0, len(input.Items))
	for _, item := range input.Items {
		lines = append(lines, helpers.Line{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity})
	}
	if err := helpers.ValidateShape(input.UserID, input.DeliveryAddress, lines); err != nil {
		s.metrics.Observe(metrics.PlacementError, time.Since(started), nil)
		return nil, err
	}

	var (
		result    *PlaceOrderResult
		conflicts []Conflict
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products, err := s.stock.Lock(ctx, tx, helpers.ProductIDs(lines))
		if err != nil {
			return err
		}
		if conflicts = helpers.DetectConflicts(lines, products); len(conflicts) > 0 {
			return errConflicts
		}

		order, quantities, categories := s.buildOrder(ctx, input, products)

		if input.CouponID != nil {
			redemption, err := s.coupons.Redeem(ctx, tx, input.UserID, *input.CouponID, order.SubtotalCents)
			if err != nil {
				return err
			}
			order.CouponID = &redemption.Coupon.ID
			order.DiscountCents = redemption.DiscountCents
			if input.ClientDiscountCents != nil && *input.ClientDiscountCents != redemption.DiscountCents {
				s.warn(ctx, input.UserID, map[string]any{
					"client_discount_cents": *input.ClientDiscountCents,
					"server_discount_cents": redemption.DiscountCents,
				}, "client discount differs from server discount")
			}
		}
		order.DeliveryFeeCents = helpers.DeliveryFee(order.SubtotalCents, categories, s.cfg)
		order.TotalCents = order.SubtotalCents - order.DiscountCents + order.DeliveryFeeCents
		if order.TotalCents < 0 {
			order.TotalCents = 0
		}

		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.stock.Decrement(ctx, tx, quantities); err != nil {
			return err
		}
		if order.CouponID != nil {
			if err := s.coupons.RecordUsage(ctx, tx, input.UserID, *order.CouponID, order.ID); err != nil {
				return err
			}
		}
		if err := s.cart.ClearTx(ctx, tx, input.UserID); err != nil {
			return err
		}
		if _, err := s.delivery.AssignOnCreate(ctx, tx, order); err != nil {
			return err
		}
		if err := s.emitCreated(ctx, tx, order, actor.Ref()); err != nil {
			return err
		}

		orderID := order.ID
		result = &PlaceOrderResult{
			Success: true,
			OrderID: &orderID,
			Totals: &OrderTotals{
				SubtotalCents:    order.SubtotalCents,
				DiscountCents:    order.DiscountCents,
				DeliveryFeeCents: order.DeliveryFeeCents,
				TotalCents:       order.TotalCents,
			},
		}
		return nil
	})
	elapsed := time.Since(started)

	if errors.Is(err, errConflicts) {
		types := make([]string, 0, len(conflicts))
		for _, c := range conflicts {
			types = append(types, c.ConflictType.String())
		}
		s.metrics.Observe(metrics.PlacementConflict, elapsed, types)
		return &PlaceOrderResult{Success: false, Conflicts: conflicts}, nil
	}
	if err != nil {
		s.metrics.Observe(metrics.PlacementError, elapsed, nil)
		return nil, mapPlacementError(err)
	}

	s.metrics.Observe(metrics.PlacementSuccess, elapsed, nil)
	if input.GuestToken != nil && *input.GuestToken != "" {
		if err := s.cart.ClearGuest(ctx, *input.GuestToken); err != nil && s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, result.OrderID.String()), "clear guest cart after placement", err)
		}
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":    result.OrderID.String(),
			"user_id":     input.UserID.String(),
			"total_cents": result.Totals.TotalCents,
		}), "order placed")
	}
	return result, nil
}

// buildOrder snapshots resolved prices into a pending order and collects the stock to take.
func (s *service) buildOrder(ctx context.Context, input PlaceOrderInput, products map[uuid.UUID]models.Product) (*models.Order, inventory.Quantities, []string) {
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          input.UserID,
		DeliveryAddress: input.DeliveryAddress,
		Status:          enums.OrderStatusPending,
		Items:           make([]models.OrderItem, 0, len(input.Items)),
	}
	quantities := inventory.Quantities{}
	categories := make([]string, 0, len(input.Items))
	for _, item := range input.Items {
		product := products[item.ProductID]
		unitPrice, label := helpers.UnitPrice(product, item.VariantID)
		if item.PriceCents > 0 && item.PriceCents != unitPrice {
			s.warn(ctx, input.UserID, map[string]any{
				"product_id":         item.ProductID.String(),
				"client_price_cents": item.PriceCents,
				"server_price_cents": unitPrice,
			}, "client price differs from catalog price")
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.New(),
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			ProductName:    product.Name,
			VariantLabel:   label,
			Quantity:       item.Quantity,
			UnitPriceCents: unitPrice,
		})
		order.SubtotalCents += int64(item.Quantity) * unitPrice
		quantities.Add(item.ProductID, item.Quantity)
		categories = append(categories, product.Category)
	}
	return order, quantities, categories
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, order *models.Order, actor *outbox.ActorRef) error {
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderCreatedEvent{
			OrderID:          order.ID,
			UserID:           order.UserID,
			SubtotalCents:    order.SubtotalCents,
			DiscountCents:    order.DiscountCents,
			DeliveryFeeCents: order.DeliveryFeeCents,
			TotalCents:       order.TotalCents,
			ItemCount:        itemCount,
			CouponID:         order.CouponID,
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order_created")
	}
	return nil
}

func (s *service) warn(ctx context.Context, userID uuid.UUID, fields map[string]any, msg string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}

func mapPlacementError(err error) error {
	if db.IsRetryable(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "placement conflicted with a concurrent transaction; retry")
	}
	if db.IsCheckViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "stock changed while placing the order; resolve the cart and retry")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
}
