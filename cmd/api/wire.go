package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/freshcart/freshcart-backend/api/routes"
	"github.com/freshcart/freshcart-backend/internal/cart"
	"github.com/freshcart/freshcart-backend/internal/checkout"
	"github.com/freshcart/freshcart-backend/internal/checkout/resolution"
	"github.com/freshcart/freshcart-backend/internal/coupons"
	"github.com/freshcart/freshcart-backend/internal/delivery"
	"github.com/freshcart/freshcart-backend/internal/inventory"
	"github.com/freshcart/freshcart-backend/internal/ledger"
	"github.com/freshcart/freshcart-backend/internal/orders"
	"github.com/freshcart/freshcart-backend/internal/payouts"
	product "github.com/freshcart/freshcart-backend/internal/products"
	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/db"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/metrics"
	"github.com/freshcart/freshcart-backend/pkg/outbox"
	"github.com/freshcart/freshcart-backend/pkg/redis"
)

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer) (routes.Services, error) {
	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	inventoryRepo := inventory.NewRepository(conn)
	stock, err := inventory.NewLedger(inventoryRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("inventory ledger: %w", err)
	}

	guest, err := cart.NewGuestStore(redisClient, cfg.Cart.GuestTTL)
	if err != nil {
		return routes.Services{}, fmt.Errorf("guest cart store: %w", err)
	}
	cartSvc, err := cart.NewService(cart.NewRepository(conn), dbClient, inventoryRepo, guest, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("cart service: %w", err)
	}

	couponSvc, err := coupons.NewService(coupons.NewRepository(conn), time.Now)
	if err != nil {
		return routes.Services{}, fmt.Errorf("coupon service: %w", err)
	}

	ordersRepo := orders.NewRepository(conn)
	deliveryRepo := delivery.NewRepository(conn)
	ordersSvc, err := orders.NewService(dbClient, ordersRepo, deliveryRepo, stock, outboxSvc, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("orders service: %w", err)
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), outboxSvc, cfg.Commission)
	if err != nil {
		return routes.Services{}, fmt.Errorf("ledger service: %w", err)
	}

	deliverySvc, err := delivery.NewService(delivery.ServiceParams{
		Tx:          dbClient,
		Repo:        deliveryRepo,
		Orders:      ordersRepo,
		Transitions: ordersSvc,
		Commission:  ledgerSvc,
		Outbox:      outboxSvc,
		Selector:    delivery.NewSelector(cfg.Delivery.SelectionSeed),
		Metrics:     metrics.NewDeliveryMetrics(reg),
		Logger:      logg,
		Now:         time.Now,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("delivery service: %w", err)
	}

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:       dbClient,
		Orders:   ordersRepo,
		Stock:    stock,
		Coupons:  couponSvc,
		Cart:     cartSvc,
		Delivery: deliverySvc,
		Outbox:   outboxSvc,
		Config:   cfg.Checkout,
		Metrics:  metrics.NewPlacementMetrics(reg),
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("checkout service: %w", err)
	}

	resolver, err := resolution.NewResolver(cartSvc, checkoutSvc, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("conflict resolver: %w", err)
	}

	catalogSvc, err := product.NewService(dbClient, product.NewRepository(conn), stock)
	if err != nil {
		return routes.Services{}, fmt.Errorf("catalog service: %w", err)
	}

	payoutSvc, err := payouts.NewService(dbClient, payouts.NewRepository(conn), ledgerSvc, outboxSvc, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("payout service: %w", err)
	}

	return routes.Services{
		Checkout: checkoutSvc,
		Resolver: resolver,
		Coupons:  couponSvc,
		Cart:     cartSvc,
		Orders:   ordersSvc,
		Delivery: deliverySvc,
		Catalog:  catalogSvc,
		Payouts:  payoutSvc,
	}, nil
}
