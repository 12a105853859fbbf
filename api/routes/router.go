package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshcart/freshcart-backend/api/controllers"
	cartcontrollers "github.com/freshcart/freshcart-backend/api/controllers/cart"
	ordercontrollers "github.com/freshcart/freshcart-backend/api/controllers/orders"
	"github.com/freshcart/freshcart-backend/api/middleware"
	"github.com/freshcart/freshcart-backend/internal/checkout"
	"github.com/freshcart/freshcart-backend/internal/coupons"
	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/redis"
)

// CartService covers both the signed-in and the guest cart surfaces.
type CartService interface {
	cartcontrollers.UserCart
	cartcontrollers.GuestCart
}

// Services bundles the domain services the HTTP layer dispatches to.
type Services struct {
	Checkout checkout.Service
	Resolver controllers.ConflictResolver
	Coupons  coupons.Service
	Cart     CartService
	Orders   ordercontrollers.Service
	Delivery controllers.DeliveryService
	Catalog  controllers.CatalogService
	Payouts  controllers.PayoutService
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	svc Services,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	// a typed nil client must not reach the middleware as a non-nil interface
	var (
		idemStore redis.IdempotencyStore
		limiter   redis.RateLimiter
		cache     controllers.Pinger
	)
	if redisClient != nil {
		idemStore, limiter, cache = redisClient, redisClient, redisClient
	}
	idem := middleware.Idempotency(idemStore, logg)
	couponPolicy := middleware.NewRateLimitPolicy(
		"coupon_validate",
		cfg.RateLimit.CouponValidateWindow,
		cfg.RateLimit.CouponValidateLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/public/guest-cart/{token}", func(r chi.Router) {
		r.Get("/", cartcontrollers.GuestCartFetch(svc.Cart, logg))
		r.Put("/items", cartcontrollers.GuestCartWrite(svc.Cart, logg))
		r.Post("/items", cartcontrollers.GuestCartWrite(svc.Cart, logg))
		r.Delete("/items/{productId}", cartcontrollers.GuestCartItemRemove(svc.Cart, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleCustomer, enums.RoleAdmin))

			r.With(idem).Post("/checkout", controllers.Checkout(svc.Checkout, logg))
			r.With(idem).Post("/checkout/resolve", controllers.CheckoutResolve(svc.Resolver, logg))
			r.With(middleware.RateLimit(couponPolicy, limiter, logg)).
				Post("/coupons/validate", controllers.CouponValidate(svc.Coupons, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
				r.Put("/", cartcontrollers.CartUpsert(svc.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(svc.Cart, logg))
				r.Put("/items/{productId}", cartcontrollers.CartUpsert(svc.Cart, logg))
				r.Delete("/items/{productId}", cartcontrollers.CartItemRemove(svc.Cart, logg))
				r.With(idem).Post("/claim", cartcontrollers.CartClaim(svc.Cart, logg))
			})
		})

		r.Get("/orders/{orderId}", ordercontrollers.Detail(svc.Orders, logg))
		r.With(idem).Post("/orders/{orderId}/cancel", ordercontrollers.CancelOrder(svc.Orders, logg))
		r.With(idem).Post("/assignments/{assignmentId}/respond", controllers.AssignmentRespond(svc.Delivery, logg))

		r.Route("/courier", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleCourier))
			r.Post("/register", controllers.CourierRegister(svc.Delivery, logg))
			r.Post("/check-in", controllers.CourierCheckIn(svc.Delivery, logg))
			r.Post("/orders/{orderId}/pickup", controllers.CourierPickup(svc.Delivery, logg))
			r.Post("/assignments/{assignmentId}/delivered", controllers.CourierMarkDelivered(svc.Delivery, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.With(idem).Post("/", controllers.PayoutCreate(svc.Payouts, logg))
			r.Get("/balance", controllers.PayoutBalance(svc.Payouts, logg))
			r.With(idem).Post("/{payoutId}/resolve", controllers.PayoutResolve(svc.Payouts, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
			r.Get("/disputes", controllers.AdminDisputes(svc.Delivery, logg))
			r.With(idem).Post("/assignments/{assignmentId}/clear-dispute", controllers.AdminClearDispute(svc.Delivery, logg))
			r.Route("/orders/{orderId}", func(r chi.Router) {
				r.With(idem).Post("/confirm", ordercontrollers.ConfirmOrder(svc.Orders, logg))
				r.With(idem).Post("/reject", ordercontrollers.RejectOrder(svc.Orders, logg))
				r.With(idem).Post("/cancel", ordercontrollers.CancelOrder(svc.Orders, logg))
				r.With(idem).Post("/assign", controllers.AdminAssignCourier(svc.Delivery, logg))
			})
			r.Post("/couriers/{courierId}/approval", controllers.AdminCourierApproval(svc.Delivery, logg))
			r.Patch("/products/{productId}", controllers.AdminProductUpdate(svc.Catalog, logg))
			r.With(idem).Post("/products/{productId}/restock", controllers.AdminProductRestock(svc.Catalog, logg))
		})
	})

	return r
}
