package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/niyastp88/zayancart/api/controllers"
	"github.com/niyastp88/zayancart/api/middleware"
	cartsvc "github.com/niyastp88/zayancart/internal/cart"
	checkoutsvc "github.com/niyastp88/zayancart/internal/checkout"
	ordersvc "github.com/niyastp88/zayancart/internal/orders"
	productsvc "github.com/niyastp88/zayancart/internal/products"
	usersvc "github.com/niyastp88/zayancart/internal/users"
	"github.com/niyastp88/zayancart/pkg/config"
	"github.com/niyastp88/zayancart/pkg/db"
	"github.com/niyastp88/zayancart/pkg/logger"
	"github.com/niyastp88/zayancart/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	usersService usersvc.Service,
	productsService productsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()

	// Avoid typed-nil interfaces when redis is absent (tests, degraded boots).
	var idemStore redis.IdempotencyStore
	var redisPinger redis.Pinger
	if redisClient != nil {
		idemStore = redisClient
		redisPinger = redisClient
	}
	rateLimit := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if redisClient == nil {
			return middleware.AuthRateLimit(policy, nil, logg)
		}
		return middleware.AuthRateLimit(policy, redisClient, logg)
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Frontend.BaseURL),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisPinger, logg))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))
		r.With(rateLimit(loginPolicy)).Post("/login", controllers.Login(usersService, logg))
		r.With(rateLimit(registerPolicy)).Post("/register", controllers.Register(usersService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/me", controllers.Me(usersService, logg))
		})
	})

	// Public catalog reads.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(productsService, logg))
		r.Get("/{id}", controllers.GetProduct(productsService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idemStore, logg))
			r.Post("/{id}/reviews", controllers.AddProductReview(productsService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Delete("/", controllers.ClearCart(cartService, logg))
			r.Post("/items", controllers.AddCartItem(cartService, logg))
			r.Put("/items/{itemID}", controllers.UpdateCartItem(cartService, logg))
			r.Delete("/items/{itemID}", controllers.RemoveCartItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CreateCheckout(checkoutService, logg))
			r.Get("/{id}", controllers.GetCheckout(checkoutService, logg))
			r.Post("/{id}/pay", controllers.PayCheckout(checkoutService, logg))
			r.Post("/{id}/verify", controllers.VerifyCheckoutPayment(checkoutService, logg))
			r.Post("/{id}/finalize", controllers.FinalizeCheckout(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(ordersService, logg))
			r.Get("/{id}", controllers.GetOrder(ordersService, logg))
			r.Post("/{id}/items/{itemID}/return", controllers.RequestOrderReturn(ordersService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.CreateProduct(productsService, logg))
				r.Put("/{id}", controllers.UpdateProduct(productsService, logg))
				r.Delete("/{id}", controllers.DeleteProduct(productsService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(ordersService, logg))
				r.Get("/returns", controllers.AdminListReturnRequests(ordersService, logg))
				r.Put("/{id}/status", controllers.AdminSetOrderStatus(ordersService, logg))
				r.Put("/{id}/items/{itemID}/return", controllers.AdminDecideReturn(ordersService, logg))
			})
		})
	})

	return r
}
