package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/ebookshop-backend/api/controllers"
	"github.com/angelmondragon/ebookshop-backend/api/middleware"
	"github.com/angelmondragon/ebookshop-backend/internal/admin"
	"github.com/angelmondragon/ebookshop-backend/internal/cart"
	"github.com/angelmondragon/ebookshop-backend/internal/catalog"
	"github.com/angelmondragon/ebookshop-backend/internal/checkout"
	"github.com/angelmondragon/ebookshop-backend/pkg/auth/session"
	"github.com/angelmondragon/ebookshop-backend/pkg/config"
	"github.com/angelmondragon/ebookshop-backend/pkg/db"
	"github.com/angelmondragon/ebookshop-backend/pkg/enums"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
	"github.com/angelmondragon/ebookshop-backend/pkg/metrics"
	"github.com/angelmondragon/ebookshop-backend/pkg/redis"
)

const adminLoginPath = "/api/admin/v1/auth/login"

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkout.Service,
	adminService admin.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	var idempotencyStore redis.IdempotencyStore
	var rateStore middleware.RateLimiterStore
	if redisClient != nil {
		idempotencyStore = redisClient
		rateStore = redisClient
	}

	var readiness []controllers.ReadinessCheck
	if dbP != nil {
		readiness = append(readiness, controllers.ReadinessCheck{Name: "database", Ping: dbP.Ping})
	}
	if redisClient != nil {
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Ping: redisClient.Ping})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/locale", controllers.Locale())
		r.Get("/books", controllers.BooksList(catalogService, logg))
		r.Get("/books/{bookId}", controllers.BookGet(catalogService, logg))
		r.Get("/categories", controllers.Categories(catalogService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(cfg.Cart, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{bookId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{bookId}", controllers.CartRemoveItem(cartService, logg))
			})
			r.With(middleware.Idempotency(idempotencyStore, middleware.IdempotencyTTLCheckout, logg)).
				Post("/checkout", controllers.Checkout(checkoutService, logg))
		})
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AdminAuthLogin(adminService, logg))
		r.Post("/refresh", controllers.AdminAuthRefresh(adminService, logg))
		r.Post("/logout", controllers.AdminAuthLogout(adminService, logg))
		if !cfg.App.IsProd() {
			r.With(middleware.Idempotency(idempotencyStore, middleware.IdempotencyTTLDefault, logg)).Post("/register", controllers.AdminAuthRegister(adminService, logg))
		}
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, adminLoginPath, logg))
		r.Use(middleware.RequireRole(logg, enums.AdminRoleAdmin))

		r.Route("/books", func(r chi.Router) {
			r.Get("/", controllers.AdminBooksList(catalogService, logg))
			r.With(middleware.Idempotency(idempotencyStore, middleware.IdempotencyTTLDefault, logg)).
				Post("/", controllers.AdminBookCreate(catalogService, logg))
			r.Get("/{bookId}", controllers.AdminBookGet(catalogService, logg))
			r.Put("/{bookId}", controllers.AdminBookUpdate(catalogService, logg))
			r.Delete("/{bookId}", controllers.AdminBookDelete(catalogService, logg))
		})
	})

	return r
}
