package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/sweetshop-backend/api/controllers"
	"github.com/angelmondragon/sweetshop-backend/api/middleware"
	"github.com/angelmondragon/sweetshop-backend/internal/auth"
	"github.com/angelmondragon/sweetshop-backend/internal/cart"
	"github.com/angelmondragon/sweetshop-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/sweetshop-backend/internal/checkout"
	"github.com/angelmondragon/sweetshop-backend/pkg/auth/session"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/metrics"
	"github.com/angelmondragon/sweetshop-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	authService auth.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisClient,
		}, logg))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/auth/login", controllers.AuthLogin(authService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/logout", controllers.AuthLogout(authService, logg))
				r.Get("/session", controllers.AuthSession(authService, logg))
			})

			r.Route("/sweets", func(r chi.Router) {
				r.Get("/", controllers.SweetsList(catalogService, logg))
				r.Get("/low-stock", controllers.SweetsLowStock(catalogService, logg))
				r.Get("/categories", controllers.SweetsCategories(catalogService, logg))
				r.Get("/stats", controllers.SweetsStats(catalogService, logg))
				r.Get("/{sweetId}", controllers.SweetsGet(catalogService, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
					r.Post("/", controllers.SweetsCreate(catalogService, logg))
					r.Patch("/{sweetId}", controllers.SweetsUpdate(catalogService, logg))
					r.Delete("/{sweetId}", controllers.SweetsDelete(catalogService, logg))
				})
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Put("/items/{itemId}", controllers.CartSetQuantity(cartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
			})

			r.With(middleware.Idempotency(redisClient, cfg.App.IdempotencyTTL, logg)).
				Post("/checkout", controllers.Checkout(checkoutService, logg))
		})
	})

	return r
}
