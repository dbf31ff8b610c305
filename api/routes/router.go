package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ktrudeau/giftnest-backend/api/controllers"
	"github.com/ktrudeau/giftnest-backend/api/middleware"
	"github.com/ktrudeau/giftnest-backend/internal/auth"
	"github.com/ktrudeau/giftnest-backend/internal/occasions"
	"github.com/ktrudeau/giftnest-backend/internal/orders"
	"github.com/ktrudeau/giftnest-backend/internal/recipients"
	"github.com/ktrudeau/giftnest-backend/internal/recommendations"
	"github.com/ktrudeau/giftnest-backend/internal/selection"
	"github.com/ktrudeau/giftnest-backend/pkg/auth/session"
	"github.com/ktrudeau/giftnest-backend/pkg/config"
	"github.com/ktrudeau/giftnest-backend/pkg/db"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/redis"
)

// Params bundles everything the router wires into handlers.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	AuthService     auth.Service
	RegisterService auth.RegisterService

	Recipients      recipients.Service
	Occasions       occasions.Service
	Recommendations recommendations.Service
	Selections      *selection.Manager
	AdminOrders     orders.AdminService

	MetricsGatherer prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).
			Post("/register", controllers.AuthRegister(p.RegisterService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).
			Post("/logout", controllers.AuthLogout(p.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/recipients", func(r chi.Router) {
			r.Get("/", controllers.RecipientList(p.Recipients, logg))
			r.Post("/", controllers.RecipientCreate(p.Recipients, logg))
			r.Get("/{recipientId}", controllers.RecipientDetail(p.Recipients, logg))
			r.Patch("/{recipientId}", controllers.RecipientUpdate(p.Recipients, logg))
			r.Delete("/{recipientId}", controllers.RecipientDelete(p.Recipients, logg))
		})

		r.Route("/occasions", func(r chi.Router) {
			r.Get("/", controllers.OccasionList(p.Occasions, logg))
			r.Post("/", controllers.OccasionCreate(p.Occasions, logg))
			r.Get("/{occasionId}", controllers.OccasionDetail(p.Occasions, logg))
			r.Delete("/{occasionId}", controllers.OccasionDelete(p.Occasions, logg))
		})

		r.Get("/recommendations", controllers.RecommendationsFetch(p.Recommendations, logg))

		r.Route("/selections", func(r chi.Router) {
			r.Get("/", controllers.SelectionList(p.Selections, logg))
			r.Post("/", controllers.SelectionSelect(p.Selections, logg))
			r.Post("/unselect", controllers.SelectionUnselect(p.Selections, logg))
			r.Post("/sync", controllers.SelectionSync(p.Selections, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Get("/ping", controllers.AdminPing())
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(p.AdminOrders, logg))
			r.Post("/{orderId}/{action}", controllers.AdminOrderTransition(p.AdminOrders, logg))
		})
	})

	return r
}
