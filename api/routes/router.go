package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shipbridge-backend/api/controllers"
	authcontrollers "github.com/angelmondragon/shipbridge-backend/api/controllers/auth"
	modulecontrollers "github.com/angelmondragon/shipbridge-backend/api/controllers/modules"
	webhookcontrollers "github.com/angelmondragon/shipbridge-backend/api/controllers/webhooks"
	"github.com/angelmondragon/shipbridge-backend/api/middleware"
	"github.com/angelmondragon/shipbridge-backend/pkg/config"
	"github.com/angelmondragon/shipbridge-backend/pkg/db"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface needs. Optional
// dependencies degrade their route instead of failing composition.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          redis.Pinger
	Quotes         modulecontrollers.QuoteService
	Triggers       webhookcontrollers.TriggerService
	Configs        webhookcontrollers.ConfigWriter
	Credentials    authcontrollers.CredentialsWriter
	MetricsHandler http.Handler
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", params.MetricsHandler)
	}

	r.Route("/ecom", func(r chi.Router) {
		r.Post("/auth-callback", authcontrollers.Callback(params.Credentials, logg))
		r.Post("/webhook", webhookcontrollers.OrdersTrigger(params.Triggers, params.Configs, logg))
		r.Route("/modules", func(r chi.Router) {
			r.Post("/calculate-shipping", modulecontrollers.CalculateShipping(params.Quotes, logg))
		})
	})

	return r
}
