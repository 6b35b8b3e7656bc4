package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/shipbridge-backend/api/responses"
	"github.com/angelmondragon/shipbridge-backend/pkg/config"
	"github.com/angelmondragon/shipbridge-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/redis"
)

const readyCheckTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShipBridge-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the stateful dependencies. An instance that cannot
// reach its database or cache must not receive platform traffic.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShipBridge-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{
			"database": pingStatus(ctx, dbP),
			"redis":    pingStatus(ctx, redisP),
		}
		for _, status := range checks {
			if status != "ok" && status != "skipped" {
				err := pkgerrors.New(pkgerrors.CodeDependency, "service dependencies unavailable").
					WithDetails(checks)
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingStatus(ctx context.Context, p pinger) string {
	if p == nil {
		return "skipped"
	}
	if err := p.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}
