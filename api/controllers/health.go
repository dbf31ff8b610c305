package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/ktrudeau/giftnest-backend/api/responses"
	"github.com/ktrudeau/giftnest-backend/pkg/config"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GiftNest-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the authoritative store and the session cache. A nil
// pinger means the dependency is disabled and is reported as skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, sessions pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GiftNest-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		failed := false

		checks["database"] = checkDependency(ctx, database)
		checks["redis"] = checkDependency(ctx, sessions)
		for _, status := range checks {
			if status == "down" {
				failed = true
			}
		}

		if failed {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").
				WithDetails(checks)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

func checkDependency(ctx context.Context, p pinger) string {
	if p == nil {
		return "skipped"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}
