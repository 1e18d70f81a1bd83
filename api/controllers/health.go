package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/fitdesk/gymportal-backend/api/responses"
	"github.com/fitdesk/gymportal-backend/pkg/config"
	"github.com/fitdesk/gymportal-backend/pkg/db"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
	pkgredis "github.com/fitdesk/gymportal-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

const envHeader = "X-GymPortal-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
