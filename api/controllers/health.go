package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/foodbridge-backend/api/responses"
	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check names one readiness dependency. A nil Pinger is reported as skipped.
type Check struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FoodBridge-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FoodBridge-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := map[string]string{}
		var failed []string
		for _, check := range checks {
			if check.Pinger == nil {
				status[check.Name] = "skipped"
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				status[check.Name] = "down"
				failed = append(failed, check.Name)
				continue
			}
			status[check.Name] = "up"
		}
		if len(failed) > 0 {
			logCtx := r.Context()
			if logg != nil {
				logCtx = logg.WithField(logCtx, "failed_checks", failed)
			}
			responses.WriteError(logCtx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "not ready"))
			return
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
