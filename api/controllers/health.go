package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/angelmondragon/pintuan-backend/api/responses"
	"github.com/angelmondragon/pintuan-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/pintuan-backend/pkg/errors"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is implemented by the db and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz pings every dependency and reports 503 when any of them fails.
func Healthz(cfg *config.Config, logg *logger.Logger, checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status := make(map[string]string, len(names))
		failed := map[string]string{}
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				failed[name] = err.Error()
				status[name] = "down"
				continue
			}
			status[name] = "up"
		}

		w.Header().Set("X-Pintuan-Env", cfg.App.Env)
		if len(failed) > 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency check failed").WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status": "ok",
			"checks": status,
		})
	}
}
