package controllers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linarqa/linarqa-web/api/responses"
	"github.com/linarqa/linarqa-web/pkg/config"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Linarqa-Env", cfg.App.Env)
		responses.WriteSuccess(w, healthStatus{Status: "live"})
	}
}

// HealthReady pings every check concurrently and answers 503 with the
// failing names as details when any of them is down. The school API is not
// a check: pages degrade on their own when it is unreachable.
func HealthReady(cfg *config.Config, checks map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name, check := range checks {
		if check != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Linarqa-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		var (
			mu      sync.Mutex
			results = make(map[string]string, len(names))
			failed  error
		)
		var g errgroup.Group
		for _, name := range names {
			g.Go(func() error {
				err := checks[name].Ping(ctx)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					results[name] = "unavailable"
					if failed == nil {
						failed = err
					}
					return nil
				}
				results[name] = "ok"
				return nil
			})
		}
		_ = g.Wait()

		if failed != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "not ready").WithDetails(results))
			return
		}
		responses.WriteSuccess(w, healthStatus{Status: "ready", Checks: results})
	}
}
