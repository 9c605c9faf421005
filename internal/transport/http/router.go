// Package httptransport assembles the service's HTTP surface: public
// onboarding endpoints, JWT-protected admin endpoints, health checks, and
// the metrics exporter.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meridian/internal/onboarding/handler"
	"meridian/internal/platform/metrics"
	"meridian/internal/platform/middleware"
	"meridian/internal/transport/http/shared"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Onboarding *handler.Handler
	AdminAuth  middleware.AdminTokenValidator
	HTTPMetric *metrics.HTTP
	Logger     *slog.Logger
	// Checks run on /readyz; a nil map means always ready.
	Checks map[string]HealthChecker
}

// NewRouter wires the full route table.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestMetadata)
	if d.HTTPMetric != nil {
		r.Use(func(next http.Handler) http.Handler {
			return d.HTTPMetric.Instrument("all", next)
		})
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(d))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(d.Onboarding.RegisterPublic)

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.RequireAdmin(d.AdminAuth, d.Logger))
		d.Onboarding.RegisterAdmin(ar)
	})

	return r
}

func readiness(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		report := make(map[string]string, len(d.Checks))
		for name, check := range d.Checks {
			if err := check.Health(r.Context()); err != nil {
				d.Logger.WarnContext(r.Context(), "readiness check failed",
					"dependency", name, "error", err)
				report[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		shared.WriteJSON(w, status, report)
	}
}
