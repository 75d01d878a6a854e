// Package httpapi assembles the public HTTP surface: the middleware chain,
// the feature routes, and the health and metrics endpoints.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"registrar/internal/platform/metrics"
	"registrar/internal/platform/middleware"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/platform/middleware/metadata"
	"registrar/pkg/platform/middleware/requesttime"
)

// Feature mounts a group of routes. Feature handlers satisfy it with their
// Register methods.
type Feature interface {
	Register(r chi.Router)
}

// New builds the service router. Health and metrics sit outside the request
// middleware so probes and scrapes stay out of the request log; everything
// else runs the full chain.
func New(logger *slog.Logger, m *metrics.Metrics, requestTimeout time.Duration, features ...Feature) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(g chi.Router) {
		g.Use(middleware.RequestID)
		g.Use(requesttime.Middleware)
		g.Use(metadata.ClientMetadata)
		g.Use(middleware.Logger(logger))
		g.Use(middleware.Timeout(requestTimeout))
		g.Use(middleware.ContentTypeJSON)
		g.Use(middleware.Latency(m))

		for _, f := range features {
			f.Register(g)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
