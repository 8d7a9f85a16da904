// Package httptransport assembles the HTTP surface: middleware chain, domain
// handlers, health, and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskboard/internal/platform/metrics"
	"taskboard/internal/platform/middleware"
	"taskboard/pkg/platform/httputil"
)

// Registrar is implemented by every domain handler package.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the shared middleware chain and mounts the given handlers.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
