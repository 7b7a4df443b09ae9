package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the public HTTP API. authMW guards /api/v1 when non-nil.
func NewRouter(handler *DiscoveryHandler, authMW func(http.Handler) http.Handler, logger *slog.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(chi_middleware.RequestID)
	r.Use(chi_middleware.RealIP)
	r.Use(chi_middleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)
	if requestTimeout > 0 {
		r.Use(chi_middleware.Timeout(requestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "Number discovery service is healthy"})
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		if authMW != nil {
			v1.Use(authMW)
		} else {
			logger.Warn("JWT secret not configured, /api/v1 is unauthenticated")
		}
		handler.RegisterRoutes(v1)
	})

	return r
}
