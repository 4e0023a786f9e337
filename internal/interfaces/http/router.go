// Package http assembles the registry's HTTP API: the chi router, the
// middleware chain, and the server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FCM-Registry/internal/interfaces/http/handlers"
	"github.com/turtacn/FCM-Registry/internal/interfaces/http/middleware"
)

// RouterConfig collects the handlers and middleware of the API server. Nil
// fields are skipped, so tests can mount only the routes they exercise.
type RouterConfig struct {
	Substances *handlers.SubstanceHandler
	Health     *handlers.HealthHandler

	CORS *middleware.CORSMiddleware

	// Logger enables the request log. Probe and scrape paths are skipped.
	Logger logging.Logger

	// Metrics enables per-request counters and the in-flight gauge.
	Metrics *prometheus.AppMetrics

	// MetricsCollector exposes the /metrics scrape endpoint.
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the chi router for the registry API.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(cfg.CORS.Handler)
	}
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Probe and scrape endpoints live outside the versioned API.
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Liveness)
		r.Get("/readyz", cfg.Health.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.Substances != nil {
			registerSubstanceRoutes(api, cfg.Substances)
		}
		if cfg.Health != nil {
			api.Get("/health", cfg.Health.Detailed)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"COMMON_003","message":"route not found"}` + "\n"))
	})

	return r
}

func registerSubstanceRoutes(api chi.Router, h *handlers.SubstanceHandler) {
	api.Get("/substances", h.List)
	api.Get("/substances/{fca}", h.Get)
	api.Get("/substances/cas/{cas}", h.ByCAS)
	api.Get("/substances/cid/{cid}", h.ByCID)
	api.Get("/substances/name/{name}", h.ByName)
	api.Post("/refresh", h.Refresh)
	api.Get("/index", h.GetIndex)
	api.Get("/stats", h.GetStats)
}
