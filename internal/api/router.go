package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mesh-worker-go/internal/api/handlers"
	"mesh-worker-go/internal/api/middleware"
	"mesh-worker-go/internal/config"
)

// Service is everything the HTTP API calls into.
type Service interface {
	handlers.FunctionService
	handlers.ReadinessChecker
}

// NewRouter creates a new Chi router with all routes and middleware configured
func NewRouter(svc Service, cfg *config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	timeout := 60 * time.Second
	if cfg.HTTPWriteTimeout > 0 {
		timeout = cfg.HTTPWriteTimeout
	}

	// Apply middleware stack
	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Timeout(timeout))

	functionsHandler := handlers.NewFunctionsHandler(svc, logger)
	healthHandler := handlers.NewHealthHandler(svc, cfg.AppVersion, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/functions/{tenant}/{namespace}", func(r chi.Router) {
			r.Get("/", functionsHandler.HandleList)

			r.Route("/{name}", func(r chi.Router) {
				r.Put("/", functionsHandler.HandleApply)
				r.Post("/", functionsHandler.HandleApply)
				r.Get("/", functionsHandler.HandleGet)
				r.Delete("/", functionsHandler.HandleDelete)
				r.Get("/status", functionsHandler.HandleStatus)
				r.Get("/stats", functionsHandler.HandleStats)
			})
		})

		// Health and readiness endpoints
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/ready", healthHandler.HandleReady)

		// Metrics endpoint
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	})

	return r
}
