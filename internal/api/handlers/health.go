package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"mesh-worker-go/internal/models"
)

// ReadinessChecker reports whether dependencies can serve traffic.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// HealthHandler handles health and readiness checks
type HealthHandler struct {
	checker ReadinessChecker
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker ReadinessChecker, version string, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		checker: checker,
		version: version,
		logger:  logger,
	}
}

// HandleHealth handles GET /api/v1/health (liveness probe)
// Liveness never consults the cluster store.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Version: h.version})
}

// HandleReady handles GET /api/v1/ready (readiness probe)
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.checker != nil {
		if err := h.checker.Ready(r.Context()); err != nil {
			h.logger.Error("readiness check failed: cluster store unavailable", zap.Error(err))
			respondWithError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
	}
	respondWithJSON(w, http.StatusOK, models.HealthResponse{Status: "ready", Version: h.version})
}
