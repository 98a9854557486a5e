package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mesh-worker-go/internal/domain"
	"mesh-worker-go/internal/models"
	"mesh-worker-go/internal/reconciler"
	"mesh-worker-go/internal/worker"
)

// maxDefinitionBytes caps the size of a workload definition body.
const maxDefinitionBytes = 1 << 20

// FunctionService is the operation set the function endpoints serve.
type FunctionService interface {
	Apply(ctx context.Context, id domain.Identity, def *domain.WorkloadDefinition) (*worker.ApplyResult, error)
	Get(ctx context.Context, id domain.Identity) (*domain.WorkloadDefinition, error)
	List(ctx context.Context, tenant, namespace string) ([]string, error)
	Delete(ctx context.Context, id domain.Identity) error
	Status(ctx context.Context, id domain.Identity, instance *int) (*domain.AggregateStatus, error)
	Stats(ctx context.Context, id domain.Identity, instance *int) (*domain.AggregateMetrics, error)
}

// FunctionsHandler handles the /functions endpoints
type FunctionsHandler struct {
	svc    FunctionService
	logger *zap.Logger
}

// NewFunctionsHandler creates a new functions handler
func NewFunctionsHandler(svc FunctionService, logger *zap.Logger) *FunctionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FunctionsHandler{svc: svc, logger: logger}
}

// HandleApply handles PUT and POST /api/v1/functions/{tenant}/{namespace}/{name}
func (h *FunctionsHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDefinitionBytes)

	var def domain.WorkloadDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.logger.Debug("invalid request body", zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.Apply(r.Context(), identityFromPath(r), &def)
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if res.Operation == reconciler.OperationCreated {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, models.ApplyResponse{
		Operation: string(res.Operation),
		Function:  res.Definition,
	})
}

// HandleGet handles GET /api/v1/functions/{tenant}/{namespace}/{name}
func (h *FunctionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	def, err := h.svc.Get(r.Context(), identityFromPath(r))
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}

// HandleList handles GET /api/v1/functions/{tenant}/{namespace}
func (h *FunctionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	namespace := chi.URLParam(r, "namespace")

	names, err := h.svc.List(r.Context(), tenant, namespace)
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.FunctionListResponse{
		Tenant:    tenant,
		Namespace: namespace,
		Functions: names,
	})
}

// HandleDelete handles DELETE /api/v1/functions/{tenant}/{namespace}/{name}
func (h *FunctionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), identityFromPath(r)); err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus handles GET /api/v1/functions/{tenant}/{namespace}/{name}/status
func (h *FunctionsHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	instance, err := instanceFilter(r)
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	status, err := h.svc.Status(r.Context(), identityFromPath(r), instance)
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// HandleStats handles GET /api/v1/functions/{tenant}/{namespace}/{name}/stats
func (h *FunctionsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	instance, err := instanceFilter(r)
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	stats, err := h.svc.Stats(r.Context(), identityFromPath(r), instance)
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func identityFromPath(r *http.Request) domain.Identity {
	return domain.Identity{
		Tenant:    chi.URLParam(r, "tenant"),
		Namespace: chi.URLParam(r, "namespace"),
		Name:      chi.URLParam(r, "name"),
	}
}

// instanceFilter parses the optional ?instance=N query parameter.
func instanceFilter(r *http.Request) (*int, error) {
	raw := r.URL.Query().Get("instance")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.Validationf("instance %q is not an integer", raw)
	}
	return &n, nil
}
