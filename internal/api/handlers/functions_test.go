package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesh-worker-go/internal/domain"
	"mesh-worker-go/internal/models"
	"mesh-worker-go/internal/reconciler"
	"mesh-worker-go/internal/worker"
)

type fakeService struct {
	applyOp  reconciler.Operation
	err      error
	gotID    domain.Identity
	gotDef   *domain.WorkloadDefinition
	instance *int
}

func (f *fakeService) Apply(_ context.Context, id domain.Identity, def *domain.WorkloadDefinition) (*worker.ApplyResult, error) {
	f.gotID, f.gotDef = id, def
	if f.err != nil {
		return nil, f.err
	}
	def.Identity = id
	return &worker.ApplyResult{Operation: f.applyOp, Definition: def}, nil
}

func (f *fakeService) Get(_ context.Context, id domain.Identity) (*domain.WorkloadDefinition, error) {
	f.gotID = id
	if f.err != nil {
		return nil, f.err
	}
	return &domain.WorkloadDefinition{Identity: id, Parallelism: 2}, nil
}

func (f *fakeService) List(_ context.Context, tenant, namespace string) ([]string, error) {
	f.gotID = domain.Identity{Tenant: tenant, Namespace: namespace}
	if f.err != nil {
		return nil, f.err
	}
	return []string{"a", "b"}, nil
}

func (f *fakeService) Delete(_ context.Context, id domain.Identity) error {
	f.gotID = id
	return f.err
}

func (f *fakeService) Status(_ context.Context, id domain.Identity, instance *int) (*domain.AggregateStatus, error) {
	f.gotID, f.instance = id, instance
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AggregateStatus{NumInstances: 2, NumRunning: 1}, nil
}

func (f *fakeService) Stats(_ context.Context, id domain.Identity, instance *int) (*domain.AggregateMetrics, error) {
	f.gotID, f.instance = id, instance
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AggregateMetrics{NumReachable: 2}, nil
}

func newTestRouter(svc FunctionService) chi.Router {
	h := NewFunctionsHandler(svc, nil)
	r := chi.NewRouter()
	r.Get("/functions/{tenant}/{namespace}", h.HandleList)
	r.Put("/functions/{tenant}/{namespace}/{name}", h.HandleApply)
	r.Get("/functions/{tenant}/{namespace}/{name}", h.HandleGet)
	r.Delete("/functions/{tenant}/{namespace}/{name}", h.HandleDelete)
	r.Get("/functions/{tenant}/{namespace}/{name}/status", h.HandleStatus)
	r.Get("/functions/{tenant}/{namespace}/{name}/stats", h.HandleStats)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleApply(t *testing.T) {
	tests := []struct {
		name           string
		op             reconciler.Operation
		err            error
		body           string
		expectedStatus int
	}{
		{"created", reconciler.OperationCreated, nil, `{"runtime":"JAVA","inputs":{"in":{}}}`, http.StatusCreated},
		{"updated", reconciler.OperationUpdated, nil, `{"runtime":"JAVA","inputs":{"in":{}}}`, http.StatusOK},
		{"unchanged", reconciler.OperationUnchanged, nil, `{"runtime":"JAVA","inputs":{"in":{}}}`, http.StatusOK},
		{"invalid json", "", nil, `{invalid}`, http.StatusBadRequest},
		{"validation", "", domain.Validationf("inputs are required"), `{}`, http.StatusBadRequest},
		{"conflict", "", fmt.Errorf("%w: stale", domain.ErrConflict), `{}`, http.StatusConflict},
		{"already exists", "", domain.ErrAlreadyExists, `{}`, http.StatusConflict},
		{"unavailable", "", fmt.Errorf("%w: api down", domain.ErrUnavailable), `{}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{applyOp: tt.op, err: tt.err}
			w := serve(newTestRouter(svc), http.MethodPut, "/functions/public/default/word-count", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.expectedStatus >= http.StatusBadRequest {
				return
			}

			var resp models.ApplyResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.op), resp.Operation)
			assert.Equal(t, "word-count", resp.Function.Name)
			assert.Equal(t, domain.Identity{Tenant: "public", Namespace: "default", Name: "word-count"}, svc.gotID)
		})
	}
}

func TestHandleApply_BodyTooLarge(t *testing.T) {
	svc := &fakeService{}
	body := `{"className":"` + strings.Repeat("x", maxDefinitionBytes) + `"}`

	w := serve(newTestRouter(svc), http.MethodPut, "/functions/public/default/word-count", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Nil(t, svc.gotDef)
}

func TestHandleErrorKinds(t *testing.T) {
	var resp models.ErrorResponse
	svc := &fakeService{err: domain.NotFoundf("function public/default/missing")}

	w := serve(newTestRouter(svc), http.MethodGet, "/functions/public/default/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Kind)
	assert.Contains(t, resp.Error, "public/default/missing")

	svc.err = fmt.Errorf("boom")
	w = serve(newTestRouter(svc), http.MethodGet, "/functions/public/default/missing", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleGetListDelete(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	w := serve(r, http.MethodGet, "/functions/public/default/word-count", "")
	require.Equal(t, http.StatusOK, w.Code)
	var def domain.WorkloadDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
	assert.Equal(t, int32(2), def.Parallelism)

	w = serve(r, http.MethodGet, "/functions/public/default", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list models.FunctionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, models.FunctionListResponse{Tenant: "public", Namespace: "default", Functions: []string{"a", "b"}}, list)

	w = serve(r, http.MethodDelete, "/functions/public/default/word-count", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "word-count", svc.gotID.Name)
}

func TestInstanceFilter(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expected       *int
	}{
		{"all instances", "/functions/public/default/wc/status", http.StatusOK, nil},
		{"one instance", "/functions/public/default/wc/status?instance=1", http.StatusOK, intPtr(1)},
		{"stats one instance", "/functions/public/default/wc/stats?instance=0", http.StatusOK, intPtr(0)},
		{"not an integer", "/functions/public/default/wc/status?instance=first", http.StatusBadRequest, nil},
		{"stats not an integer", "/functions/public/default/wc/stats?instance=1.5", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			w := serve(newTestRouter(svc), http.MethodGet, tt.target, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expected, svc.instance)
		})
	}
}

func intPtr(i int) *int { return &i }
