// Package models holds the JSON bodies of the HTTP control API.
package models

import "mesh-worker-go/internal/domain"

// ApplyResponse is returned by PUT/POST on a function.
type ApplyResponse struct {
	Operation string                     `json:"operation"`
	Function  *domain.WorkloadDefinition `json:"function"`
}

// FunctionListResponse lists the functions of a tenant/namespace pair.
type FunctionListResponse struct {
	Tenant    string   `json:"tenant"`
	Namespace string   `json:"namespace"`
	Functions []string `json:"functions"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HealthResponse is the liveness/readiness body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
