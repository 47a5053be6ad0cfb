package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/authhub/authhub/internal/service"
	apperrors "github.com/authhub/authhub/pkg/errors"
	"github.com/authhub/authhub/pkg/httputil"
	"github.com/authhub/authhub/pkg/validator"
)

// IdempotencyKeyHeader carries the caller-supplied key for the onboarding call.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// InternalHandler handles the service-to-service surface: endpoint sync,
// onboarding, and the gateway's bulk reads.
type InternalHandler struct {
	permissions *service.PermissionService
	tenants     *service.TenantService
	logger      *slog.Logger
}

// NewInternalHandler creates a new internal HTTP handler.
func NewInternalHandler(permissions *service.PermissionService, tenants *service.TenantService, logger *slog.Logger) *InternalHandler {
	return &InternalHandler{permissions: permissions, tenants: tenants, logger: logger}
}

// --- Request DTOs ---

// SyncEndpointRequest describes one endpoint in a sync request.
type SyncEndpointRequest struct {
	HTTPMethod    string   `json:"httpMethod" validate:"required,httpmethod"`
	PathPattern   string   `json:"pathPattern" validate:"required,startswith=/,max=500"`
	PermissionKey string   `json:"permissionKey" validate:"omitempty,max=100"`
	Description   string   `json:"description" validate:"omitempty,max=500"`
	IsPublic      bool     `json:"isPublic"`
	RequiredRoles []string `json:"requiredRoles" validate:"omitempty,dive,max=50"`
}

// SyncRequest is the JSON request body for endpoint sync.
type SyncRequest struct {
	ServiceName string                `json:"serviceName" validate:"required,min=1,max=100"`
	Endpoints   []SyncEndpointRequest `json:"endpoints" validate:"required,min=1,dive"`
}

// OnboardRequest is the JSON request body for tenant onboarding.
type OnboardRequest struct {
	TenantName       string `json:"tenantName" validate:"required,min=1,max=200"`
	OrganizationName string `json:"organizationName" validate:"required,min=1,max=200"`
}

// --- Handlers ---

// SyncEndpoints handles POST /api/v1/internal/endpoints/sync
func (h *InternalHandler) SyncEndpoints(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<20) // 4MB limit, sync payloads carry full service maps

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.SyncInput{ServiceName: req.ServiceName}
	for _, ep := range req.Endpoints {
		input.Endpoints = append(input.Endpoints, service.SyncEndpointInput{
			HTTPMethod:    ep.HTTPMethod,
			PathPattern:   ep.PathPattern,
			PermissionKey: ep.PermissionKey,
			Description:   ep.Description,
			IsPublic:      ep.IsPublic,
			RequiredRoles: ep.RequiredRoles,
		})
	}

	result, err := h.permissions.SyncEndpoints(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Onboard handles POST /api/v1/internal/onboarding
func (h *InternalHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	idempotencyKey := r.Header.Get(IdempotencyKeyHeader)
	if idempotencyKey == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput(IdempotencyKeyHeader+" header is required"), h.logger)
		return
	}

	var req OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.tenants.Onboard(r.Context(), idempotencyKey, service.OnboardInput{
		TenantName:       req.TenantName,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: result})
}

// PermissionMap handles GET /api/v1/internal/permissions
func (h *InternalHandler) PermissionMap(w http.ResponseWriter, r *http.Request) {
	rules, err := h.permissions.PermissionMap(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rules})
}

// ResolveSpec handles GET /api/v1/internal/permissions/resolve
func (h *InternalHandler) ResolveSpec(w http.ResponseWriter, r *http.Request) {
	serviceName := r.URL.Query().Get("serviceName")
	path := r.URL.Query().Get("path")
	method := r.URL.Query().Get("method")
	if serviceName == "" || path == "" || method == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("serviceName, path and method query parameters are required"), h.logger)
		return
	}

	spec, err := h.permissions.ResolveSpec(r.Context(), serviceName, path, method)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: spec})
}

// UserGrants handles GET /api/v1/internal/users/{userId}/grants
func (h *InternalHandler) UserGrants(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	grants, err := h.permissions.UserGrants(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: grants})
}

// TenantConfig handles GET /api/v1/internal/tenants/{tenantId}/config
func (h *InternalHandler) TenantConfig(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")

	cfg, err := h.tenants.Config(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cfg})
}

// DeleteEndpoint handles DELETE /api/v1/internal/endpoint-permissions/{id}
func (h *InternalHandler) DeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.permissions.DeleteEndpoint(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "deleted"}})
}

// RestoreEndpoint handles POST /api/v1/internal/endpoint-permissions/{id}/restore
func (h *InternalHandler) RestoreEndpoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.permissions.RestoreEndpoint(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "restored"}})
}
