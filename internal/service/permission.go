package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/authhub/authhub/internal/domain"
	"github.com/authhub/authhub/internal/event"
	"github.com/authhub/authhub/internal/repository"
	apperrors "github.com/authhub/authhub/pkg/errors"
)

// PermissionService resolves endpoint permission specs for the gateway and
// handles endpoint registration from owning services.
type PermissionService struct {
	endpoints   repository.EndpointPermissionRepository
	permissions repository.PermissionCatalog
	users       repository.UserDirectory
	producer    *event.Producer
	logger      *slog.Logger
}

// NewPermissionService creates a new permission service.
func NewPermissionService(
	endpoints repository.EndpointPermissionRepository,
	permissions repository.PermissionCatalog,
	users repository.UserDirectory,
	producer *event.Producer,
	logger *slog.Logger,
) *PermissionService {
	return &PermissionService{
		endpoints:   endpoints,
		permissions: permissions,
		users:       users,
		producer:    producer,
		logger:      logger,
	}
}

// ResolveSpec finds the first registered rule covering (serviceName, path,
// method). Candidates are evaluated in registration order; earlier rules win
// over later ones regardless of specificity. Absence of a matching rule is
// reported as ErrNotFound and the gateway applies its own default policy.
func (s *PermissionService) ResolveSpec(ctx context.Context, serviceName, path, method string) (*domain.PermissionSpec, error) {
	candidates, err := s.endpoints.FindByServiceAndMethod(ctx, serviceName, method)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if candidates[i].Matches(path, method) {
			return domain.SpecFrom(&candidates[i]), nil
		}
	}

	return nil, apperrors.NotFound("permission spec", serviceName+" "+method+" "+path)
}

// PermissionMap returns every active endpoint rule for gateway-side caching.
func (s *PermissionService) PermissionMap(ctx context.Context) ([]domain.EndpointPermission, error) {
	return s.endpoints.FindAllActive(ctx)
}

// UserGrants returns the flattened permission and role keys for a user.
func (s *PermissionService) UserGrants(ctx context.Context, userID string) (*domain.UserGrants, error) {
	return s.users.GetGrants(ctx, userID)
}

// SyncEndpointInput describes one endpoint in a sync request.
type SyncEndpointInput struct {
	HTTPMethod    string
	PathPattern   string
	PermissionKey string
	Description   string
	IsPublic      bool
	RequiredRoles []string
}

// SyncInput is a service's full endpoint declaration.
type SyncInput struct {
	ServiceName string
	Endpoints   []SyncEndpointInput
}

// SyncResult reports what a sync call changed.
type SyncResult struct {
	TotalEndpoints     int `json:"totalEndpoints"`
	CreatedPermissions int `json:"createdPermissions"`
	CreatedEndpoints   int `json:"createdEndpoints"`
	SkippedEndpoints   int `json:"skippedEndpoints"`
}

// SyncEndpoints registers a service's endpoint declarations. Missing
// permission keys are created first, then each endpoint is upserted keyed by
// (service, path, method). Already-registered endpoints have their
// description and flags refreshed in place and are counted as skipped, so
// re-syncing the same declaration is idempotent and never duplicates rules.
func (s *PermissionService) SyncEndpoints(ctx context.Context, input SyncInput) (*SyncResult, error) {
	result := &SyncResult{TotalEndpoints: len(input.Endpoints)}

	keys := collectPermissionKeys(input.Endpoints)
	if len(keys) > 0 {
		created, err := s.permissions.EnsureKeys(ctx, keys)
		if err != nil {
			return nil, err
		}
		result.CreatedPermissions = created
	}

	now := time.Now().UTC()
	for _, ep := range input.Endpoints {
		record := &domain.EndpointPermission{
			ID:          uuid.New().String(),
			ServiceName: input.ServiceName,
			Path:        ep.PathPattern,
			Method:      ep.HTTPMethod,
			Description: ep.Description,
			IsPublic:    ep.IsPublic,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if !ep.IsPublic {
			if ep.PermissionKey != "" {
				record.RequiredPermissions = []string{ep.PermissionKey}
			}
			record.RequiredRoles = ep.RequiredRoles
		}

		created, err := s.endpoints.Upsert(ctx, record)
		if err != nil {
			return nil, err
		}
		if created {
			result.CreatedEndpoints++
		} else {
			result.SkippedEndpoints++
		}
	}

	// Publish sync event (non-blocking on failure).
	if err := s.producer.PublishEndpointsSynced(ctx, event.EndpointsSyncedData{
		ServiceName:        input.ServiceName,
		TotalEndpoints:     result.TotalEndpoints,
		CreatedEndpoints:   result.CreatedEndpoints,
		CreatedPermissions: result.CreatedPermissions,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish endpoints.synced event",
			slog.String("service_name", input.ServiceName),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "endpoints synced",
		slog.String("service_name", input.ServiceName),
		slog.Int("total", result.TotalEndpoints),
		slog.Int("created", result.CreatedEndpoints),
		slog.Int("skipped", result.SkippedEndpoints),
	)

	return result, nil
}

// DeleteEndpoint soft-deletes an endpoint rule.
func (s *PermissionService) DeleteEndpoint(ctx context.Context, id string) error {
	if err := s.endpoints.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "endpoint permission deleted", slog.String("endpoint_id", id))
	return nil
}

// RestoreEndpoint reverses a soft delete.
func (s *PermissionService) RestoreEndpoint(ctx context.Context, id string) error {
	if err := s.endpoints.Restore(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "endpoint permission restored", slog.String("endpoint_id", id))
	return nil
}

// collectPermissionKeys returns the distinct non-empty permission keys of
// non-public endpoints, in first-seen order.
func collectPermissionKeys(endpoints []SyncEndpointInput) []string {
	seen := make(map[string]struct{}, len(endpoints))
	keys := []string{}
	for _, ep := range endpoints {
		if ep.IsPublic || ep.PermissionKey == "" {
			continue
		}
		if _, ok := seen[ep.PermissionKey]; ok {
			continue
		}
		seen[ep.PermissionKey] = struct{}{}
		keys = append(keys, ep.PermissionKey)
	}
	return keys
}
