package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/authhub/authhub/internal/domain"
	apperrors "github.com/authhub/authhub/pkg/errors"
)

func newTestPermissionService(
	endpoints *mockEndpointRepository,
	permissions *mockPermissionCatalog,
	users *mockUserDirectory,
) *PermissionService {
	return NewPermissionService(endpoints, permissions, users, newTestEventProducer(), newTestLogger())
}

func endpointRule(id, path, method string, perms []string) domain.EndpointPermission {
	now := time.Now().UTC()
	return domain.EndpointPermission{
		ID:                  id,
		ServiceName:         "order-service",
		Path:                path,
		Method:              method,
		RequiredPermissions: perms,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// ---------------------------------------------------------------------------
// ResolveSpec
// ---------------------------------------------------------------------------

func TestPermissionService_ResolveSpec_FirstMatchWins(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	svc := newTestPermissionService(endpoints, new(mockPermissionCatalog), new(mockUserDirectory))

	// A literal rule registered before a catch-all wildcard takes
	// precedence for paths both would match.
	endpoints.On("FindByServiceAndMethod", mock.Anything, "order-service", "GET").
		Return([]domain.EndpointPermission{
			endpointRule("ep-1", "/api/v1/orders/{orderId}", "GET", []string{"order:read"}),
			endpointRule("ep-2", "/api/v1/orders/**", "GET", []string{"order:admin"}),
		}, nil)

	spec, err := svc.ResolveSpec(context.Background(), "order-service", "/api/v1/orders/42", "GET")
	require.NoError(t, err)
	assert.Equal(t, []string{"order:read"}, spec.RequiredPermissions)

	// A deeper path skips the single-segment rule and lands on the wildcard.
	spec, err = svc.ResolveSpec(context.Background(), "order-service", "/api/v1/orders/42/items/7", "GET")
	require.NoError(t, err)
	assert.Equal(t, []string{"order:admin"}, spec.RequiredPermissions)
}

func TestPermissionService_ResolveSpec_RegistrationOrderBeatsSpecificity(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	svc := newTestPermissionService(endpoints, new(mockPermissionCatalog), new(mockUserDirectory))

	// Wildcard registered first shadows the later, more specific rule.
	endpoints.On("FindByServiceAndMethod", mock.Anything, "order-service", "GET").
		Return([]domain.EndpointPermission{
			endpointRule("ep-1", "/api/v1/orders/**", "GET", []string{"order:admin"}),
			endpointRule("ep-2", "/api/v1/orders/{orderId}", "GET", []string{"order:read"}),
		}, nil)

	spec, err := svc.ResolveSpec(context.Background(), "order-service", "/api/v1/orders/42", "GET")
	require.NoError(t, err)
	assert.Equal(t, []string{"order:admin"}, spec.RequiredPermissions)
}

func TestPermissionService_ResolveSpec_PublicEndpoint(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	svc := newTestPermissionService(endpoints, new(mockPermissionCatalog), new(mockUserDirectory))

	public := endpointRule("ep-1", "/api/v1/health", "GET", []string{"ops:read"})
	public.IsPublic = true
	endpoints.On("FindByServiceAndMethod", mock.Anything, "order-service", "GET").
		Return([]domain.EndpointPermission{public}, nil)

	spec, err := svc.ResolveSpec(context.Background(), "order-service", "/api/v1/health", "GET")
	require.NoError(t, err)
	assert.True(t, spec.IsPublic)
	// Public endpoints expose empty requirement sets.
	assert.Empty(t, spec.RequiredPermissions)
	assert.Empty(t, spec.RequiredRoles)
	assert.NotNil(t, spec.RequiredPermissions)
}

func TestPermissionService_ResolveSpec_NoMatch(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	svc := newTestPermissionService(endpoints, new(mockPermissionCatalog), new(mockUserDirectory))

	endpoints.On("FindByServiceAndMethod", mock.Anything, "order-service", "DELETE").
		Return([]domain.EndpointPermission{}, nil)

	_, err := svc.ResolveSpec(context.Background(), "order-service", "/api/v1/orders/42", "DELETE")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ---------------------------------------------------------------------------
// SyncEndpoints
// ---------------------------------------------------------------------------

func TestPermissionService_SyncEndpoints_Counts(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	permissions := new(mockPermissionCatalog)
	svc := newTestPermissionService(endpoints, permissions, new(mockUserDirectory))

	// Keys are collected in first-seen declaration order.
	permissions.On("EnsureKeys", mock.Anything, []string{"order:write", "order:read"}).Return(1, nil)

	// First endpoint is new, second already registered.
	endpoints.On("Upsert", mock.Anything, mock.MatchedBy(func(ep *domain.EndpointPermission) bool {
		return ep.Path == "/api/v1/orders"
	})).Return(true, nil)
	endpoints.On("Upsert", mock.Anything, mock.MatchedBy(func(ep *domain.EndpointPermission) bool {
		return ep.Path == "/api/v1/orders/{orderId}"
	})).Return(false, nil)

	result, err := svc.SyncEndpoints(context.Background(), SyncInput{
		ServiceName: "order-service",
		Endpoints: []SyncEndpointInput{
			{HTTPMethod: "POST", PathPattern: "/api/v1/orders", PermissionKey: "order:write"},
			{HTTPMethod: "GET", PathPattern: "/api/v1/orders/{orderId}", PermissionKey: "order:read"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalEndpoints)
	assert.Equal(t, 1, result.CreatedPermissions)
	assert.Equal(t, 1, result.CreatedEndpoints)
	assert.Equal(t, 1, result.SkippedEndpoints)
	permissions.AssertExpectations(t)
	endpoints.AssertExpectations(t)
}

func TestPermissionService_SyncEndpoints_PublicEndpointNeedsNoKey(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	permissions := new(mockPermissionCatalog)
	svc := newTestPermissionService(endpoints, permissions, new(mockUserDirectory))

	endpoints.On("Upsert", mock.Anything, mock.MatchedBy(func(ep *domain.EndpointPermission) bool {
		return ep.IsPublic && len(ep.RequiredPermissions) == 0
	})).Return(true, nil)

	result, err := svc.SyncEndpoints(context.Background(), SyncInput{
		ServiceName: "order-service",
		Endpoints: []SyncEndpointInput{
			{HTTPMethod: "GET", PathPattern: "/api/v1/health", PermissionKey: "ignored:key", IsPublic: true},
		},
	})

	require.NoError(t, err)
	assert.Zero(t, result.CreatedPermissions)
	permissions.AssertNotCalled(t, "EnsureKeys", mock.Anything, mock.Anything)
}

func TestPermissionService_SyncEndpoints_DeduplicatesKeys(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	permissions := new(mockPermissionCatalog)
	svc := newTestPermissionService(endpoints, permissions, new(mockUserDirectory))

	permissions.On("EnsureKeys", mock.Anything, []string{"order:read"}).Return(1, nil)
	endpoints.On("Upsert", mock.Anything, mock.Anything).Return(true, nil)

	_, err := svc.SyncEndpoints(context.Background(), SyncInput{
		ServiceName: "order-service",
		Endpoints: []SyncEndpointInput{
			{HTTPMethod: "GET", PathPattern: "/api/v1/orders", PermissionKey: "order:read"},
			{HTTPMethod: "GET", PathPattern: "/api/v1/orders/{orderId}", PermissionKey: "order:read"},
		},
	})

	require.NoError(t, err)
	permissions.AssertExpectations(t)
}

func TestPermissionService_SyncEndpoints_UpsertFailure(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	permissions := new(mockPermissionCatalog)
	svc := newTestPermissionService(endpoints, permissions, new(mockUserDirectory))

	permissions.On("EnsureKeys", mock.Anything, mock.Anything).Return(0, nil)
	endpoints.On("Upsert", mock.Anything, mock.Anything).Return(false, errors.New("db down"))

	_, err := svc.SyncEndpoints(context.Background(), SyncInput{
		ServiceName: "order-service",
		Endpoints: []SyncEndpointInput{
			{HTTPMethod: "GET", PathPattern: "/api/v1/orders", PermissionKey: "order:read"},
		},
	})

	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Reads and admin operations
// ---------------------------------------------------------------------------

func TestPermissionService_PermissionMap(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	svc := newTestPermissionService(endpoints, new(mockPermissionCatalog), new(mockUserDirectory))

	rules := []domain.EndpointPermission{
		endpointRule("ep-1", "/api/v1/orders", "GET", []string{"order:read"}),
	}
	endpoints.On("FindAllActive", mock.Anything).Return(rules, nil)

	got, err := svc.PermissionMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rules, got)
}

func TestPermissionService_UserGrants(t *testing.T) {
	users := new(mockUserDirectory)
	svc := newTestPermissionService(new(mockEndpointRepository), new(mockPermissionCatalog), users)

	grants := &domain.UserGrants{
		UserID:      "user-1",
		Permissions: []string{"order:read"},
		Roles:       []string{"SUPPORT"},
	}
	users.On("GetGrants", mock.Anything, "user-1").Return(grants, nil)

	got, err := svc.UserGrants(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, grants, got)
}

func TestPermissionService_DeleteAndRestoreEndpoint(t *testing.T) {
	endpoints := new(mockEndpointRepository)
	svc := newTestPermissionService(endpoints, new(mockPermissionCatalog), new(mockUserDirectory))

	endpoints.On("SoftDelete", mock.Anything, "ep-1").Return(nil)
	endpoints.On("Restore", mock.Anything, "ep-1").Return(nil)

	require.NoError(t, svc.DeleteEndpoint(context.Background(), "ep-1"))
	require.NoError(t, svc.RestoreEndpoint(context.Background(), "ep-1"))
	endpoints.AssertExpectations(t)
}
