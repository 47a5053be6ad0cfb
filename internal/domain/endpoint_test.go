package domain

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func endpoint(path, method string) *EndpointPermission {
	return &EndpointPermission{
		ServiceName: "product-service",
		Path:        path,
		Method:      method,
	}
}

func TestMatches_LiteralPattern(t *testing.T) {
	e := endpoint("/api/v1/users", http.MethodGet)

	assert.True(t, e.Matches("/api/v1/users", http.MethodGet))
	assert.False(t, e.Matches("/api/v1/users", http.MethodPost))
	assert.False(t, e.Matches("/api/v1/user", http.MethodGet))
	assert.False(t, e.Matches("/api/v1/users/extra", http.MethodGet))
	assert.False(t, e.Matches("/api/v1", http.MethodGet))
}

func TestMatches_CaseSensitiveLiterals(t *testing.T) {
	e := endpoint("/api/v1/Users", http.MethodGet)

	assert.True(t, e.Matches("/api/v1/Users", http.MethodGet))
	assert.False(t, e.Matches("/api/v1/users", http.MethodGet))
}

func TestMatchesPath_PathVariable(t *testing.T) {
	e := endpoint("/api/v1/users/{id}", http.MethodGet)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"numeric id", "/api/v1/users/123", true},
		{"uuid-shaped id", "/api/v1/users/0193a1b2-4c5d-7e8f-9012-abcdef012345", true},
		{"hyphenated id", "/api/v1/users/user-42", true},
		{"variable does not span segments", "/api/v1/users/123/extra", false},
		{"variable does not match nothing", "/api/v1/users", false},
		{"empty segment", "/api/v1/users/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.MatchesPath(tt.path))
		})
	}
}

func TestMatchesPath_MultipleVariables(t *testing.T) {
	e := endpoint("/api/v1/tenants/{tenantId}/users/{userId}", http.MethodGet)

	assert.True(t, e.MatchesPath("/api/v1/tenants/t-1/users/u-2"))
	assert.False(t, e.MatchesPath("/api/v1/tenants/t-1/users"))
	assert.False(t, e.MatchesPath("/api/v1/tenants/t-1/groups/u-2"))
}

func TestMatchesPath_TrailingWildcard(t *testing.T) {
	e := endpoint("/api/v1/admin/**", http.MethodGet)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"one segment", "/api/v1/admin/roles", true},
		{"multiple segments", "/api/v1/admin/roles/permissions", true},
		{"deep nesting", "/api/v1/admin/a/b/c/d", true},
		{"wildcard requires at least one segment", "/api/v1/admin", false},
		{"prefix mismatch", "/api/v2/admin/roles", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.MatchesPath(tt.path))
		})
	}
}

func TestMatchesPath_WildcardNotLastSegment(t *testing.T) {
	e := endpoint("/api/**/users", http.MethodGet)

	// A wildcard anywhere but the last position never matches.
	assert.False(t, e.MatchesPath("/api/v1/users"))
	assert.False(t, e.MatchesPath("/api/a/b/users"))
}

func TestMatches_MethodCheckedBeforePath(t *testing.T) {
	e := endpoint("/api/v1/admin/**", http.MethodGet)

	assert.False(t, e.Matches("/api/v1/admin/roles", http.MethodDelete))
}

func TestCanAccess(t *testing.T) {
	e := &EndpointPermission{
		Path:                "/api/v1/orders",
		Method:              http.MethodPost,
		RequiredPermissions: []string{"order:write"},
		RequiredRoles:       []string{"ADMIN"},
	}

	assert.True(t, e.CanAccess([]string{"order:write"}, nil), "permission overlap grants access")
	assert.True(t, e.CanAccess(nil, []string{"ADMIN"}), "role overlap grants access")
	assert.False(t, e.CanAccess([]string{"order:read"}, []string{"VIEWER"}))
	assert.False(t, e.CanAccess(nil, nil))

	public := &EndpointPermission{Path: "/health", Method: http.MethodGet, IsPublic: true}
	assert.True(t, public.CanAccess(nil, nil))
}

func TestSpecFrom(t *testing.T) {
	spec := SpecFrom(&EndpointPermission{
		ServiceName:         "order-service",
		Path:                "/api/v1/orders/{id}",
		Method:              http.MethodGet,
		RequiredPermissions: []string{"order:read"},
		RequiredRoles:       []string{"ADMIN", "SUPPORT"},
	})

	assert.False(t, spec.IsPublic)
	assert.Equal(t, []string{"order:read"}, spec.RequiredPermissions)
	assert.Equal(t, []string{"ADMIN", "SUPPORT"}, spec.RequiredRoles)

	publicSpec := SpecFrom(&EndpointPermission{
		ServiceName:         "order-service",
		Path:                "/api/v1/orders",
		Method:              http.MethodGet,
		IsPublic:            true,
		RequiredPermissions: []string{"leaked"},
	})

	assert.True(t, publicSpec.IsPublic)
	assert.Empty(t, publicSpec.RequiredPermissions, "public specs never expose requirements")
	assert.Empty(t, publicSpec.RequiredRoles)
	assert.NotNil(t, publicSpec.RequiredPermissions)
}
