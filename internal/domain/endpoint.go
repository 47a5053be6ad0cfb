package domain

import (
	"strings"
	"time"
)

// WildcardSegment matches one or more trailing path segments. It is only
// valid as the last segment of a pattern.
const WildcardSegment = "**"

// EndpointPermission maps one (service, URL pattern, HTTP method) to the
// permissions and roles required to call it. Records are registered by the
// owning service, soft-deleted rather than removed, and versioned on every
// mutation.
type EndpointPermission struct {
	ID                  string    `json:"id"`
	ServiceName         string    `json:"service_name"`
	Path                string    `json:"path"`
	Method              string    `json:"method"`
	Description         string    `json:"description,omitempty"`
	IsPublic            bool      `json:"is_public"`
	RequiredPermissions []string  `json:"required_permissions,omitempty"`
	RequiredRoles       []string  `json:"required_roles,omitempty"`
	Version             int64     `json:"version"`
	Deleted             bool      `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// IsActive reports whether the record participates in matching.
func (e *EndpointPermission) IsActive() bool { return !e.Deleted }

// Matches reports whether a concrete request (path, method) is covered by
// this record. The method must match exactly; a mismatch short-circuits
// before any path inspection.
func (e *EndpointPermission) Matches(path, method string) bool {
	if e.Method != method {
		return false
	}
	return e.MatchesPath(path)
}

// MatchesPath matches the request path against the stored pattern,
// segment by segment:
//
//   - a "{name}" segment matches exactly one non-empty path segment
//   - a trailing "**" segment matches one or more remaining segments
//   - any other segment must be equal, case-sensitively
//
// Without a wildcard the segment counts must be equal; extra trailing
// path segments never match.
func (e *EndpointPermission) MatchesPath(path string) bool {
	if path == "" {
		return false
	}

	pattern := splitSegments(e.Path)
	request := splitSegments(path)

	for i, seg := range pattern {
		if seg == WildcardSegment {
			// Wildcard is only honored in last position and needs at
			// least one segment left to consume.
			return i == len(pattern)-1 && len(request) > i
		}
		if i >= len(request) {
			return false
		}
		if isPathVariable(seg) {
			if request[i] == "" {
				return false
			}
			continue
		}
		if seg != request[i] {
			return false
		}
	}

	return len(pattern) == len(request)
}

// CanAccess reports whether a caller holding the given permissions and
// roles may use the endpoint. Public endpoints admit everyone; otherwise
// any overlap with the required permissions OR the required roles is
// sufficient.
func (e *EndpointPermission) CanAccess(permissions, roles []string) bool {
	if e.IsPublic {
		return true
	}
	return overlaps(e.RequiredPermissions, permissions) || overlaps(e.RequiredRoles, roles)
}

func splitSegments(p string) []string {
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

func isPathVariable(seg string) bool {
	return len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func overlaps(required, held []string) bool {
	if len(required) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(held))
	for _, h := range held {
		set[h] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

// PermissionSpec is the resolver's answer for a concrete request: whether
// the endpoint is public and, if not, what it requires. Absence of a spec
// is expressed by the resolver, not by this type.
type PermissionSpec struct {
	ServiceName         string   `json:"service_name"`
	Path                string   `json:"path"`
	Method              string   `json:"method"`
	IsPublic            bool     `json:"is_public"`
	RequiredPermissions []string `json:"required_permissions"`
	RequiredRoles       []string `json:"required_roles"`
}

// SpecFrom builds the resolver output for a matched record. Required sets
// are always non-nil so callers can range over them; public endpoints get
// empty sets.
func SpecFrom(e *EndpointPermission) *PermissionSpec {
	spec := &PermissionSpec{
		ServiceName:         e.ServiceName,
		Path:                e.Path,
		Method:              e.Method,
		IsPublic:            e.IsPublic,
		RequiredPermissions: []string{},
		RequiredRoles:       []string{},
	}
	if !e.IsPublic {
		spec.RequiredPermissions = append(spec.RequiredPermissions, e.RequiredPermissions...)
		spec.RequiredRoles = append(spec.RequiredRoles, e.RequiredRoles...)
	}
	return spec
}
