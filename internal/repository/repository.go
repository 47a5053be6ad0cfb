package repository

import (
	"context"
	"time"

	"github.com/authhub/authhub/internal/domain"
)

// CredentialStore defines persistence for login credentials.
type CredentialStore interface {
	// Create inserts a new credential.
	Create(ctx context.Context, cred *domain.Credential) error

	// Get retrieves a credential by its type and identifier.
	Get(ctx context.Context, credType domain.CredentialType, identifier string) (*domain.Credential, error)
}

// UserDirectory defines persistence for user accounts.
type UserDirectory interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetGrants returns the effective permission and role keys for a user,
	// aggregated across their roles and direct grants.
	GetGrants(ctx context.Context, userID string) (*domain.UserGrants, error)
}

// RefreshTokenStore persists issued refresh tokens keyed by token ID. A
// refresh token that is absent from the store is unusable regardless of its
// signature.
type RefreshTokenStore interface {
	// Save stores a refresh token record until its expiry.
	Save(ctx context.Context, record *domain.RefreshTokenRecord) error

	// Get retrieves a refresh token record by token ID.
	Get(ctx context.Context, tokenID string) (*domain.RefreshTokenRecord, error)

	// Delete removes a refresh token record, making the token unusable.
	Delete(ctx context.Context, tokenID string) error
}

// BlacklistStore tracks revoked token IDs until their natural expiry.
type BlacklistStore interface {
	// Add marks a token ID as revoked for the given duration.
	Add(ctx context.Context, tokenID string, ttl time.Duration) error

	// Contains reports whether a token ID has been revoked.
	Contains(ctx context.Context, tokenID string) (bool, error)
}

// EndpointPermissionRepository defines persistence for endpoint permission
// rules. Reads return rules in registration order, which is the order the
// resolver matches them in.
type EndpointPermissionRepository interface {
	// Upsert registers an endpoint rule keyed by (service, path, method).
	// It reports whether a new row was created. Re-registering an existing
	// rule updates its description and flags in place, preserving identity,
	// registration order, and the deleted flag.
	Upsert(ctx context.Context, ep *domain.EndpointPermission) (created bool, err error)

	// GetByID retrieves a rule by its identifier, including deleted ones.
	GetByID(ctx context.Context, id string) (*domain.EndpointPermission, error)

	// FindByServiceAndMethod returns active rules for a service and HTTP
	// method in registration order.
	FindByServiceAndMethod(ctx context.Context, serviceName, method string) ([]domain.EndpointPermission, error)

	// FindAllActive returns every active rule in registration order.
	FindAllActive(ctx context.Context) ([]domain.EndpointPermission, error)

	// SoftDelete marks a rule deleted and bumps its version.
	SoftDelete(ctx context.Context, id string) error

	// Restore clears the deleted flag and bumps the version.
	Restore(ctx context.Context, id string) error
}

// PermissionCatalog persists the set of known permission keys.
type PermissionCatalog interface {
	// EnsureKeys inserts any of the given permission keys that do not exist
	// yet and reports how many were created.
	EnsureKeys(ctx context.Context, keys []string) (created int, err error)
}

// TenantRepository defines persistence for tenants and their organizations.
type TenantRepository interface {
	// Create inserts a tenant with its root organization.
	Create(ctx context.Context, tenant *domain.Tenant, org *domain.Organization) error

	// GetByID retrieves a tenant by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
}

// IdempotencyStore remembers request fingerprints so retried onboarding
// calls replay the stored result instead of re-executing.
type IdempotencyStore interface {
	// Remember stores the payload fingerprint and response for a key. It
	// reports false if the key already exists.
	Remember(ctx context.Context, key, fingerprint string, response []byte, ttl time.Duration) (stored bool, err error)

	// Lookup returns the stored fingerprint and response for a key, or
	// found=false if the key is unknown.
	Lookup(ctx context.Context, key string) (fingerprint string, response []byte, found bool, err error)
}
