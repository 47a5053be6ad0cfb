package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/authhub/authhub/internal/domain"
	"github.com/authhub/authhub/pkg/database"
	apperrors "github.com/authhub/authhub/pkg/errors"
)

const endpointColumns = `id, service_name, path, method, description, is_public,
		required_permissions, required_roles, version, deleted, created_at, updated_at`

// EndpointPermissionRepository implements repository.EndpointPermissionRepository
// using PostgreSQL. Rules carry a monotonically increasing position so reads
// come back in registration order.
type EndpointPermissionRepository struct {
	db database.DBTX
}

// NewEndpointPermissionRepository creates a new PostgreSQL-backed endpoint rule store.
func NewEndpointPermissionRepository(db database.DBTX) *EndpointPermissionRepository {
	return &EndpointPermissionRepository{db: db}
}

// Upsert registers an endpoint rule keyed by (service, path, method).
// Re-registering an existing rule updates its description and flags in place
// and bumps the version; identity, id, and position are preserved so match
// precedence stays stable. The deleted flag is also preserved: a
// soft-deleted rule keeps its fields fresh on re-sync but stays out of
// matching until explicitly restored. Returns whether a new row was created.
func (r *EndpointPermissionRepository) Upsert(ctx context.Context, ep *domain.EndpointPermission) (bool, error) {
	query := `
		INSERT INTO endpoint_permissions
			(id, service_name, path, method, description, is_public, required_permissions, required_roles, version, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (service_name, path, method) DO UPDATE SET
			description = EXCLUDED.description,
			is_public = EXCLUDED.is_public,
			required_permissions = EXCLUDED.required_permissions,
			required_roles = EXCLUDED.required_roles,
			version = endpoint_permissions.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)`

	var created bool
	err := r.db.QueryRow(ctx, query,
		ep.ID,
		ep.ServiceName,
		ep.Path,
		ep.Method,
		ep.Description,
		ep.IsPublic,
		ep.RequiredPermissions,
		ep.RequiredRoles,
		ep.Version,
		ep.Deleted,
		ep.CreatedAt,
		ep.UpdatedAt,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert endpoint permission: %w", err)
	}

	return created, nil
}

// GetByID retrieves a rule by its identifier, including deleted ones.
func (r *EndpointPermissionRepository) GetByID(ctx context.Context, id string) (*domain.EndpointPermission, error) {
	query := `
		SELECT ` + endpointColumns + `
		FROM endpoint_permissions
		WHERE id = $1`

	return r.scanOne(ctx, query, id)
}

// FindByServiceAndMethod returns active rules for a service and HTTP method
// in registration order.
func (r *EndpointPermissionRepository) FindByServiceAndMethod(ctx context.Context, serviceName, method string) ([]domain.EndpointPermission, error) {
	query := `
		SELECT ` + endpointColumns + `
		FROM endpoint_permissions
		WHERE service_name = $1 AND method = $2 AND deleted = false
		ORDER BY position ASC`

	ctx, end := database.TraceQuery(ctx, "FindByServiceAndMethod", query)
	eps, err := r.scanMany(ctx, query, serviceName, method)
	end(err)
	return eps, err
}

// FindAllActive returns every active rule in registration order.
func (r *EndpointPermissionRepository) FindAllActive(ctx context.Context) ([]domain.EndpointPermission, error) {
	query := `
		SELECT ` + endpointColumns + `
		FROM endpoint_permissions
		WHERE deleted = false
		ORDER BY position ASC`

	ctx, end := database.TraceQuery(ctx, "FindAllActive", query)
	eps, err := r.scanMany(ctx, query)
	end(err)
	return eps, err
}

// SoftDelete marks a rule deleted and bumps its version.
func (r *EndpointPermissionRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE endpoint_permissions
		SET deleted = true, version = version + 1, updated_at = $1
		WHERE id = $2 AND deleted = false`

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete endpoint permission: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("endpoint permission", id)
	}
	return nil
}

// Restore clears the deleted flag and bumps the version.
func (r *EndpointPermissionRepository) Restore(ctx context.Context, id string) error {
	query := `
		UPDATE endpoint_permissions
		SET deleted = false, version = version + 1, updated_at = $1
		WHERE id = $2 AND deleted = true`

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("restore endpoint permission: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("endpoint permission", id)
	}
	return nil
}

func (r *EndpointPermissionRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.EndpointPermission, error) {
	var ep domain.EndpointPermission
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&ep.ID,
		&ep.ServiceName,
		&ep.Path,
		&ep.Method,
		&ep.Description,
		&ep.IsPublic,
		&ep.RequiredPermissions,
		&ep.RequiredRoles,
		&ep.Version,
		&ep.Deleted,
		&ep.CreatedAt,
		&ep.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan endpoint permission: %w", err)
	}
	return &ep, nil
}

func (r *EndpointPermissionRepository) scanMany(ctx context.Context, query string, args ...any) ([]domain.EndpointPermission, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query endpoint permissions: %w", err)
	}
	defer rows.Close()

	eps := []domain.EndpointPermission{}
	for rows.Next() {
		var ep domain.EndpointPermission
		if err := rows.Scan(
			&ep.ID,
			&ep.ServiceName,
			&ep.Path,
			&ep.Method,
			&ep.Description,
			&ep.IsPublic,
			&ep.RequiredPermissions,
			&ep.RequiredRoles,
			&ep.Version,
			&ep.Deleted,
			&ep.CreatedAt,
			&ep.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan endpoint permission row: %w", err)
		}
		eps = append(eps, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoint permission rows: %w", err)
	}

	return eps, nil
}

// --- Permission Catalog ---

// PermissionRepository implements repository.PermissionCatalog using PostgreSQL.
type PermissionRepository struct {
	db database.DBTX
}

// NewPermissionRepository creates a new PostgreSQL-backed permission catalog.
func NewPermissionRepository(db database.DBTX) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// EnsureKeys inserts any of the given permission keys that do not exist yet
// and reports how many were created.
func (r *PermissionRepository) EnsureKeys(ctx context.Context, keys []string) (int, error) {
	created := 0
	for _, key := range keys {
		ct, err := r.db.Exec(ctx,
			`INSERT INTO permissions (key, created_at) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
			key, time.Now().UTC(),
		)
		if err != nil {
			return created, fmt.Errorf("ensure permission key %q: %w", key, err)
		}
		created += int(ct.RowsAffected())
	}
	return created, nil
}
