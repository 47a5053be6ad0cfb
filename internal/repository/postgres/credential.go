package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/authhub/authhub/internal/domain"
	"github.com/authhub/authhub/pkg/database"
	apperrors "github.com/authhub/authhub/pkg/errors"
)

// CredentialRepository implements repository.CredentialStore using PostgreSQL.
type CredentialRepository struct {
	db database.DBTX
}

// NewCredentialRepository creates a new PostgreSQL-backed credential store.
func NewCredentialRepository(db database.DBTX) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a new credential into the database.
func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	query := `
		INSERT INTO credentials (subject_id, type, identifier, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		c.SubjectID,
		c.Type,
		c.Identifier,
		c.PasswordHash,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("credential", "identifier", c.Identifier)
		}
		return fmt.Errorf("insert credential: %w", err)
	}

	return nil
}

// Get retrieves a credential by its type and identifier.
func (r *CredentialRepository) Get(ctx context.Context, credType domain.CredentialType, identifier string) (*domain.Credential, error) {
	query := `
		SELECT subject_id, type, identifier, password_hash, created_at, updated_at
		FROM credentials
		WHERE type = $1 AND identifier = $2`

	var c domain.Credential
	err := r.db.QueryRow(ctx, query, credType, identifier).Scan(
		&c.SubjectID,
		&c.Type,
		&c.Identifier,
		&c.PasswordHash,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}

	return &c, nil
}

// --- User Directory ---

// UserRepository implements repository.UserDirectory using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user directory.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, tenant_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.TenantID,
		u.Status,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "id", u.ID)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, tenant_id, status, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.TenantID,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// GetGrants returns the effective permission and role keys for a user.
// Permissions are the union of role-derived permissions and direct grants.
func (r *UserRepository) GetGrants(ctx context.Context, userID string) (*domain.UserGrants, error) {
	if _, err := r.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	roleQuery := `
		SELECT role_key FROM user_roles
		WHERE user_id = $1
		ORDER BY role_key`

	roles, err := r.collectKeys(ctx, roleQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}

	permQuery := `
		SELECT DISTINCT permission_key FROM (
			SELECT rp.permission_key
			FROM user_roles ur
			JOIN role_permissions rp ON rp.role_key = ur.role_key
			WHERE ur.user_id = $1
			UNION
			SELECT up.permission_key
			FROM user_permissions up
			WHERE up.user_id = $1
		) AS keys
		ORDER BY permission_key`

	permCtx, end := database.TraceQuery(ctx, "GetGrants", permQuery)
	perms, err := r.collectKeys(permCtx, permQuery, userID)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("list user permissions: %w", err)
	}

	return &domain.UserGrants{
		UserID:      userID,
		Permissions: perms,
		Roles:       roles,
	}, nil
}

func (r *UserRepository) collectKeys(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
