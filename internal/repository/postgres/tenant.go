package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/authhub/authhub/internal/domain"
	"github.com/authhub/authhub/pkg/database"
	apperrors "github.com/authhub/authhub/pkg/errors"
)

// TenantRepository implements repository.TenantRepository using PostgreSQL.
type TenantRepository struct {
	db database.DBTX
}

// NewTenantRepository creates a new PostgreSQL-backed tenant repository.
func NewTenantRepository(db database.DBTX) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create inserts a tenant with its root organization in one transaction.
func (r *TenantRepository) Create(ctx context.Context, t *domain.Tenant, org *domain.Organization) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO tenants (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Name, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("tenant", "name", t.Name)
		}
		return fmt.Errorf("insert tenant: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO organizations (id, tenant_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		org.ID, org.TenantID, org.Name, org.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a tenant by its identifier.
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `
		SELECT id, name, status, created_at, updated_at
		FROM tenants
		WHERE id = $1`

	var t domain.Tenant
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}

	return &t, nil
}
