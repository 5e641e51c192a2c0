package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/domain/auth"
	"stoka/internal/infrastructure/storage/postgres"
)

const roleColumns = `id, tenant_id, code, name, description, is_system,
	permission_codes, created_at, updated_at`

// RoleRepo implements auth.RoleRepository. Permission codes are stored as
// a text array on the role row.
type RoleRepo struct {
	txManager *postgres.TxManager
}

// NewRoleRepo creates a new role repository.
func NewRoleRepo(txManager *postgres.TxManager) *RoleRepo {
	return &RoleRepo{txManager: txManager}
}

func (r *RoleRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create creates a new role.
func (r *RoleRepo) Create(ctx context.Context, role *auth.Role) error {
	query := `
		INSERT INTO roles (
			id, tenant_id, code, name, description, is_system,
			permission_codes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		role.ID, role.TenantID, role.Code, role.Name, role.Description,
		role.IsSystem, role.PermissionCodes, role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}

	return nil
}

// GetByID retrieves role by ID.
func (r *RoleRepo) GetByID(ctx context.Context, roleID id.ID) (*auth.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	var role auth.Role
	if err := pgxscan.Get(ctx, r.querier(ctx), &role, query, roleID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("role", roleID.String())
		}
		return nil, fmt.Errorf("query role: %w", err)
	}

	return &role, nil
}

// GetByCode retrieves role by code within a tenant.
func (r *RoleRepo) GetByCode(ctx context.Context, tenantID id.ID, code string) (*auth.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND code = $2`

	var role auth.Role
	if err := pgxscan.Get(ctx, r.querier(ctx), &role, query, tenantID, code); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("role", code)
		}
		return nil, fmt.Errorf("query role: %w", err)
	}

	return &role, nil
}

// Update updates role data including permission codes.
func (r *RoleRepo) Update(ctx context.Context, role *auth.Role) error {
	query := `
		UPDATE roles SET
			name = $2,
			description = $3,
			permission_codes = $4,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.querier(ctx).Exec(ctx, query,
		role.ID, role.Name, role.Description, role.PermissionCodes,
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("role", role.ID.String())
	}

	return nil
}

// Delete deletes a role. System roles are protected.
func (r *RoleRepo) Delete(ctx context.Context, roleID id.ID) error {
	query := `DELETE FROM roles WHERE id = $1 AND is_system = FALSE`

	result, err := r.querier(ctx).Exec(ctx, query, roleID)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("role", roleID.String())
	}

	return nil
}

// List retrieves the tenant's roles.
func (r *RoleRepo) List(ctx context.Context, tenantID id.ID) ([]auth.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 ORDER BY code`

	var roles []auth.Role
	if err := pgxscan.Select(ctx, r.querier(ctx), &roles, query, tenantID); err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}

	return roles, nil
}

var _ auth.RoleRepository = (*RoleRepo)(nil)
