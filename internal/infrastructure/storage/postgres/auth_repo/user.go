// Package auth_repo provides PostgreSQL implementations for auth repositories.
// The database is shared across tenants; user queries are scoped by tenant_id.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/domain/auth"
	"stoka/internal/infrastructure/storage/postgres"
)

const (
	usersTable     = "users"
	userRolesTable = "user_roles"
)

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name,
	is_active, is_admin, last_login_at, failed_login_attempts, locked_until,
	created_at, updated_at, deleted_at, version`

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *UserRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	query := `
		INSERT INTO users (
			id, tenant_id, email, password_hash, first_name, last_name,
			is_active, is_admin, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		user.ID, user.TenantID, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.IsActive, user.IsAdmin,
		user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`

	var user auth.User
	if err := pgxscan.Get(ctx, r.querier(ctx), &user, query, userID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves user by email within a tenant.
func (r *UserRepo) GetByEmail(ctx context.Context, tenantID id.ID, email string) (*auth.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND lower(email) = lower($2) AND deleted_at IS NULL
	`

	var user auth.User
	if err := pgxscan.Get(ctx, r.querier(ctx), &user, query, tenantID, email); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", email)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// Update updates user data with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	query := `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			first_name = $4,
			last_name = $5,
			is_active = $6,
			is_admin = $7,
			last_login_at = $8,
			failed_login_attempts = $9,
			locked_until = $10,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1 AND deleted_at IS NULL AND version = $11
	`

	result, err := r.querier(ctx).Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsActive, user.IsAdmin, user.LastLoginAt,
		user.FailedLoginAttempts, user.LockedUntil, user.Version,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}

	user.Version++
	return nil
}

// Delete soft-deletes a user.
func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	query := `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.querier(ctx).Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// List retrieves a tenant's users with filtering.
func (r *UserRepo) List(ctx context.Context, tenantID id.ID, filter auth.UserFilter) ([]auth.User, int, error) {
	q := r.builder.
		Select(
			"u.id", "u.tenant_id", "u.email", "u.password_hash",
			"u.first_name", "u.last_name", "u.is_active", "u.is_admin",
			"u.last_login_at", "u.failed_login_attempts", "u.locked_until",
			"u.created_at", "u.updated_at", "u.deleted_at", "u.version",
		).
		From(usersTable + " u").
		Where(squirrel.Eq{"u.tenant_id": tenantID}).
		Where("u.deleted_at IS NULL")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"u.email": pattern},
			squirrel.ILike{"u.first_name": pattern},
			squirrel.ILike{"u.last_name": pattern},
		})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"u.is_active": *filter.IsActive})
	}
	if filter.RoleCode != "" {
		q = q.Where(squirrel.Expr(
			`u.id IN (
				SELECT ur.user_id FROM user_roles ur
				JOIN roles r ON r.id = ur.role_id
				WHERE r.code = ?
			)`, filter.RoleCode))
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	var total int
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	q = q.OrderBy("u.email")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var users []auth.User
	if err := pgxscan.Select(ctx, querier, &users, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select users: %w", err)
	}

	return users, total, nil
}

// LoadRoles loads the user's roles with permission codes.
func (r *UserRepo) LoadRoles(ctx context.Context, userID id.ID) ([]auth.Role, error) {
	query := `
		SELECT r.id, r.tenant_id, r.code, r.name, r.description, r.is_system,
			   r.permission_codes, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.code
	`

	var roles []auth.Role
	if err := pgxscan.Select(ctx, r.querier(ctx), &roles, query, userID); err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	return roles, nil
}

// AssignRole assigns a role to the user. Idempotent.
func (r *UserRepo) AssignRole(ctx context.Context, userID, roleID id.ID, grantedBy id.ID) error {
	query := `
		INSERT INTO user_roles (user_id, role_id, granted_by, granted_at)
		VALUES ($1, $2, NULLIF($3, '00000000-0000-0000-0000-000000000000'::uuid), NOW())
		ON CONFLICT (user_id, role_id) DO NOTHING
	`

	if _, err := r.querier(ctx).Exec(ctx, query, userID, roleID, grantedBy); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	return nil
}

// RevokeRole revokes a role from the user.
func (r *UserRepo) RevokeRole(ctx context.Context, userID, roleID id.ID) error {
	query := `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`

	if _, err := r.querier(ctx).Exec(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}

	return nil
}

// Exists checks if the email is taken within a tenant.
func (r *UserRepo) Exists(ctx context.Context, tenantID id.ID, email string) (bool, error) {
	query := `
		SELECT 1 FROM users
		WHERE tenant_id = $1 AND lower(email) = lower($2) AND deleted_at IS NULL
		LIMIT 1
	`

	var exists int
	err := r.querier(ctx).QueryRow(ctx, query, tenantID, email).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return true, nil
}

var _ auth.UserRepository = (*UserRepo)(nil)
