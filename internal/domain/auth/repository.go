package auth

import (
	"context"

	"stoka/internal/core/id"
)

// UserRepository defines user storage operations. Queries are scoped by
// tenant since users share one database.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves user by email within a tenant.
	GetByEmail(ctx context.Context, tenantID id.ID, email string) (*User, error)

	// Update updates user data.
	Update(ctx context.Context, user *User) error

	// Delete soft-deletes a user.
	Delete(ctx context.Context, userID id.ID) error

	// List retrieves users with filtering.
	List(ctx context.Context, tenantID id.ID, filter UserFilter) ([]User, int, error)

	// LoadRoles loads the user's roles with permission codes.
	LoadRoles(ctx context.Context, userID id.ID) ([]Role, error)

	// AssignRole assigns a role to the user.
	AssignRole(ctx context.Context, userID, roleID id.ID, grantedBy id.ID) error

	// RevokeRole revokes a role from the user.
	RevokeRole(ctx context.Context, userID, roleID id.ID) error

	// Exists checks if the email is taken within a tenant.
	Exists(ctx context.Context, tenantID id.ID, email string) (bool, error)
}

// RoleRepository defines role storage operations.
type RoleRepository interface {
	// Create creates a new role.
	Create(ctx context.Context, role *Role) error

	// GetByID retrieves role by ID.
	GetByID(ctx context.Context, roleID id.ID) (*Role, error)

	// GetByCode retrieves role by code within a tenant.
	GetByCode(ctx context.Context, tenantID id.ID, code string) (*Role, error)

	// Update updates role data (including permission codes).
	Update(ctx context.Context, role *Role) error

	// Delete deletes a role (only non-system roles).
	Delete(ctx context.Context, roleID id.ID) error

	// List retrieves the tenant's roles.
	List(ctx context.Context, tenantID id.ID) ([]Role, error)
}

// SessionRepository defines session storage operations.
type SessionRepository interface {
	// Save stores a new session.
	Save(ctx context.Context, session *UserSession) error

	// GetByTokenID retrieves a session by the JWT jti claim.
	GetByTokenID(ctx context.Context, tokenID string) (*UserSession, error)

	// Revoke marks one session revoked.
	Revoke(ctx context.Context, sessionID id.ID, reason string) error

	// RevokeAllForUser revokes every session of a user.
	RevokeAllForUser(ctx context.Context, userID id.ID, reason string) error

	// PurgeExpired deletes sessions past their expiry. Returns the
	// number removed; called by the maintenance worker.
	PurgeExpired(ctx context.Context) (int, error)
}

// UserFilter for listing users.
type UserFilter struct {
	Search   string
	IsActive *bool
	RoleCode string
	Limit    int
	Offset   int
}
