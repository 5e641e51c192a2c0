// Package auth provides users, roles and JWT-backed sessions.
package auth

import (
	"context"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
)

// User represents a tenant user.
type User struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	FirstName    string `db:"first_name" json:"firstName,omitempty"`
	LastName     string `db:"last_name" json:"lastName,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
	IsAdmin  bool `db:"is_admin" json:"isAdmin"`

	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
	Version   int        `db:"version" json:"version"`

	// Loaded relations
	Roles []Role `db:"-" json:"roles,omitempty"`
}

// NewUser creates a new active user for the given tenant.
func NewUser(tenantID id.ID, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if id.IsNil(u.TenantID) {
		return apperror.NewValidation("tenant id is required")
	}
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	return nil
}

// IsLocked returns true if the account is locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if the user can log in.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failed login counter.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now()
	u.LastLoginAt = &now
}

// HasRole checks if the user carries a specific role.
func (u *User) HasRole(roleCode string) bool {
	for _, r := range u.Roles {
		if r.Code == roleCode {
			return true
		}
	}
	return false
}

// HasPermission checks the flattened role permissions. Admins pass
// every check.
func (u *User) HasPermission(permissionCode string) bool {
	if u.IsAdmin {
		return true
	}
	for _, r := range u.Roles {
		for _, p := range r.PermissionCodes {
			if p == permissionCode {
				return true
			}
		}
	}
	return false
}

// RoleCodes returns the codes of the loaded roles.
func (u *User) RoleCodes() []string {
	codes := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		codes[i] = r.Code
	}
	return codes
}

// FullName returns the user's full name, falling back to email.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Role represents a named set of permission codes within a tenant.
type Role struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	IsSystem    bool   `db:"is_system" json:"isSystem"`

	PermissionCodes []string `db:"permission_codes" json:"permissionCodes"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewRole creates a new role for the given tenant.
func NewRole(tenantID id.ID, code, name string) *Role {
	now := time.Now().UTC()
	return &Role{
		ID:        id.New(),
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UserSession is one issued JWT, tracked so tokens can be revoked
// before they expire. IP and user agent arrive as explicit parameters
// from the caller.
type UserSession struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`
	UserID   id.ID `db:"user_id" json:"userId"`

	// TokenID is the JWT jti claim
	TokenID string `db:"token_id" json:"tokenId"`

	IssuedAt  time.Time `db:"issued_at" json:"issuedAt"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`

	IPAddress string `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent string `db:"user_agent" json:"userAgent,omitempty"`

	Revoked       bool       `db:"revoked" json:"revoked"`
	RevokedAt     *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	RevokedReason string     `db:"revoked_reason" json:"revokedReason,omitempty"`
}

// IsValid checks that the session is neither revoked nor expired.
func (s *UserSession) IsValid(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// Revoke marks the session revoked.
func (s *UserSession) Revoke(reason string, now time.Time) {
	stamp := now.UTC()
	s.Revoked = true
	s.RevokedAt = &stamp
	s.RevokedReason = reason
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
	SessionID   id.ID     `json:"sessionId"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest for user registration.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}
