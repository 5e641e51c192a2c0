package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stoka/internal/core/apperror"
	appctx "stoka/internal/core/context"
	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
	}
}

// Service provides user, role and session logic.
type Service struct {
	userRepo    UserRepository
	roleRepo    RoleRepository
	sessionRepo SessionRepository
	txManager   tx.Manager
	jwtService  *JWTService
	config      ServiceConfig
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	roleRepo RoleRepository,
	sessionRepo SessionRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		sessionRepo: sessionRepo,
		txManager:   txManager,
		jwtService:  jwtService,
		config:      config,
	}
}

// Register creates a new user in the given tenant.
func (s *Service) Register(ctx context.Context, tenantID id.ID, req RegisterRequest) (*User, error) {
	if id.IsNil(tenantID) {
		return nil, apperror.NewValidation("tenant id is required")
	}
	if req.Email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	exists, err := s.userRepo.Exists(ctx, tenantID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", req.Email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(tenantID, req.Email, string(passwordHash))
	user.FirstName = req.FirstName
	user.LastName = req.LastName

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		// Default role, when the tenant has one.
		defaultRole, err := s.roleRepo.GetByCode(ctx, tenantID, "staff")
		if err == nil && defaultRole != nil {
			if err := s.userRepo.AssignRole(ctx, user.ID, defaultRole.ID, id.Nil()); err != nil {
				logger.Warn(ctx, "failed to assign default role", "error", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login authenticates the user and issues a session token. IP and user
// agent are explicit parameters recorded on the session row.
func (s *Service) Login(ctx context.Context, tenantID id.ID, creds Credentials, ipAddress, userAgent string) (*TokenPair, *User, error) {
	user, err := s.userRepo.GetByEmail(ctx, tenantID, creds.Email)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		_ = s.userRepo.Update(ctx, user)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	roles, err := s.userRepo.LoadRoles(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load roles: %w", err)
	}
	user.Roles = roles

	tokens, err := s.issueSession(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}

	user.RecordSuccessfulLogin()
	_ = s.userRepo.Update(ctx, user)

	logger.Info(ctx, "user logged in", "user_id", user.ID, "email", user.Email)
	return tokens, user, nil
}

// Verify validates a token and checks the backing session is alive.
func (s *Service) Verify(ctx context.Context, tokenString string) (*appctx.Actor, error) {
	actor, err := s.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid token")
	}

	session, err := s.sessionRepo.GetByTokenID(ctx, actor.SessionID)
	if err != nil {
		return nil, apperror.NewUnauthorized("unknown session")
	}
	if !session.IsValid(time.Now()) {
		return nil, apperror.NewUnauthorized("session expired or revoked")
	}

	return actor, nil
}

// RevokeSession revokes one session.
func (s *Service) RevokeSession(ctx context.Context, sessionID id.ID, reason string) error {
	return s.sessionRepo.Revoke(ctx, sessionID, reason)
}

// Logout revokes all of the user's sessions.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	return s.sessionRepo.RevokeAllForUser(ctx, userID, "logout")
}

// PurgeExpiredSessions deletes sessions past their expiry. Called by
// the maintenance worker.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int, error) {
	return s.sessionRepo.PurgeExpired(ctx)
}

// AssignRole assigns a role to a user. The grantor is an explicit
// parameter for the audit trail.
func (s *Service) AssignRole(ctx context.Context, userID id.ID, roleCode string, grantedBy id.ID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperror.NewNotFound("user", userID.String())
	}

	role, err := s.roleRepo.GetByCode(ctx, user.TenantID, roleCode)
	if err != nil {
		return apperror.NewNotFound("role", roleCode)
	}

	if err := s.userRepo.AssignRole(ctx, userID, role.ID, grantedBy); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	logger.Info(ctx, "role assigned",
		"user_id", userID, "role", roleCode, "granted_by", grantedBy)
	return nil
}

// RevokeRole revokes a role from a user.
func (s *Service) RevokeRole(ctx context.Context, userID id.ID, roleCode string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperror.NewNotFound("user", userID.String())
	}

	role, err := s.roleRepo.GetByCode(ctx, user.TenantID, roleCode)
	if err != nil {
		return apperror.NewNotFound("role", roleCode)
	}

	return s.userRepo.RevokeRole(ctx, userID, role.ID)
}

// GetUserByID retrieves a user with roles loaded.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.NewNotFound("user", userID.String())
	}

	roles, err := s.userRepo.LoadRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	user.Roles = roles

	return user, nil
}

// ListUsers lists a tenant's users with filtering.
func (s *Service) ListUsers(ctx context.Context, tenantID id.ID, filter UserFilter) ([]User, int, error) {
	return s.userRepo.List(ctx, tenantID, filter)
}

// ListRoles lists a tenant's roles.
func (s *Service) ListRoles(ctx context.Context, tenantID id.ID) ([]Role, error) {
	return s.roleRepo.List(ctx, tenantID)
}

// CreateRole creates a new role with permission codes.
func (s *Service) CreateRole(ctx context.Context, tenantID id.ID, code, name, description string, permissionCodes []string) (*Role, error) {
	role := NewRole(tenantID, code, name)
	role.Description = description
	role.PermissionCodes = permissionCodes

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return role, nil
}

// issueSession stores a session row and signs the matching JWT.
func (s *Service) issueSession(ctx context.Context, user *User, ipAddress, userAgent string) (*TokenPair, error) {
	session := &UserSession{
		ID:        id.New(),
		TenantID:  user.TenantID,
		UserID:    user.ID,
		TokenID:   id.New().String(),
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(s.jwtService.config.AccessTokenTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user, session.TokenID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	session.ExpiresAt = expiresAt

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &TokenPair{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
		SessionID:   session.ID,
	}, nil
}
