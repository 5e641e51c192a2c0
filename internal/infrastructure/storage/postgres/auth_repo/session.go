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

const sessionColumns = `id, tenant_id, user_id, token_id, issued_at, expires_at,
	ip_address, user_agent, revoked, revoked_at, revoked_reason`

// SessionRepo implements auth.SessionRepository. One row per issued JWT,
// looked up by the jti claim on every verify.
type SessionRepo struct {
	txManager *postgres.TxManager
}

// NewSessionRepo creates a new session repository.
func NewSessionRepo(txManager *postgres.TxManager) *SessionRepo {
	return &SessionRepo{txManager: txManager}
}

func (r *SessionRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Save stores a new session.
func (r *SessionRepo) Save(ctx context.Context, session *auth.UserSession) error {
	query := `
		INSERT INTO user_sessions (
			id, tenant_id, user_id, token_id, issued_at, expires_at,
			ip_address, user_agent, revoked
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		session.ID, session.TenantID, session.UserID, session.TokenID,
		session.IssuedAt, session.ExpiresAt,
		session.IPAddress, session.UserAgent, session.Revoked,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByTokenID retrieves a session by the JWT jti claim.
func (r *SessionRepo) GetByTokenID(ctx context.Context, tokenID string) (*auth.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE token_id = $1`

	var session auth.UserSession
	if err := pgxscan.Get(ctx, r.querier(ctx), &session, query, tokenID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("session", tokenID)
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	return &session, nil
}

// Revoke marks one session revoked.
func (r *SessionRepo) Revoke(ctx context.Context, sessionID id.ID, reason string) error {
	query := `
		UPDATE user_sessions SET
			revoked = TRUE,
			revoked_at = NOW(),
			revoked_reason = $2
		WHERE id = $1 AND revoked = FALSE
	`

	result, err := r.querier(ctx).Exec(ctx, query, sessionID, reason)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("session", sessionID.String())
	}

	return nil
}

// RevokeAllForUser revokes every live session of a user.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID id.ID, reason string) error {
	query := `
		UPDATE user_sessions SET
			revoked = TRUE,
			revoked_at = NOW(),
			revoked_reason = $2
		WHERE user_id = $1 AND revoked = FALSE
	`

	if _, err := r.querier(ctx).Exec(ctx, query, userID, reason); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}

	return nil
}

// PurgeExpired deletes sessions past their expiry.
func (r *SessionRepo) PurgeExpired(ctx context.Context) (int, error) {
	query := `DELETE FROM user_sessions WHERE expires_at < NOW()`

	result, err := r.querier(ctx).Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}

	return int(result.RowsAffected()), nil
}

var _ auth.SessionRepository = (*SessionRepo)(nil)
