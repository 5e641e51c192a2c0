// Package notice_repo provides the PostgreSQL implementation for the
// notice board.
package notice_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/domain/notice"
	"stoka/internal/infrastructure/storage/postgres"
)

const noticeColumns = `id, tenant_id, severity, title, body, audience, status,
	publish_at, expires_at, created_by, created_at, updated_at`

// NoticeRepo implements notice.Repository.
type NoticeRepo struct {
	txManager *postgres.TxManager
}

// NewNoticeRepo creates a new notice repository.
func NewNoticeRepo(txManager *postgres.TxManager) *NoticeRepo {
	return &NoticeRepo{txManager: txManager}
}

func (r *NoticeRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts a notice.
func (r *NoticeRepo) Create(ctx context.Context, n *notice.NoticeEvent) error {
	query := `
		INSERT INTO notices (
			id, tenant_id, severity, title, body, audience, status,
			publish_at, expires_at, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		n.ID, n.TenantID, n.Severity, n.Title, n.Body, n.Audience, n.Status,
		n.PublishAt, n.ExpiresAt, n.CreatedBy, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notice: %w", err)
	}

	return nil
}

// GetByID retrieves a notice within a tenant.
func (r *NoticeRepo) GetByID(ctx context.Context, tenantID, noticeID id.ID) (*notice.NoticeEvent, error) {
	query := `SELECT ` + noticeColumns + ` FROM notices WHERE tenant_id = $1 AND id = $2`

	var n notice.NoticeEvent
	if err := pgxscan.Get(ctx, r.querier(ctx), &n, query, tenantID, noticeID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("notice", noticeID.String())
		}
		return nil, fmt.Errorf("query notice: %w", err)
	}

	return &n, nil
}

// Update persists status and window changes.
func (r *NoticeRepo) Update(ctx context.Context, n *notice.NoticeEvent) error {
	query := `
		UPDATE notices SET
			severity = $2,
			title = $3,
			body = $4,
			audience = $5,
			status = $6,
			publish_at = $7,
			expires_at = $8,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.querier(ctx).Exec(ctx, query,
		n.ID, n.Severity, n.Title, n.Body, n.Audience, n.Status,
		n.PublishAt, n.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("update notice: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("notice", n.ID.String())
	}

	return nil
}

// ListVisible returns published notices inside their window for the
// audience, excluding ones the user dismissed.
func (r *NoticeRepo) ListVisible(ctx context.Context, tenantID, userID id.ID, audience notice.Audience, now time.Time) ([]*notice.NoticeEvent, error) {
	query := `
		SELECT ` + noticeColumns + `
		FROM notices n
		WHERE n.tenant_id = $1
		  AND n.status = 'published'
		  AND (n.publish_at IS NULL OR n.publish_at <= $4)
		  AND (n.expires_at IS NULL OR n.expires_at > $4)
		  AND n.audience IN ('all', $3)
		  AND NOT EXISTS (
			SELECT 1 FROM notice_dismissals d
			WHERE d.notice_id = n.id AND d.user_id = $2
		  )
		ORDER BY n.severity = 'critical' DESC, n.publish_at DESC
	`

	var items []*notice.NoticeEvent
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query, tenantID, userID, audience, now); err != nil {
		return nil, fmt.Errorf("select visible notices: %w", err)
	}

	return items, nil
}

// ListStale returns published notices past their expiry across all tenants.
func (r *NoticeRepo) ListStale(ctx context.Context, now time.Time, limit int) ([]*notice.NoticeEvent, error) {
	query := `
		SELECT ` + noticeColumns + `
		FROM notices
		WHERE status = 'published'
		  AND expires_at IS NOT NULL
		  AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	var items []*notice.NoticeEvent
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query, now, limit); err != nil {
		return nil, fmt.Errorf("select stale notices: %w", err)
	}

	return items, nil
}

// SaveDismissal records a user dismissal. Idempotent.
func (r *NoticeRepo) SaveDismissal(ctx context.Context, d *notice.Dismissal) error {
	query := `
		INSERT INTO notice_dismissals (notice_id, user_id, dismissed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (notice_id, user_id) DO NOTHING
	`

	if _, err := r.querier(ctx).Exec(ctx, query, d.NoticeID, d.UserID, d.DismissedAt); err != nil {
		return fmt.Errorf("insert dismissal: %w", err)
	}

	return nil
}

var _ notice.Repository = (*NoticeRepo)(nil)
