package notice

import (
	"context"
	"time"

	"stoka/internal/core/id"
)

// Repository persists notices and dismissals.
type Repository interface {
	Create(ctx context.Context, n *NoticeEvent) error
	GetByID(ctx context.Context, tenantID, noticeID id.ID) (*NoticeEvent, error)
	Update(ctx context.Context, n *NoticeEvent) error

	// ListVisible returns published notices inside their window for the
	// audience, excluding ones the user dismissed.
	ListVisible(ctx context.Context, tenantID, userID id.ID, audience Audience, now time.Time) ([]*NoticeEvent, error)

	// ListStale returns published notices past their expiry across all
	// tenants. Used by the maintenance worker.
	ListStale(ctx context.Context, now time.Time, limit int) ([]*NoticeEvent, error)

	// SaveDismissal records a user dismissal (idempotent).
	SaveDismissal(ctx context.Context, d *Dismissal) error
}
