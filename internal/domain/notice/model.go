// Package notice provides in-app notices shown to tenant users.
// Notices are published into a time window and expire automatically;
// users can dismiss them individually.
package notice

import (
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
)

// Severity grades how prominently a notice is displayed.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Audience selects who sees the notice.
type Audience string

const (
	AudienceAll    Audience = "all"
	AudienceAdmins Audience = "admins"
	AudienceStaff  Audience = "staff"
)

// Status is the notice lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusExpired   Status = "expired"
)

// NoticeEvent is one notice record.
type NoticeEvent struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	Severity Severity `db:"severity" json:"severity"`
	Title    string   `db:"title" json:"title"`
	Body     string   `db:"body" json:"body"`
	Audience Audience `db:"audience" json:"audience"`

	Status Status `db:"status" json:"status"`

	// Publish window
	PublishAt *time.Time `db:"publish_at" json:"publishAt,omitempty"`
	ExpiresAt *time.Time `db:"expires_at" json:"expiresAt,omitempty"`

	CreatedBy id.ID     `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewNotice creates a draft notice.
func NewNotice(tenantID id.ID, severity Severity, title, body string, audience Audience, actorID id.ID) *NoticeEvent {
	now := time.Now().UTC()
	return &NoticeEvent{
		ID:        id.New(),
		TenantID:  tenantID,
		Severity:  severity,
		Title:     title,
		Body:      body,
		Audience:  audience,
		Status:    StatusDraft,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks notice invariants.
func (n *NoticeEvent) Validate() error {
	if id.IsNil(n.TenantID) {
		return apperror.NewValidation("tenant id is required")
	}
	if n.Title == "" {
		return apperror.NewValidation("title is required").WithDetail("field", "title")
	}
	switch n.Severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
	default:
		return apperror.NewValidation("invalid severity").WithDetail("value", string(n.Severity))
	}
	switch n.Audience {
	case AudienceAll, AudienceAdmins, AudienceStaff:
	default:
		return apperror.NewValidation("invalid audience").WithDetail("value", string(n.Audience))
	}
	if n.PublishAt != nil && n.ExpiresAt != nil && !n.ExpiresAt.After(*n.PublishAt) {
		return apperror.NewValidation("expiry must come after publication")
	}
	return nil
}

// Publish opens the notice window starting at now.
func (n *NoticeEvent) Publish(now time.Time, expiresAt *time.Time) error {
	if n.Status != StatusDraft {
		return apperror.NewInvalidTransition("notice", string(n.Status), string(StatusPublished))
	}
	stamp := now.UTC()
	n.Status = StatusPublished
	n.PublishAt = &stamp
	n.ExpiresAt = expiresAt
	n.UpdatedAt = stamp
	return nil
}

// Expire closes a published notice.
func (n *NoticeEvent) Expire(now time.Time) error {
	if n.Status != StatusPublished {
		return apperror.NewInvalidTransition("notice", string(n.Status), string(StatusExpired))
	}
	stamp := now.UTC()
	n.Status = StatusExpired
	if n.ExpiresAt == nil || n.ExpiresAt.After(stamp) {
		n.ExpiresAt = &stamp
	}
	n.UpdatedAt = stamp
	return nil
}

// IsVisible reports whether the notice should be shown at now.
func (n *NoticeEvent) IsVisible(now time.Time) bool {
	if n.Status != StatusPublished {
		return false
	}
	if n.PublishAt != nil && now.Before(*n.PublishAt) {
		return false
	}
	if n.ExpiresAt != nil && !now.Before(*n.ExpiresAt) {
		return false
	}
	return true
}

// IsStale reports whether a published notice has outlived its window.
func (n *NoticeEvent) IsStale(now time.Time) bool {
	return n.Status == StatusPublished && n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// Dismissal records one user hiding one notice.
type Dismissal struct {
	NoticeID    id.ID     `db:"notice_id" json:"noticeId"`
	UserID      id.ID     `db:"user_id" json:"userId"`
	DismissedAt time.Time `db:"dismissed_at" json:"dismissedAt"`
}
