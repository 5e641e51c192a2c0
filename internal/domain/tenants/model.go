// Package tenants provides tenant accounts, subscription plans, feature
// entitlements and billing history for the shared-database platform.
package tenants

import (
	"strings"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
)

// Status represents tenant lifecycle state.
type Status string

const (
	// StatusTrial - tenant is evaluating, full access until trial_ends_at
	StatusTrial Status = "trial"

	// StatusActive - tenant has a current paid subscription
	StatusActive Status = "active"

	// StatusSuspended - tenant is temporarily disabled (e.g., payment issues)
	StatusSuspended Status = "suspended"

	// StatusCancelled - tenant closed the account, data retained read-only
	StatusCancelled Status = "cancelled"
)

// Tenant represents a tenant account record.
type Tenant struct {
	ID id.ID `db:"id" json:"id"`

	// Slug is the URL-safe identifier, unique across the platform
	Slug string `db:"slug" json:"slug"`

	// DisplayName is the human-readable name
	DisplayName string `db:"display_name" json:"displayName"`

	Status Status `db:"status" json:"status"`

	// PlanCode references the subscription plan
	PlanCode string `db:"plan_code" json:"planCode"`

	// TrialEndsAt bounds the trial period
	TrialEndsAt *time.Time `db:"trial_ends_at" json:"trialEndsAt,omitempty"`

	// Subscription period as last paid
	SubscriptionStartsAt *time.Time `db:"subscription_starts_at" json:"subscriptionStartsAt,omitempty"`
	SubscriptionEndsAt   *time.Time `db:"subscription_ends_at" json:"subscriptionEndsAt,omitempty"`

	// BillingEmail receives invoices and payment notices
	BillingEmail string `db:"billing_email" json:"billingEmail"`

	// Settings stores tenant-level configuration (JSONB)
	Settings entity.Attributes `db:"settings" json:"settings,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewTenant creates a trial tenant with a 14 day trial window.
func NewTenant(slug, displayName, planCode, billingEmail string) *Tenant {
	now := time.Now().UTC()
	trialEnd := now.AddDate(0, 0, 14)
	return &Tenant{
		ID:           id.New(),
		Slug:         strings.ToLower(strings.TrimSpace(slug)),
		DisplayName:  displayName,
		Status:       StatusTrial,
		PlanCode:     planCode,
		TrialEndsAt:  &trialEnd,
		BillingEmail: billingEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks tenant invariants.
func (t *Tenant) Validate() error {
	if t.Slug == "" {
		return apperror.NewValidation("slug is required").WithDetail("field", "slug")
	}
	if len(t.Slug) > 63 {
		return apperror.NewValidation("slug must be 63 characters or less").WithDetail("field", "slug")
	}
	if t.DisplayName == "" {
		return apperror.NewValidation("display name is required").WithDetail("field", "displayName")
	}
	switch t.Status {
	case StatusTrial, StatusActive, StatusSuspended, StatusCancelled:
	default:
		return apperror.NewValidation("invalid tenant status").WithDetail("value", string(t.Status))
	}
	return nil
}

// IsActive returns true if the tenant can use the platform.
// Trial tenants count as active until the trial expires.
func (t *Tenant) IsActive() bool {
	switch t.Status {
	case StatusActive:
		return true
	case StatusTrial:
		return t.OnTrial(time.Now().UTC())
	default:
		return false
	}
}

// OnTrial returns true if the tenant is in a non-expired trial at now.
func (t *Tenant) OnTrial(now time.Time) bool {
	if t.Status != StatusTrial {
		return false
	}
	return t.TrialEndsAt == nil || now.Before(*t.TrialEndsAt)
}

// SubscriptionCurrent returns true if the paid period covers now.
func (t *Tenant) SubscriptionCurrent(now time.Time) bool {
	if t.SubscriptionStartsAt == nil || t.SubscriptionEndsAt == nil {
		return false
	}
	return !now.Before(*t.SubscriptionStartsAt) && now.Before(*t.SubscriptionEndsAt)
}

// Activate moves a trial or suspended tenant to active with the given
// paid period.
func (t *Tenant) Activate(periodStart, periodEnd time.Time) error {
	switch t.Status {
	case StatusTrial, StatusSuspended, StatusActive:
	default:
		return apperror.NewInvalidTransition("tenant", string(t.Status), string(StatusActive))
	}
	t.Status = StatusActive
	t.SubscriptionStartsAt = &periodStart
	t.SubscriptionEndsAt = &periodEnd
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Suspend temporarily disables an active or trial tenant.
func (t *Tenant) Suspend() error {
	switch t.Status {
	case StatusActive, StatusTrial:
	default:
		return apperror.NewInvalidTransition("tenant", string(t.Status), string(StatusSuspended))
	}
	t.Status = StatusSuspended
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Reactivate restores a suspended tenant.
func (t *Tenant) Reactivate() error {
	if t.Status != StatusSuspended {
		return apperror.NewInvalidTransition("tenant", string(t.Status), string(StatusActive))
	}
	t.Status = StatusActive
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel closes the account. Cancelled is terminal.
func (t *Tenant) Cancel() error {
	if t.Status == StatusCancelled {
		return apperror.NewInvalidTransition("tenant", string(t.Status), string(StatusCancelled))
	}
	t.Status = StatusCancelled
	t.UpdatedAt = time.Now().UTC()
	return nil
}
