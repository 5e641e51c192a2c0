package tenants

import (
	"context"

	"stoka/internal/core/id"
)

// Registry provides access to tenant account records.
type Registry interface {
	// GetByID retrieves a tenant by id.
	GetByID(ctx context.Context, tenantID id.ID) (*Tenant, error)

	// GetBySlug retrieves a tenant by slug.
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)

	// ListActive returns tenants in active or current-trial status.
	ListActive(ctx context.Context) ([]*Tenant, error)

	// ListAll returns all tenants.
	ListAll(ctx context.Context) ([]*Tenant, error)

	// Create inserts a new tenant row.
	Create(ctx context.Context, t *Tenant) error

	// Update persists tenant status and subscription fields.
	Update(ctx context.Context, t *Tenant) error
}

// PlanRepository provides access to plan definitions.
type PlanRepository interface {
	GetByCode(ctx context.Context, code string) (*SubscriptionPlan, error)
	ListActive(ctx context.Context) ([]*SubscriptionPlan, error)
	Create(ctx context.Context, p *SubscriptionPlan) error
	Update(ctx context.Context, p *SubscriptionPlan) error
}

// FeatureRepository provides access to feature definitions and overrides.
type FeatureRepository interface {
	ListFeatures(ctx context.Context) ([]*SystemFeature, error)
	CreateFeature(ctx context.Context, f *SystemFeature) error

	ListOverrides(ctx context.Context, tenantID id.ID) ([]*TenantFeature, error)
	UpsertOverride(ctx context.Context, o *TenantFeature) error
	DeleteOverride(ctx context.Context, tenantID id.ID, code string) error
}

// BillingRepository provides access to the billing history.
type BillingRepository interface {
	Create(ctx context.Context, b *TenantBillingHistory) error
	Update(ctx context.Context, b *TenantBillingHistory) error
	GetByID(ctx context.Context, billingID id.ID) (*TenantBillingHistory, error)
	ListByTenant(ctx context.Context, tenantID id.ID, limit int) ([]*TenantBillingHistory, error)
}
