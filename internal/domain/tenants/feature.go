package tenants

import (
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
)

// SystemFeature is a platform-wide feature flag definition.
type SystemFeature struct {
	ID id.ID `db:"id" json:"id"`

	// Code is the stable feature identifier (multi_warehouse, api_access, ...)
	Code string `db:"code" json:"code"`

	Description string `db:"description" json:"description"`

	// DefaultEnabled applies when neither plan nor tenant say otherwise
	DefaultEnabled bool `db:"default_enabled" json:"defaultEnabled"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewSystemFeature creates a feature definition.
func NewSystemFeature(code, description string, defaultEnabled bool) *SystemFeature {
	return &SystemFeature{
		ID:             id.New(),
		Code:           code,
		Description:    description,
		DefaultEnabled: defaultEnabled,
		CreatedAt:      time.Now().UTC(),
	}
}

// Validate checks feature invariants.
func (f *SystemFeature) Validate() error {
	if f.Code == "" {
		return apperror.NewValidation("feature code is required").WithDetail("field", "code")
	}
	return nil
}

// TenantFeature is a per-tenant override of a system feature.
type TenantFeature struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID id.ID  `db:"tenant_id" json:"tenantId"`
	Code     string `db:"code" json:"code"`

	// Enabled overrides the plan and system default
	Enabled bool `db:"enabled" json:"enabled"`

	// LimitValue optionally overrides a numeric plan limit
	LimitValue *int64 `db:"limit_value" json:"limitValue,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewTenantFeature creates a per-tenant override.
func NewTenantFeature(tenantID id.ID, code string, enabled bool) *TenantFeature {
	now := time.Now().UTC()
	return &TenantFeature{
		ID:        id.New(),
		TenantID:  tenantID,
		Code:      code,
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EntitlementResolver answers feature questions for a tenant.
// Resolution order: tenant override, then plan, then system default.
type EntitlementResolver struct {
	features  map[string]*SystemFeature
	plans     map[string]*SubscriptionPlan
	overrides map[id.ID]map[string]*TenantFeature
}

// NewEntitlementResolver builds a resolver over loaded definitions.
func NewEntitlementResolver(features []*SystemFeature, plans []*SubscriptionPlan, overrides []*TenantFeature) *EntitlementResolver {
	r := &EntitlementResolver{
		features:  make(map[string]*SystemFeature, len(features)),
		plans:     make(map[string]*SubscriptionPlan, len(plans)),
		overrides: make(map[id.ID]map[string]*TenantFeature),
	}
	for _, f := range features {
		r.features[f.Code] = f
	}
	for _, p := range plans {
		r.plans[p.Code] = p
	}
	for _, o := range overrides {
		m, ok := r.overrides[o.TenantID]
		if !ok {
			m = make(map[string]*TenantFeature)
			r.overrides[o.TenantID] = m
		}
		m[o.Code] = o
	}
	return r
}

// FeatureEnabled resolves whether a feature is enabled for the tenant.
func (r *EntitlementResolver) FeatureEnabled(tenant *Tenant, code string) bool {
	if o, ok := r.overrides[tenant.ID][code]; ok {
		return o.Enabled
	}
	if p, ok := r.plans[tenant.PlanCode]; ok && p.Includes(code) {
		return true
	}
	if f, ok := r.features[code]; ok {
		return f.DefaultEnabled
	}
	return false
}

// Limit resolves a numeric limit for the tenant. The feature override
// wins over the plan limit; zero means unlimited.
func (r *EntitlementResolver) Limit(tenant *Tenant, code string, planLimit func(*SubscriptionPlan) int) int64 {
	if o, ok := r.overrides[tenant.ID][code]; ok && o.LimitValue != nil {
		return *o.LimitValue
	}
	if p, ok := r.plans[tenant.PlanCode]; ok {
		return int64(planLimit(p))
	}
	return 0
}
