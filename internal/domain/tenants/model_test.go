package tenants

import (
	"testing"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

func TestTenantLifecycle(t *testing.T) {
	now := time.Now().UTC()

	t.Run("trial activates with a paid period", func(t *testing.T) {
		tenant := NewTenant("demo", "Demo Shop", "starter", "billing@example.com")
		if tenant.Status != StatusTrial || !tenant.OnTrial(now) {
			t.Fatalf("new tenant must start on trial, got %s", tenant.Status)
		}

		if err := tenant.Activate(now, now.AddDate(0, 1, 0)); err != nil {
			t.Fatalf("Activate failed: %v", err)
		}
		if tenant.Status != StatusActive || !tenant.SubscriptionCurrent(now) {
			t.Errorf("tenant = %s, want active with a current subscription", tenant.Status)
		}
	})

	t.Run("suspend and reactivate", func(t *testing.T) {
		tenant := NewTenant("demo", "Demo Shop", "starter", "billing@example.com")
		_ = tenant.Activate(now, now.AddDate(0, 1, 0))

		if err := tenant.Suspend(); err != nil {
			t.Fatalf("Suspend failed: %v", err)
		}
		if tenant.IsActive() {
			t.Error("suspended tenant must not be active")
		}
		if err := tenant.Reactivate(); err != nil {
			t.Fatalf("Reactivate failed: %v", err)
		}
		if tenant.Status != StatusActive {
			t.Errorf("status = %s, want active", tenant.Status)
		}
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		tenant := NewTenant("demo", "Demo Shop", "starter", "billing@example.com")
		if err := tenant.Cancel(); err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}

		for name, fn := range map[string]func() error{
			"Cancel again": tenant.Cancel,
			"Suspend":      tenant.Suspend,
			"Reactivate":   tenant.Reactivate,
			"Activate":     func() error { return tenant.Activate(now, now.AddDate(0, 1, 0)) },
		} {
			err := fn()
			appErr, ok := apperror.AsAppError(err)
			if !ok || appErr.Code != apperror.CodeInvalidTransition {
				t.Errorf("%s on cancelled tenant: err = %v, want %s", name, err, apperror.CodeInvalidTransition)
			}
		}
	})

	t.Run("expired trial is not active", func(t *testing.T) {
		tenant := NewTenant("demo", "Demo Shop", "starter", "billing@example.com")
		past := now.AddDate(0, 0, -1)
		tenant.TrialEndsAt = &past
		if tenant.IsActive() {
			t.Error("tenant past its trial end must not be active")
		}
	})
}

func TestTenantValidate(t *testing.T) {
	tenant := NewTenant("Demo-Shop ", "Demo Shop", "starter", "billing@example.com")
	if tenant.Slug != "demo-shop" {
		t.Errorf("slug = %q, must be lower-cased and trimmed", tenant.Slug)
	}
	if err := tenant.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	tenant.DisplayName = ""
	if err := tenant.Validate(); err == nil {
		t.Error("Validate must require a display name")
	}
}

func TestBillingRecordTransitions(t *testing.T) {
	now := time.Now().UTC()

	record, err := NewBillingRecord(id.New(), now, now.AddDate(0, 1, 0), types.MustMoney("79.00"), "USD", "card")
	if err != nil {
		t.Fatalf("NewBillingRecord failed: %v", err)
	}
	if record.Status != PaymentPending {
		t.Fatalf("status = %s, want pending", record.Status)
	}

	if err := record.MarkFailed(); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if err := record.MarkPaid("ch_123"); err == nil {
		t.Error("MarkPaid on a failed record must fail")
	}

	record, _ = NewBillingRecord(id.New(), now, now.AddDate(0, 1, 0), types.MustMoney("79.00"), "USD", "card")
	if err := record.MarkPaid("ch_456"); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if record.PaidAt == nil || record.Reference == nil || *record.Reference != "ch_456" {
		t.Error("paid record must carry timestamp and provider reference")
	}
	if err := record.MarkRefunded(); err != nil {
		t.Fatalf("MarkRefunded failed: %v", err)
	}
	if err := record.MarkRefunded(); err == nil {
		t.Error("refunded record cannot refund twice")
	}

	if _, err := NewBillingRecord(id.New(), now, now, types.MustMoney("79.00"), "USD", "card"); err == nil {
		t.Error("empty billing period must be rejected")
	}
}

func TestEntitlementResolver_Precedence(t *testing.T) {
	tenantID := id.New()
	tenant := &Tenant{ID: tenantID, PlanCode: "business"}

	features := []*SystemFeature{
		NewSystemFeature("expense_tracking", "Track expenses", true),
		NewSystemFeature("api_access", "REST API access", false),
		NewSystemFeature("multi_warehouse", "Multiple warehouses", false),
	}
	plan := NewSubscriptionPlan("business", "Business", types.MustMoney("79.00"), types.MustMoney("790.00"))
	plan.FeatureCodes = []string{"multi_warehouse"}
	plan.MaxWarehouses = 5

	overrides := []*TenantFeature{
		NewTenantFeature(tenantID, "api_access", true),
		NewTenantFeature(tenantID, "multi_warehouse", false),
	}

	r := NewEntitlementResolver(features, []*SubscriptionPlan{plan}, overrides)

	tests := []struct {
		code string
		want bool
		why  string
	}{
		{"api_access", true, "tenant override enables it despite plan and default"},
		{"multi_warehouse", false, "tenant override disables a plan feature"},
		{"expense_tracking", true, "system default applies with no override or plan entry"},
		{"unknown_feature", false, "unknown codes resolve to disabled"},
	}
	for _, tt := range tests {
		if got := r.FeatureEnabled(tenant, tt.code); got != tt.want {
			t.Errorf("FeatureEnabled(%s) = %v, want %v (%s)", tt.code, got, tt.want, tt.why)
		}
	}

	// An unrelated tenant sees only plan and defaults.
	other := &Tenant{ID: id.New(), PlanCode: "business"}
	if !r.FeatureEnabled(other, "multi_warehouse") {
		t.Error("plan feature must be enabled without a tenant override")
	}
	if r.FeatureEnabled(other, "api_access") {
		t.Error("disabled default must stay off without an override")
	}
}

func TestEntitlementResolver_Limits(t *testing.T) {
	tenantID := id.New()
	tenant := &Tenant{ID: tenantID, PlanCode: "business"}

	plan := NewSubscriptionPlan("business", "Business", types.MustMoney("79.00"), types.MustMoney("790.00"))
	plan.MaxWarehouses = 5

	limit := int64(12)
	override := NewTenantFeature(tenantID, "multi_warehouse", true)
	override.LimitValue = &limit

	r := NewEntitlementResolver(nil, []*SubscriptionPlan{plan}, []*TenantFeature{override})

	maxWarehouses := func(p *SubscriptionPlan) int { return p.MaxWarehouses }

	if got := r.Limit(tenant, "multi_warehouse", maxWarehouses); got != 12 {
		t.Errorf("limit = %d, override must win over the plan", got)
	}

	other := &Tenant{ID: id.New(), PlanCode: "business"}
	if got := r.Limit(other, "multi_warehouse", maxWarehouses); got != 5 {
		t.Errorf("limit = %d, want the plan limit 5", got)
	}

	unknownPlan := &Tenant{ID: id.New(), PlanCode: "legacy"}
	if got := r.Limit(unknownPlan, "multi_warehouse", maxWarehouses); got != 0 {
		t.Errorf("limit = %d, want 0 (unlimited) for an unknown plan", got)
	}
}

func TestPlanIncludes(t *testing.T) {
	plan := NewSubscriptionPlan("starter", "Starter", types.MustMoney("29.00"), types.MustMoney("290.00"))
	plan.FeatureCodes = []string{"expense_tracking"}

	if !plan.Includes("expense_tracking") {
		t.Error("plan must include its own feature code")
	}
	if plan.Includes("api_access") {
		t.Error("plan must not include a missing feature code")
	}
}
