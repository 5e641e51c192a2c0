package tenants

import (
	"context"
	"fmt"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/tx"
	"stoka/internal/core/types"
	"stoka/pkg/logger"
)

// Service provides tenant lifecycle, entitlement and billing operations.
type Service struct {
	registry  Registry
	plans     PlanRepository
	features  FeatureRepository
	billing   BillingRepository
	txManager tx.Manager
}

// NewService creates a tenant service.
func NewService(registry Registry, plans PlanRepository, features FeatureRepository, billing BillingRepository, txManager tx.Manager) *Service {
	return &Service{
		registry:  registry,
		plans:     plans,
		features:  features,
		billing:   billing,
		txManager: txManager,
	}
}

// Register creates a new trial tenant.
func (s *Service) Register(ctx context.Context, slug, displayName, planCode, billingEmail string) (*Tenant, error) {
	if _, err := s.plans.GetByCode(ctx, planCode); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("plan", planCode)
		}
		return nil, err
	}

	t := NewTenant(slug, displayName, planCode, billingEmail)
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.registry.GetBySlug(ctx, t.Slug); err == nil && existing != nil {
		return nil, apperror.NewDuplicate("tenant", "slug", t.Slug)
	} else if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.registry.Create(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("register tenant: %w", err)
	}

	logger.Info(ctx, "tenant registered", "slug", t.Slug, "plan", t.PlanCode)
	return t, nil
}

// GetByID retrieves a tenant.
func (s *Service) GetByID(ctx context.Context, tenantID id.ID) (*Tenant, error) {
	t, err := s.registry.GetByID(ctx, tenantID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("tenant", tenantID.String())
		}
		return nil, err
	}
	return t, nil
}

// Suspend disables a tenant (payment issues, abuse).
func (s *Service) Suspend(ctx context.Context, tenantID id.ID) error {
	return s.transition(ctx, tenantID, (*Tenant).Suspend)
}

// Reactivate restores a suspended tenant.
func (s *Service) Reactivate(ctx context.Context, tenantID id.ID) error {
	return s.transition(ctx, tenantID, (*Tenant).Reactivate)
}

// Cancel closes a tenant account.
func (s *Service) Cancel(ctx context.Context, tenantID id.ID) error {
	return s.transition(ctx, tenantID, (*Tenant).Cancel)
}

func (s *Service) transition(ctx context.Context, tenantID id.ID, fn func(*Tenant) error) error {
	t, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.registry.Update(ctx, t)
	})
}

// Resolver loads definitions and overrides into an EntitlementResolver
// for the given tenant.
func (s *Service) Resolver(ctx context.Context, tenantID id.ID) (*EntitlementResolver, error) {
	features, err := s.features.ListFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load features: %w", err)
	}
	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	overrides, err := s.features.ListOverrides(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}
	return NewEntitlementResolver(features, plans, overrides), nil
}

// FeatureEnabled resolves one feature for one tenant.
func (s *Service) FeatureEnabled(ctx context.Context, tenantID id.ID, code string) (bool, error) {
	t, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return false, err
	}
	r, err := s.Resolver(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return r.FeatureEnabled(t, code), nil
}

// SetFeatureOverride upserts a per-tenant feature override.
func (s *Service) SetFeatureOverride(ctx context.Context, tenantID id.ID, code string, enabled bool, limit *int64) error {
	o := NewTenantFeature(tenantID, code, enabled)
	o.LimitValue = limit
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.features.UpsertOverride(ctx, o)
	})
}

// RecordPayment creates a pending billing record for the period.
func (s *Service) RecordPayment(ctx context.Context, tenantID id.ID, periodStart, periodEnd time.Time, amount types.Money, currency, method string) (*TenantBillingHistory, error) {
	t, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusCancelled {
		return nil, apperror.NewInvalidTransition("tenant", string(t.Status), string(StatusActive))
	}

	rec, err := NewBillingRecord(tenantID, periodStart, periodEnd, amount, currency, method)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.billing.Create(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return rec, nil
}

// MarkPaid settles a pending record and extends the tenant subscription
// to the paid period in the same transaction.
func (s *Service) MarkPaid(ctx context.Context, billingID id.ID, reference string) error {
	rec, err := s.billing.GetByID(ctx, billingID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("billing record", billingID.String())
		}
		return err
	}
	if err := rec.MarkPaid(reference); err != nil {
		return err
	}

	t, err := s.GetByID(ctx, rec.TenantID)
	if err != nil {
		return err
	}
	if err := t.Activate(rec.PeriodStart, rec.PeriodEnd); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.billing.Update(ctx, rec); err != nil {
			return err
		}
		return s.registry.Update(ctx, t)
	})
}

// MarkFailed marks a pending record as failed.
func (s *Service) MarkFailed(ctx context.Context, billingID id.ID) error {
	rec, err := s.billing.GetByID(ctx, billingID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("billing record", billingID.String())
		}
		return err
	}
	if err := rec.MarkFailed(); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.billing.Update(ctx, rec)
	})
}

// BillingHistory lists recent billing records for a tenant.
func (s *Service) BillingHistory(ctx context.Context, tenantID id.ID, limit int) ([]*TenantBillingHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.billing.ListByTenant(ctx, tenantID, limit)
}
