// Package tenant_repo provides PostgreSQL implementations for the tenant
// account registry, plans, feature flags and billing history. These tables
// are platform-wide: they live outside the tenant_id scoping the rest of
// the schema uses.
package tenant_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/domain/tenants"
	"stoka/internal/infrastructure/storage/postgres"
)

const tenantColumns = `id, slug, display_name, status, plan_code, trial_ends_at,
	subscription_starts_at, subscription_ends_at, billing_email, settings,
	created_at, updated_at`

// RegistryRepo implements tenants.Registry.
type RegistryRepo struct {
	txManager *postgres.TxManager
}

// NewRegistryRepo creates a new tenant registry repository.
func NewRegistryRepo(txManager *postgres.TxManager) *RegistryRepo {
	return &RegistryRepo{txManager: txManager}
}

func (r *RegistryRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// GetByID retrieves a tenant by id.
func (r *RegistryRepo) GetByID(ctx context.Context, tenantID id.ID) (*tenants.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	var t tenants.Tenant
	if err := pgxscan.Get(ctx, r.querier(ctx), &t, query, tenantID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("tenant", tenantID.String())
		}
		return nil, fmt.Errorf("query tenant: %w", err)
	}

	return &t, nil
}

// GetBySlug retrieves a tenant by slug.
func (r *RegistryRepo) GetBySlug(ctx context.Context, slug string) (*tenants.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`

	var t tenants.Tenant
	if err := pgxscan.Get(ctx, r.querier(ctx), &t, query, slug); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("tenant", slug)
		}
		return nil, fmt.Errorf("query tenant: %w", err)
	}

	return &t, nil
}

// ListActive returns tenants in active or current-trial status.
func (r *RegistryRepo) ListActive(ctx context.Context) ([]*tenants.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE status = 'active'
		   OR (status = 'trial' AND (trial_ends_at IS NULL OR trial_ends_at > NOW()))
		ORDER BY slug
	`

	var items []*tenants.Tenant
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query); err != nil {
		return nil, fmt.Errorf("select active tenants: %w", err)
	}

	return items, nil
}

// ListAll returns all tenants.
func (r *RegistryRepo) ListAll(ctx context.Context) ([]*tenants.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY slug`

	var items []*tenants.Tenant
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query); err != nil {
		return nil, fmt.Errorf("select tenants: %w", err)
	}

	return items, nil
}

// Create inserts a new tenant row.
func (r *RegistryRepo) Create(ctx context.Context, t *tenants.Tenant) error {
	query := `
		INSERT INTO tenants (
			id, slug, display_name, status, plan_code, trial_ends_at,
			subscription_starts_at, subscription_ends_at, billing_email,
			settings, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		t.ID, t.Slug, t.DisplayName, t.Status, t.PlanCode, t.TrialEndsAt,
		t.SubscriptionStartsAt, t.SubscriptionEndsAt, t.BillingEmail,
		t.Settings, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}

	return nil
}

// Update persists tenant status and subscription fields.
func (r *RegistryRepo) Update(ctx context.Context, t *tenants.Tenant) error {
	query := `
		UPDATE tenants SET
			display_name = $2,
			status = $3,
			plan_code = $4,
			trial_ends_at = $5,
			subscription_starts_at = $6,
			subscription_ends_at = $7,
			billing_email = $8,
			settings = $9,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.querier(ctx).Exec(ctx, query,
		t.ID, t.DisplayName, t.Status, t.PlanCode, t.TrialEndsAt,
		t.SubscriptionStartsAt, t.SubscriptionEndsAt, t.BillingEmail, t.Settings,
	)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("tenant", t.ID.String())
	}

	return nil
}

var _ tenants.Registry = (*RegistryRepo)(nil)
