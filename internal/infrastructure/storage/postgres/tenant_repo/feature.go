package tenant_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stoka/internal/core/id"
	"stoka/internal/domain/tenants"
	"stoka/internal/infrastructure/storage/postgres"
)

// FeatureRepo implements tenants.FeatureRepository.
type FeatureRepo struct {
	txManager *postgres.TxManager
}

// NewFeatureRepo creates a new feature repository.
func NewFeatureRepo(txManager *postgres.TxManager) *FeatureRepo {
	return &FeatureRepo{txManager: txManager}
}

func (r *FeatureRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// ListFeatures retrieves the system feature definitions.
func (r *FeatureRepo) ListFeatures(ctx context.Context) ([]*tenants.SystemFeature, error) {
	query := `
		SELECT id, code, description, default_enabled, created_at
		FROM system_features
		ORDER BY code
	`

	var items []*tenants.SystemFeature
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query); err != nil {
		return nil, fmt.Errorf("select features: %w", err)
	}

	return items, nil
}

// CreateFeature inserts a new system feature definition.
func (r *FeatureRepo) CreateFeature(ctx context.Context, f *tenants.SystemFeature) error {
	query := `
		INSERT INTO system_features (id, code, description, default_enabled, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		f.ID, f.Code, f.Description, f.DefaultEnabled, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feature: %w", err)
	}

	return nil
}

// ListOverrides retrieves a tenant's feature overrides.
func (r *FeatureRepo) ListOverrides(ctx context.Context, tenantID id.ID) ([]*tenants.TenantFeature, error) {
	query := `
		SELECT id, tenant_id, code, enabled, limit_value, created_at, updated_at
		FROM tenant_features
		WHERE tenant_id = $1
		ORDER BY code
	`

	var items []*tenants.TenantFeature
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query, tenantID); err != nil {
		return nil, fmt.Errorf("select overrides: %w", err)
	}

	return items, nil
}

// UpsertOverride creates or replaces a tenant's override for one feature.
func (r *FeatureRepo) UpsertOverride(ctx context.Context, o *tenants.TenantFeature) error {
	query := `
		INSERT INTO tenant_features (
			id, tenant_id, code, enabled, limit_value, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, code) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			limit_value = EXCLUDED.limit_value,
			updated_at = NOW()
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		o.ID, o.TenantID, o.Code, o.Enabled, o.LimitValue, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}

	return nil
}

// DeleteOverride removes a tenant's override, falling back to the plan.
func (r *FeatureRepo) DeleteOverride(ctx context.Context, tenantID id.ID, code string) error {
	query := `DELETE FROM tenant_features WHERE tenant_id = $1 AND code = $2`

	if _, err := r.querier(ctx).Exec(ctx, query, tenantID, code); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}

	return nil
}

var _ tenants.FeatureRepository = (*FeatureRepo)(nil)
