package tenant_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stoka/internal/core/apperror"
	"stoka/internal/domain/tenants"
	"stoka/internal/infrastructure/storage/postgres"
)

const planColumns = `id, code, name, description, monthly_price, yearly_price,
	max_users, max_warehouses, max_products, feature_codes, active,
	created_at, updated_at`

// PlanRepo implements tenants.PlanRepository.
type PlanRepo struct {
	txManager *postgres.TxManager
}

// NewPlanRepo creates a new plan repository.
func NewPlanRepo(txManager *postgres.TxManager) *PlanRepo {
	return &PlanRepo{txManager: txManager}
}

func (r *PlanRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// GetByCode retrieves a plan by code.
func (r *PlanRepo) GetByCode(ctx context.Context, code string) (*tenants.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE code = $1`

	var p tenants.SubscriptionPlan
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, query, code); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("plan", code)
		}
		return nil, fmt.Errorf("query plan: %w", err)
	}

	return &p, nil
}

// ListActive retrieves active plans ordered by monthly price.
func (r *PlanRepo) ListActive(ctx context.Context) ([]*tenants.SubscriptionPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM subscription_plans
		WHERE active = TRUE
		ORDER BY monthly_price
	`

	var items []*tenants.SubscriptionPlan
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query); err != nil {
		return nil, fmt.Errorf("select plans: %w", err)
	}

	return items, nil
}

// Create inserts a new plan.
func (r *PlanRepo) Create(ctx context.Context, p *tenants.SubscriptionPlan) error {
	query := `
		INSERT INTO subscription_plans (
			id, code, name, description, monthly_price, yearly_price,
			max_users, max_warehouses, max_products, feature_codes, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		p.ID, p.Code, p.Name, p.Description, p.MonthlyPrice, p.YearlyPrice,
		p.MaxUsers, p.MaxWarehouses, p.MaxProducts, p.FeatureCodes, p.Active,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	return nil
}

// Update persists plan changes.
func (r *PlanRepo) Update(ctx context.Context, p *tenants.SubscriptionPlan) error {
	query := `
		UPDATE subscription_plans SET
			name = $2,
			description = $3,
			monthly_price = $4,
			yearly_price = $5,
			max_users = $6,
			max_warehouses = $7,
			max_products = $8,
			feature_codes = $9,
			active = $10,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.querier(ctx).Exec(ctx, query,
		p.ID, p.Name, p.Description, p.MonthlyPrice, p.YearlyPrice,
		p.MaxUsers, p.MaxWarehouses, p.MaxProducts, p.FeatureCodes, p.Active,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("plan", p.ID.String())
	}

	return nil
}

var _ tenants.PlanRepository = (*PlanRepo)(nil)
