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

const billingColumns = `id, tenant_id, period_start, period_end, amount,
	currency, method, reference, status, created_at, paid_at`

// BillingRepo implements tenants.BillingRepository over the append-only
// billing history table.
type BillingRepo struct {
	txManager *postgres.TxManager
}

// NewBillingRepo creates a new billing history repository.
func NewBillingRepo(txManager *postgres.TxManager) *BillingRepo {
	return &BillingRepo{txManager: txManager}
}

func (r *BillingRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts a billing record.
func (r *BillingRepo) Create(ctx context.Context, b *tenants.TenantBillingHistory) error {
	query := `
		INSERT INTO tenant_billing_history (
			id, tenant_id, period_start, period_end, amount,
			currency, method, reference, status, created_at, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		b.ID, b.TenantID, b.PeriodStart, b.PeriodEnd, b.Amount,
		b.Currency, b.Method, b.Reference, b.Status, b.CreatedAt, b.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("insert billing record: %w", err)
	}

	return nil
}

// Update persists payment status transitions.
func (r *BillingRepo) Update(ctx context.Context, b *tenants.TenantBillingHistory) error {
	query := `
		UPDATE tenant_billing_history SET
			reference = $2,
			status = $3,
			paid_at = $4
		WHERE id = $1
	`

	result, err := r.querier(ctx).Exec(ctx, query, b.ID, b.Reference, b.Status, b.PaidAt)
	if err != nil {
		return fmt.Errorf("update billing record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("billing record", b.ID.String())
	}

	return nil
}

// GetByID retrieves one billing record.
func (r *BillingRepo) GetByID(ctx context.Context, billingID id.ID) (*tenants.TenantBillingHistory, error) {
	query := `SELECT ` + billingColumns + ` FROM tenant_billing_history WHERE id = $1`

	var b tenants.TenantBillingHistory
	if err := pgxscan.Get(ctx, r.querier(ctx), &b, query, billingID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("billing record", billingID.String())
		}
		return nil, fmt.Errorf("query billing record: %w", err)
	}

	return &b, nil
}

// ListByTenant retrieves a tenant's billing history, newest first.
func (r *BillingRepo) ListByTenant(ctx context.Context, tenantID id.ID, limit int) ([]*tenants.TenantBillingHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + billingColumns + `
		FROM tenant_billing_history
		WHERE tenant_id = $1
		ORDER BY period_start DESC
		LIMIT $2
	`

	var items []*tenants.TenantBillingHistory
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query, tenantID, limit); err != nil {
		return nil, fmt.Errorf("select billing history: %w", err)
	}

	return items, nil
}

var _ tenants.BillingRepository = (*BillingRepo)(nil)
