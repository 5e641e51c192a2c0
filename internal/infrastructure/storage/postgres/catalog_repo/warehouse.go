package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stoka/internal/core/id"
	"stoka/internal/domain/catalogs/warehouse"
	"stoka/internal/infrastructure/storage/postgres"
)

const warehouseTable = "cat_warehouses"

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	*BaseCatalogRepo[*warehouse.Warehouse]
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*warehouse.Warehouse](
			txManager,
			warehouseTable,
			postgres.ExtractDBColumns[warehouse.Warehouse](),
			func() *warehouse.Warehouse { return &warehouse.Warehouse{} },
		),
	}
}

// FindDefault retrieves the tenant's default location, if any.
func (r *WarehouseRepo) FindDefault(ctx context.Context, tenantID id.ID) (*warehouse.Warehouse, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"is_default": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	return r.FindOne(ctx, q)
}

// FindActive retrieves all active locations for a tenant.
func (r *WarehouseRepo) FindActive(ctx context.Context, tenantID id.ID) ([]*warehouse.Warehouse, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*warehouse.Warehouse
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("find active warehouses: %w", err)
	}

	return items, nil
}

// ClearDefault clears the default flag on all of the tenant's locations.
func (r *WarehouseRepo) ClearDefault(ctx context.Context, tenantID id.ID) error {
	q := r.Builder().
		Update(warehouseTable).
		Set("is_default", false).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"is_default": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear default warehouse: %w", err)
	}

	return nil
}

var _ warehouse.Repository = (*WarehouseRepo)(nil)
