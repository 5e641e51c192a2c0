package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stoka/internal/core/id"
	"stoka/internal/domain/catalogs/supplier"
	"stoka/internal/infrastructure/storage/postgres"
)

const supplierTable = "cat_suppliers"

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*supplier.Supplier](
			txManager,
			supplierTable,
			postgres.ExtractDBColumns[supplier.Supplier](),
			func() *supplier.Supplier { return &supplier.Supplier{} },
		),
	}
}

// FindActive retrieves all active suppliers for a tenant.
func (r *SupplierRepo) FindActive(ctx context.Context, tenantID id.ID) ([]*supplier.Supplier, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*supplier.Supplier
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("find active suppliers: %w", err)
	}

	return items, nil
}

var _ supplier.Repository = (*SupplierRepo)(nil)
