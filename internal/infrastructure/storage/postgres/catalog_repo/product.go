package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stoka/internal/core/id"
	"stoka/internal/domain/catalogs/product"
	"stoka/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product](
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// FindBySKU retrieves a product by its SKU within a tenant.
func (r *ProductRepo) FindBySKU(ctx context.Context, tenantID id.ID, sku string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	return r.FindOne(ctx, q)
}

// FindByBarcode retrieves a product by barcode within a tenant.
func (r *ProductRepo) FindByBarcode(ctx context.Context, tenantID id.ID, barcode string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"barcode": barcode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	return r.FindOne(ctx, q)
}

// ExistsBySKU checks SKU uniqueness within a tenant.
func (r *ProductRepo) ExistsBySKU(ctx context.Context, tenantID id.ID, sku string) (bool, error) {
	q := r.Builder().
		Select("1").
		From(productTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by sku: %w", err)
	}

	return true, nil
}

// FindLowStock retrieves active products whose on-hand counter is below the
// reorder level. Products with variants track stock per variant and are skipped.
func (r *ProductRepo) FindLowStock(ctx context.Context, tenantID id.ID) ([]*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"has_variants": false}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Gt{"reorder_level": 0}).
		Where(squirrel.Expr("stock_quantity < reorder_level")).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*product.Product
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("find low stock products: %w", err)
	}

	return items, nil
}

var _ product.Repository = (*ProductRepo)(nil)
