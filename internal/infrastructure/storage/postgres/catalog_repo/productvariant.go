package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stoka/internal/core/id"
	"stoka/internal/domain/catalogs/productvariant"
	"stoka/internal/infrastructure/storage/postgres"
)

const productVariantTable = "cat_product_variants"

// ProductVariantRepo implements productvariant.Repository.
type ProductVariantRepo struct {
	*BaseCatalogRepo[*productvariant.ProductVariant]
}

// NewProductVariantRepo creates a new product variant repository.
func NewProductVariantRepo(txManager *postgres.TxManager) *ProductVariantRepo {
	return &ProductVariantRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*productvariant.ProductVariant](
			txManager,
			productVariantTable,
			postgres.ExtractDBColumns[productvariant.ProductVariant](),
			func() *productvariant.ProductVariant { return &productvariant.ProductVariant{} },
		),
	}
}

// FindByProduct retrieves all variants of a product.
func (r *ProductVariantRepo) FindByProduct(ctx context.Context, tenantID, productID id.ID) ([]*productvariant.ProductVariant, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("sku")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*productvariant.ProductVariant
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("find variants by product: %w", err)
	}

	return items, nil
}

// FindBySKU retrieves a variant by its SKU within a tenant.
func (r *ProductVariantRepo) FindBySKU(ctx context.Context, tenantID id.ID, sku string) (*productvariant.ProductVariant, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	return r.FindOne(ctx, q)
}

// ExistsBySKU checks SKU uniqueness within a tenant.
func (r *ProductVariantRepo) ExistsBySKU(ctx context.Context, tenantID id.ID, sku string) (bool, error) {
	q := r.Builder().
		Select("1").
		From(productVariantTable).
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

var _ productvariant.Repository = (*ProductVariantRepo)(nil)
