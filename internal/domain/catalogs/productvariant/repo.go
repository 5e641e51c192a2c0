package productvariant

import (
	"context"

	"stoka/internal/core/id"
	"stoka/internal/domain"
)

// Repository defines the interface for ProductVariant persistence.
type Repository interface {
	domain.CatalogRepository[*ProductVariant]

	// FindByProduct retrieves all variants of a product.
	FindByProduct(ctx context.Context, tenantID, productID id.ID) ([]*ProductVariant, error)

	// FindBySKU retrieves a variant by its SKU within a tenant.
	FindBySKU(ctx context.Context, tenantID id.ID, sku string) (*ProductVariant, error)

	// ExistsBySKU checks SKU uniqueness within a tenant.
	ExistsBySKU(ctx context.Context, tenantID id.ID, sku string) (bool, error)
}
