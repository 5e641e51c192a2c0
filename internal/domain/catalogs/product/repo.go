package product

import (
	"context"

	"stoka/internal/core/id"
	"stoka/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindBySKU retrieves a product by its SKU within a tenant.
	FindBySKU(ctx context.Context, tenantID id.ID, sku string) (*Product, error)

	// FindByBarcode retrieves a product by barcode within a tenant.
	FindByBarcode(ctx context.Context, tenantID id.ID, barcode string) (*Product, error)

	// ExistsBySKU checks SKU uniqueness within a tenant.
	ExistsBySKU(ctx context.Context, tenantID id.ID, sku string) (bool, error)

	// FindLowStock retrieves active products whose on-hand counter is
	// below the reorder level.
	FindLowStock(ctx context.Context, tenantID id.ID) ([]*Product, error)
}
