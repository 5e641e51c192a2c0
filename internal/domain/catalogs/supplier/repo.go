package supplier

import (
	"context"

	"stoka/internal/core/id"
	"stoka/internal/domain"
)

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]

	// FindActive retrieves all active suppliers for a tenant.
	FindActive(ctx context.Context, tenantID id.ID) ([]*Supplier, error)
}
