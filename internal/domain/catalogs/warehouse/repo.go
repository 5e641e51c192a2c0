package warehouse

import (
	"context"

	"stoka/internal/core/id"
	"stoka/internal/domain"
)

// Repository defines the interface for Warehouse persistence.
type Repository interface {
	domain.CatalogRepository[*Warehouse]

	// FindDefault retrieves the tenant's default location, if any.
	FindDefault(ctx context.Context, tenantID id.ID) (*Warehouse, error)

	// FindActive retrieves all active locations for a tenant.
	FindActive(ctx context.Context, tenantID id.ID) ([]*Warehouse, error)

	// ClearDefault clears the default flag on all of the tenant's locations.
	ClearDefault(ctx context.Context, tenantID id.ID) error
}
