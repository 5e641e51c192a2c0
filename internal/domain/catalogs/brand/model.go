// Package brand provides the Brand catalog.
package brand

import (
	"context"

	"stoka/internal/core/entity"
	"stoka/internal/core/id"
)

// Brand is a flat manufacturer/label catalog.
type Brand struct {
	entity.Catalog

	Description *string `db:"description" json:"description,omitempty"`
	LogoURL     *string `db:"logo_url" json:"logoUrl,omitempty"`
	Website     *string `db:"website" json:"website,omitempty"`
	Active      bool    `db:"active" json:"active"`
}

// NewBrand creates a new Brand for the given tenant.
func NewBrand(tenantID id.ID, code, name string) *Brand {
	return &Brand{
		Catalog: entity.NewCatalog(tenantID, code, name),
		Active:  true,
	}
}

// Validate implements entity.Validatable interface.
func (b *Brand) Validate(ctx context.Context) error {
	return b.Catalog.Validate(ctx)
}
