// Package category provides the hierarchical product category catalog.
package category

import (
	"context"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
)

// Category groups products into a tree. Folders hold subcategories,
// leaves hold products.
type Category struct {
	entity.Catalog

	// Description is shown in storefront navigation
	Description *string `db:"description" json:"description,omitempty"`

	// DisplayOrder controls position among siblings
	DisplayOrder int `db:"display_order" json:"displayOrder"`

	// ImageURL is the category image
	ImageURL *string `db:"image_url" json:"imageUrl,omitempty"`

	// Active hides the category from listings without deleting it
	Active bool `db:"active" json:"active"`
}

// NewCategory creates a new Category for the given tenant.
func NewCategory(tenantID id.ID, code, name string) *Category {
	return &Category{
		Catalog: entity.NewCatalog(tenantID, code, name),
		Active:  true,
	}
}

// Validate implements entity.Validatable interface.
func (c *Category) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.DisplayOrder < 0 {
		return apperror.NewValidation("display order cannot be negative").
			WithDetail("field", "displayOrder")
	}

	// A category cannot be its own parent
	if c.ParentID != nil && *c.ParentID == c.ID.String() {
		return apperror.NewValidation("category cannot be its own parent").
			WithDetail("field", "parentId")
	}

	return nil
}
