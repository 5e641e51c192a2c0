package entity

import (
	"context"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
)

// Catalog is the base type for reference data.
// Examples: Category, Brand, Supplier, Warehouse, Product.
type Catalog struct {
	BaseCatalog
	TenantScoped

	// Code is a human-readable identifier (unique within tenant)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// ParentID for hierarchical catalogs (nullable)
	ParentID *string `db:"parent_id" json:"parentId,omitempty"`

	// IsFolder indicates if this is a group (folder) in hierarchy
	IsFolder bool `db:"is_folder" json:"isFolder"`
}

// NewCatalog creates a new Catalog owned by the given tenant.
func NewCatalog(tenantID id.ID, code, name string) Catalog {
	return Catalog{
		BaseCatalog:  NewBaseCatalog(),
		TenantScoped: TenantScoped{TenantID: tenantID},
		Code:         code,
		Name:         name,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if err := c.ValidateTenant(ctx); err != nil {
		return err
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	// Code can be auto-generated, so it's optional at creation
	// but required at save time

	return nil
}

// SetParent sets the parent reference.
func (c *Catalog) SetParent(parentID string) {
	if parentID == "" {
		c.ParentID = nil
	} else {
		c.ParentID = &parentID
	}
}

// IsRoot returns true if catalog has no parent.
func (c *Catalog) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}
