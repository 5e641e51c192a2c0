// Package warehouse provides the Warehouse catalog.
// Warehouses are stock-holding locations; shops are the retail-facing kind.
package warehouse

import (
	"context"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
)

// Kind distinguishes back-office storage from retail shops.
type Kind string

const (
	KindWarehouse Kind = "warehouse"
	KindShop      Kind = "shop"
)

// Warehouse represents a stock-holding location.
type Warehouse struct {
	entity.Catalog

	// Kind defines whether this is a warehouse or a shop
	Kind Kind `db:"kind" json:"kind"`

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// Phone is the location contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`

	// ManagerName is the responsible person
	ManagerName *string `db:"manager_name" json:"managerName,omitempty"`

	// IsDefault marks the location documents default to
	IsDefault bool `db:"is_default" json:"isDefault"`

	// Active indicates if the location is operational
	Active bool `db:"active" json:"active"`
}

// NewWarehouse creates a new Warehouse for the given tenant.
func NewWarehouse(tenantID id.ID, code, name string, kind Kind) *Warehouse {
	return &Warehouse{
		Catalog: entity.NewCatalog(tenantID, code, name),
		Kind:    kind,
		Active:  true,
	}
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	if err := w.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch w.Kind {
	case KindWarehouse, KindShop:
	default:
		return apperror.NewValidation("invalid warehouse kind").
			WithDetail("field", "kind").
			WithDetail("value", string(w.Kind))
	}

	return nil
}

// CanHoldStock returns true if movements may target this location.
func (w *Warehouse) CanHoldStock() bool {
	return w.Active && !w.IsFolder
}

// IsShop returns true for retail-facing locations.
func (w *Warehouse) IsShop() bool {
	return w.Kind == KindShop
}
