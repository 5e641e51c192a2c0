// Package productvariant provides the ProductVariant catalog.
// Variants are concrete purchasable forms of a product (size, color and
// similar option combinations) and carry their own stock counter.
package productvariant

import (
	"context"
	"strings"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// ProductVariant represents one option combination of a product.
type ProductVariant struct {
	entity.Catalog

	// ProductID references the parent product
	ProductID id.ID `db:"product_id" json:"productId"`

	// SKU is the variant stock keeping unit, unique within a tenant
	SKU string `db:"sku" json:"sku"`

	// Barcode is the variant barcode, if any
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Options holds the option map (size, color, material...)
	Options entity.Attributes `db:"options" json:"options,omitempty"`

	// PriceOverride replaces the product price when set
	PriceOverride *types.Money `db:"price_override" json:"priceOverride,omitempty"`

	// StockQuantity is the denormalized on-hand counter for this variant
	StockQuantity types.Quantity `db:"stock_quantity" json:"stockQuantity"`

	// ReorderLevel triggers low-stock reporting for this variant
	ReorderLevel types.Quantity `db:"reorder_level" json:"reorderLevel"`

	// Active indicates whether the variant is sellable
	Active bool `db:"active" json:"active"`
}

// NewProductVariant creates a new variant for the given product.
func NewProductVariant(tenantID, productID id.ID, sku, name string) *ProductVariant {
	return &ProductVariant{
		Catalog:   entity.NewCatalog(tenantID, "", name),
		ProductID: productID,
		SKU:       strings.ToUpper(strings.TrimSpace(sku)),
		Active:    true,
	}
}

// Validate implements entity.Validatable interface.
func (v *ProductVariant) Validate(ctx context.Context) error {
	if err := v.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(v.ProductID) {
		return apperror.NewValidation("variant requires a product").
			WithDetail("field", "productId")
	}

	if strings.TrimSpace(v.SKU) == "" {
		return apperror.NewValidation("variant SKU is required").
			WithDetail("field", "sku")
	}

	if v.PriceOverride != nil && v.PriceOverride.IsNegative() {
		return apperror.NewValidation("price override cannot be negative").
			WithDetail("field", "priceOverride")
	}

	if v.ReorderLevel.IsNegative() {
		return apperror.NewValidation("reorder level cannot be negative").
			WithDetail("field", "reorderLevel")
	}

	return nil
}

// EffectivePrice returns the override when set, otherwise the given
// product base price.
func (v *ProductVariant) EffectivePrice(basePrice types.Money) types.Money {
	if v.PriceOverride != nil {
		return *v.PriceOverride
	}
	return basePrice
}

// Option returns one option value by key (empty when absent).
func (v *ProductVariant) Option(key string) string {
	return v.Options.GetString(key)
}

// IsLowStock reports whether the counter dropped below the reorder level.
func (v *ProductVariant) IsLowStock() bool {
	if v.ReorderLevel.IsZero() {
		return false
	}
	return v.StockQuantity < v.ReorderLevel
}
