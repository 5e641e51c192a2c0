// Package product provides the Product catalog.
// Products carry pricing, references to the classification catalogs and the
// denormalized stock counter for fast on-hand reads.
package product

import (
	"context"
	"strings"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// Product represents a sellable item.
type Product struct {
	entity.Catalog

	// SKU is the stock keeping unit, unique within a tenant
	SKU string `db:"sku" json:"sku"`

	// Barcode is the EAN/UPC barcode, if any
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// CategoryID references the category catalog
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`

	// BrandID references the brand catalog
	BrandID *id.ID `db:"brand_id" json:"brandId,omitempty"`

	// SupplierID references the preferred supplier
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// Description is a free-form description
	Description *string `db:"description" json:"description,omitempty"`

	// Price is the selling price
	Price types.Money `db:"price" json:"price"`

	// Cost is the last known purchase cost
	Cost types.Money `db:"cost" json:"cost"`

	// TaxRate is the sales tax percentage applied on sale
	TaxRate types.Money `db:"tax_rate" json:"taxRate"`

	// Unit is the unit of measure (pcs, kg, l)
	Unit string `db:"unit" json:"unit"`

	// ReorderLevel triggers low-stock reporting when on-hand drops below it
	ReorderLevel types.Quantity `db:"reorder_level" json:"reorderLevel"`

	// StockQuantity is the denormalized on-hand counter.
	// For products with variants the counter lives on the variant rows
	// and this field stays zero.
	StockQuantity types.Quantity `db:"stock_quantity" json:"stockQuantity"`

	// HasVariants is true once at least one variant exists
	HasVariants bool `db:"has_variants" json:"hasVariants"`

	// Active indicates whether the product is sellable
	Active bool `db:"active" json:"active"`
}

// NewProduct creates a new Product for the given tenant.
func NewProduct(tenantID id.ID, sku, name string) *Product {
	return &Product{
		Catalog: entity.NewCatalog(tenantID, "", name),
		SKU:     strings.ToUpper(strings.TrimSpace(sku)),
		Unit:    "pcs",
		Active:  true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("product SKU is required").
			WithDetail("field", "sku")
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}

	if p.Cost.IsNegative() {
		return apperror.NewValidation("cost cannot be negative").
			WithDetail("field", "cost")
	}

	if p.TaxRate.IsNegative() {
		return apperror.NewValidation("tax rate cannot be negative").
			WithDetail("field", "taxRate")
	}

	if p.ReorderLevel.IsNegative() {
		return apperror.NewValidation("reorder level cannot be negative").
			WithDetail("field", "reorderLevel")
	}

	return nil
}

// IsLowStock reports whether the on-hand counter dropped below the
// reorder level. Meaningless for products with variants.
func (p *Product) IsLowStock() bool {
	if p.HasVariants || p.ReorderLevel.IsZero() {
		return false
	}
	return p.StockQuantity < p.ReorderLevel
}

// Margin returns price minus cost.
func (p *Product) Margin() types.Money {
	return p.Price.Sub(p.Cost)
}
