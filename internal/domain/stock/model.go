// Package stock maintains the denormalized on-hand counters.
// The ledger is the source of truth; every counter change appends a
// movement row in the same transaction.
package stock

import (
	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
)

// Target identifies one counter dimension: a product (or one of its
// variants) in one warehouse.
type Target struct {
	WarehouseID id.ID
	ProductID   id.ID
	VariantID   *id.ID
}

// ProductTarget builds a target for a product without variants.
func ProductTarget(warehouseID, productID id.ID) Target {
	return Target{WarehouseID: warehouseID, ProductID: productID}
}

// VariantTarget builds a target for a product variant.
func VariantTarget(warehouseID, productID, variantID id.ID) Target {
	return Target{WarehouseID: warehouseID, ProductID: productID, VariantID: &variantID}
}

// Validate checks the target dimensions.
func (t Target) Validate() error {
	if id.IsNil(t.WarehouseID) {
		return apperror.NewValidation("warehouse id is required").
			WithDetail("field", "warehouseId")
	}
	if id.IsNil(t.ProductID) {
		return apperror.NewValidation("product id is required").
			WithDetail("field", "productId")
	}
	if t.VariantID != nil && id.IsNil(*t.VariantID) {
		return apperror.NewValidation("variant id cannot be the zero id").
			WithDetail("field", "variantId")
	}
	return nil
}
