// Package ledger provides the append-only inventory movement ledger.
// Every stock change is recorded as a Movement row with a
// before/change/after snapshot; rows are never updated or deleted.
package ledger

import (
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// NewPurchaseMovement records goods received against a purchase.
// Quantity is a magnitude; the change is always positive.
func NewPurchaseMovement(tenantID, warehouseID, productID id.ID, variantID *id.ID, before, qty types.Quantity, purchaseID, actorID id.ID, note string) (entity.Movement, error) {
	return entity.NewMovement(tenantID, warehouseID, productID, variantID,
		entity.MovementTypePurchase, before, qty.Abs(), entity.PurchaseRef(purchaseID), actorID, note)
}

// NewSaleMovement records goods shipped against an order.
// Quantity is a magnitude; the change is normalized to negative.
func NewSaleMovement(tenantID, warehouseID, productID id.ID, variantID *id.ID, before, qty types.Quantity, orderID, actorID id.ID, note string) (entity.Movement, error) {
	return entity.NewMovement(tenantID, warehouseID, productID, variantID,
		entity.MovementTypeSale, before, qty.Abs().Neg(), entity.OrderRef(orderID), actorID, note)
}

// NewReturnMovement records goods returned from a cancelled or refunded
// order. The change is always positive.
func NewReturnMovement(tenantID, warehouseID, productID id.ID, variantID *id.ID, before, qty types.Quantity, orderID, actorID id.ID, note string) (entity.Movement, error) {
	return entity.NewMovement(tenantID, warehouseID, productID, variantID,
		entity.MovementTypeReturn, before, qty.Abs(), entity.OrderRef(orderID), actorID, note)
}

// NewAdjustment records a hand-entered correction. The change keeps the
// caller's sign; these are the only reversible movements.
func NewAdjustment(tenantID, warehouseID, productID id.ID, variantID *id.ID, before, change types.Quantity, actorID id.ID, note string) (entity.Movement, error) {
	return entity.NewMovement(tenantID, warehouseID, productID, variantID,
		entity.MovementTypeAdjustment, before, change, entity.ManualRef(), actorID, note)
}

// NewTransferOut records the outbound half of a warehouse transfer.
func NewTransferOut(tenantID, warehouseID, productID id.ID, variantID *id.ID, before, qty types.Quantity, actorID id.ID, note string) (entity.Movement, error) {
	return entity.NewMovement(tenantID, warehouseID, productID, variantID,
		entity.MovementTypeTransfer, before, qty.Abs().Neg(), entity.ManualRef(), actorID, note)
}

// NewTransferIn records the inbound half of a warehouse transfer.
func NewTransferIn(tenantID, warehouseID, productID id.ID, variantID *id.ID, before, qty types.Quantity, actorID id.ID, note string) (entity.Movement, error) {
	return entity.NewMovement(tenantID, warehouseID, productID, variantID,
		entity.MovementTypeTransfer, before, qty.Abs(), entity.ManualRef(), actorID, note)
}

// NewDamagedMovement writes off damaged goods. The change is negative.
func NewDamagedMovement(tenantID, warehouseID, productID id.ID, variantID *id.ID, before, qty types.Quantity, actorID id.ID, note string) (entity.Movement, error) {
	return entity.NewMovement(tenantID, warehouseID, productID, variantID,
		entity.MovementTypeDamaged, before, qty.Abs().Neg(), entity.ManualRef(), actorID, note)
}

// NewExpiredMovement writes off expired goods. The change is negative.
func NewExpiredMovement(tenantID, warehouseID, productID id.ID, variantID *id.ID, before, qty types.Quantity, actorID id.ID, note string) (entity.Movement, error) {
	return entity.NewMovement(tenantID, warehouseID, productID, variantID,
		entity.MovementTypeExpired, before, qty.Abs().Neg(), entity.ManualRef(), actorID, note)
}
