// Package entity provides core domain entities.
package entity

import (
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// MovementType classifies inventory ledger entries.
type MovementType string

const (
	MovementTypePurchase   MovementType = "purchase"
	MovementTypeSale       MovementType = "sale"
	MovementTypeReturn     MovementType = "return"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeTransfer   MovementType = "transfer"
	MovementTypeDamaged    MovementType = "damaged"
	MovementTypeExpired    MovementType = "expired"
)

// ReferenceKind tags the source a movement points back to.
type ReferenceKind string

const (
	// ReferencePurchase links a movement to a purchase document
	ReferencePurchase ReferenceKind = "purchase"
	// ReferenceOrder links a movement to a sales order
	ReferenceOrder ReferenceKind = "order"
	// ReferenceManual marks a hand-entered adjustment with no document
	ReferenceManual ReferenceKind = "manual_adjustment"
	// ReferenceReversal links a compensating movement to the movement it undoes
	ReferenceReversal ReferenceKind = "reversal"
)

// Reference is a tagged union: purchase(id) | order(id) |
// manual_adjustment | reversal(movementID).
// Stored as reference_kind + nullable reference_id.
type Reference struct {
	Kind ReferenceKind `json:"kind"`
	ID   *id.ID        `json:"id,omitempty"`
}

// PurchaseRef builds a reference to a purchase document.
func PurchaseRef(purchaseID id.ID) Reference {
	return Reference{Kind: ReferencePurchase, ID: &purchaseID}
}

// OrderRef builds a reference to a sales order.
func OrderRef(orderID id.ID) Reference {
	return Reference{Kind: ReferenceOrder, ID: &orderID}
}

// ManualRef builds a manual adjustment reference (no document).
func ManualRef() Reference {
	return Reference{Kind: ReferenceManual}
}

// ReversalRef builds a reference to the movement being reversed.
func ReversalRef(movementID id.ID) Reference {
	return Reference{Kind: ReferenceReversal, ID: &movementID}
}

// Validate checks the kind/id pairing of the union.
func (r Reference) Validate() error {
	switch r.Kind {
	case ReferencePurchase, ReferenceOrder, ReferenceReversal:
		if r.ID == nil || id.IsNil(*r.ID) {
			return apperror.NewValidation("reference id is required").
				WithDetail("kind", string(r.Kind))
		}
	case ReferenceManual:
		if r.ID != nil {
			return apperror.NewValidation("manual adjustment carries no reference id")
		}
	default:
		return apperror.NewValidation("unknown reference kind").
			WithDetail("kind", string(r.Kind))
	}
	return nil
}

// IsManual returns true for hand-entered adjustments.
func (r Reference) IsManual() bool {
	return r.Kind == ReferenceManual
}

// Movement is one row of the append-only inventory ledger.
// Rows are immutable: never updated, never deleted. The only undo is a
// compensating movement that references the original.
type Movement struct {
	ID id.ID `db:"id" json:"id"`
	TenantScoped

	// Dimensions
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	ProductID   id.ID  `db:"product_id" json:"productId"`
	VariantID   *id.ID `db:"variant_id" json:"variantId,omitempty"`

	Type MovementType `db:"movement_type" json:"movementType"`

	// Snapshot triple. After is always Before + Change.
	QuantityBefore types.Quantity `db:"quantity_before" json:"quantityBefore"`
	QuantityChange types.Quantity `db:"quantity_change" json:"quantityChange"`
	QuantityAfter  types.Quantity `db:"quantity_after" json:"quantityAfter"`

	ReferenceKind ReferenceKind `db:"reference_kind" json:"referenceKind"`
	ReferenceID   *id.ID        `db:"reference_id" json:"referenceId,omitempty"`

	Note      string    `db:"note" json:"note,omitempty"`
	CreatedBy id.ID     `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a ledger row with QuantityAfter computed from the
// before/change pair. Callers pass the signed change; the constructor never
// flips signs itself.
func NewMovement(
	tenantID id.ID,
	warehouseID, productID id.ID,
	variantID *id.ID,
	movementType MovementType,
	before, change types.Quantity,
	ref Reference,
	actorID id.ID,
	note string,
) (Movement, error) {
	if err := ref.Validate(); err != nil {
		return Movement{}, err
	}
	m := Movement{
		ID:             id.New(),
		TenantScoped:   TenantScoped{TenantID: tenantID},
		WarehouseID:    warehouseID,
		ProductID:      productID,
		VariantID:      variantID,
		Type:           movementType,
		QuantityBefore: before,
		QuantityChange: change,
		QuantityAfter:  before + change,
		ReferenceKind:  ref.Kind,
		ReferenceID:    ref.ID,
		Note:           note,
		CreatedBy:      actorID,
		CreatedAt:      time.Now().UTC(),
	}
	return m, nil
}

// Reference reassembles the tagged union from the stored columns.
func (m *Movement) Reference() Reference {
	return Reference{Kind: m.ReferenceKind, ID: m.ReferenceID}
}

// IsInbound reports whether the movement increases stock.
// Direction is defined by the sign of the change, not the movement type:
// a negative adjustment is outbound even though adjustments can go both ways.
func (m *Movement) IsInbound() bool {
	return m.QuantityChange.IsPositive()
}

// IsOutbound reports whether the movement decreases stock.
func (m *Movement) IsOutbound() bool {
	return m.QuantityChange.IsNegative()
}

// IsConsistent verifies the snapshot triple.
func (m *Movement) IsConsistent() bool {
	return m.QuantityAfter == m.QuantityBefore+m.QuantityChange
}

// CanReverse reports whether a compensating movement may be recorded.
// Only hand-entered adjustments are reversible; document-driven movements
// are corrected through their documents.
func (m *Movement) CanReverse() bool {
	return m.Type == MovementTypeAdjustment && m.ReferenceKind == ReferenceManual
}

// Reversal builds the compensating movement: before/after swapped, change
// negated, reference pointing at the original row.
func (m *Movement) Reversal(actorID id.ID, reason string) (Movement, error) {
	if !m.CanReverse() {
		return Movement{}, apperror.NewMovementNotReversible(m.ID.String(), string(m.Type))
	}
	return NewMovement(
		m.TenantID,
		m.WarehouseID,
		m.ProductID,
		m.VariantID,
		MovementTypeAdjustment,
		m.QuantityAfter,
		m.QuantityChange.Neg(),
		ReversalRef(m.ID),
		actorID,
		reason,
	)
}

// StockLevel is the denormalized on-hand counter for fast reads.
// The ledger is the source of truth; this row is maintained in the same
// transaction as every ledger append.
type StockLevel struct {
	TenantID    id.ID  `db:"tenant_id" json:"tenantId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	ProductID   id.ID  `db:"product_id" json:"productId"`
	VariantID   *id.ID `db:"variant_id" json:"variantId,omitempty"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
