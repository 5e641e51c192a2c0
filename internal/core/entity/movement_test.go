package entity

import (
	"testing"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func TestNewMovement_ComputesAfter(t *testing.T) {
	actorID := id.New()
	m, err := NewMovement(id.New(), id.New(), id.New(), nil,
		MovementTypeAdjustment, qty(10), qty(-3), ManualRef(), actorID, "count correction")
	if err != nil {
		t.Fatalf("NewMovement failed: %v", err)
	}

	if m.QuantityAfter != qty(7) {
		t.Errorf("after = %s, want 7.0000", m.QuantityAfter)
	}
	if !m.IsConsistent() {
		t.Error("freshly built movement must be consistent")
	}
	if !m.IsOutbound() || m.IsInbound() {
		t.Error("negative change must be outbound")
	}
	if m.CreatedBy != actorID {
		t.Error("actor not recorded")
	}
}

func TestMovement_IsConsistent(t *testing.T) {
	m := Movement{QuantityBefore: qty(5), QuantityChange: qty(2), QuantityAfter: qty(7)}
	if !m.IsConsistent() {
		t.Error("5 + 2 = 7 must be consistent")
	}

	m.QuantityAfter = qty(8)
	if m.IsConsistent() {
		t.Error("5 + 2 != 8 must be inconsistent")
	}
}

func TestReference_Validate(t *testing.T) {
	docID := id.New()
	nilID := id.Nil()

	tests := []struct {
		name    string
		ref     Reference
		wantErr bool
	}{
		{"purchase with id", PurchaseRef(docID), false},
		{"order with id", OrderRef(docID), false},
		{"reversal with id", ReversalRef(docID), false},
		{"manual without id", ManualRef(), false},
		{"purchase without id", Reference{Kind: ReferencePurchase}, true},
		{"reversal with nil id", Reference{Kind: ReferenceReversal, ID: &nilID}, true},
		{"manual with id", Reference{Kind: ReferenceManual, ID: &docID}, true},
		{"unknown kind", Reference{Kind: "warranty"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMovement_CanReverse(t *testing.T) {
	docID := id.New()

	tests := []struct {
		name string
		m    Movement
		want bool
	}{
		{
			name: "manual adjustment",
			m:    Movement{Type: MovementTypeAdjustment, ReferenceKind: ReferenceManual},
			want: true,
		},
		{
			name: "purchase receipt",
			m:    Movement{Type: MovementTypePurchase, ReferenceKind: ReferencePurchase, ReferenceID: &docID},
			want: false,
		},
		{
			name: "sale shipment",
			m:    Movement{Type: MovementTypeSale, ReferenceKind: ReferenceOrder, ReferenceID: &docID},
			want: false,
		},
		{
			name: "reversal itself",
			m:    Movement{Type: MovementTypeAdjustment, ReferenceKind: ReferenceReversal, ReferenceID: &docID},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.CanReverse(); got != tt.want {
				t.Errorf("CanReverse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMovement_Reversal(t *testing.T) {
	original, err := NewMovement(id.New(), id.New(), id.New(), nil,
		MovementTypeAdjustment, qty(10), qty(5), ManualRef(), id.New(), "found extra units")
	if err != nil {
		t.Fatalf("NewMovement failed: %v", err)
	}

	rev, err := original.Reversal(id.New(), "miscounted")
	if err != nil {
		t.Fatalf("Reversal failed: %v", err)
	}

	if rev.QuantityBefore != original.QuantityAfter {
		t.Errorf("reversal before = %s, want original after %s", rev.QuantityBefore, original.QuantityAfter)
	}
	if rev.QuantityChange != original.QuantityChange.Neg() {
		t.Errorf("reversal change = %s, want %s", rev.QuantityChange, original.QuantityChange.Neg())
	}
	if rev.QuantityAfter != original.QuantityBefore {
		t.Errorf("reversal after = %s, want original before %s", rev.QuantityAfter, original.QuantityBefore)
	}
	if rev.ReferenceKind != ReferenceReversal || rev.ReferenceID == nil || *rev.ReferenceID != original.ID {
		t.Error("reversal must reference the original movement")
	}
	if rev.CanReverse() {
		t.Error("a reversal must not be reversible itself")
	}
}

func TestMovement_Reversal_RejectsDocumentDriven(t *testing.T) {
	sale, err := NewMovement(id.New(), id.New(), id.New(), nil,
		MovementTypeSale, qty(10), qty(-2), OrderRef(id.New()), id.New(), "")
	if err != nil {
		t.Fatalf("NewMovement failed: %v", err)
	}

	_, err = sale.Reversal(id.New(), "undo")
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeMovementNotReversible {
		t.Fatalf("err = %v, want %s", err, apperror.CodeMovementNotReversible)
	}
}
