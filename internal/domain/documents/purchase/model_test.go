package purchase

import (
	"testing"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func TestAddLine_RecalculatesTotals(t *testing.T) {
	p := NewPurchase(id.New(), id.New(), id.New())
	p.AddLine(id.New(), nil, qty(10), types.MustMoney("2.50"))
	p.AddLine(id.New(), nil, qty(3), types.MustMoney("18.00"))

	if !p.Subtotal.Equal(types.MustMoney("79.00")) {
		t.Errorf("subtotal = %s, want 79.00", p.Subtotal)
	}
	if !p.TotalAmount.Equal(p.Subtotal) {
		t.Errorf("total %s != subtotal %s with zero tax", p.TotalAmount, p.Subtotal)
	}
	if p.Lines[1].LineNo != 2 {
		t.Errorf("line numbering broken: %d", p.Lines[1].LineNo)
	}
}

func TestLine_RemainderAndFullyReceived(t *testing.T) {
	line := PurchaseItem{QuantityOrdered: qty(10), QuantityReceived: qty(8)}
	if line.Remainder() != qty(2) {
		t.Errorf("remainder = %s, want 2.0000", line.Remainder())
	}
	if line.FullyReceived() {
		t.Error("8 of 10 is not fully received")
	}

	line.QuantityReceived = qty(10)
	if !line.FullyReceived() || line.Remainder() != qty(0) {
		t.Error("10 of 10 must be fully received with zero remainder")
	}
}

func TestStatusTransitions(t *testing.T) {
	t.Run("draft to pending to confirmed", func(t *testing.T) {
		p := NewPurchase(id.New(), id.New(), id.New())
		if err := p.Submit(); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if err := p.Confirm(); err != nil {
			t.Fatalf("Confirm failed: %v", err)
		}
		if !p.CanReceiveItems() {
			t.Error("confirmed purchase must be receivable")
		}
	})

	t.Run("draft confirms directly", func(t *testing.T) {
		p := NewPurchase(id.New(), id.New(), id.New())
		if err := p.Confirm(); err != nil {
			t.Fatalf("Confirm from draft failed: %v", err)
		}
	})

	t.Run("cannot submit twice", func(t *testing.T) {
		p := NewPurchase(id.New(), id.New(), id.New())
		_ = p.Submit()
		err := p.Submit()
		appErr, ok := apperror.AsAppError(err)
		if !ok || appErr.Code != apperror.CodeInvalidTransition {
			t.Fatalf("err = %v, want %s", err, apperror.CodeInvalidTransition)
		}
	})

	t.Run("cancelled cannot confirm", func(t *testing.T) {
		p := NewPurchase(id.New(), id.New(), id.New())
		_ = p.Cancel()
		if err := p.Confirm(); err == nil {
			t.Error("Confirm on a cancelled purchase must fail")
		}
	})
}

func TestCancel_BarredOnceReceived(t *testing.T) {
	p := NewPurchase(id.New(), id.New(), id.New())
	p.AddLine(id.New(), nil, qty(10), types.MustMoney("1.00"))
	_ = p.Confirm()
	p.Lines[0].QuantityReceived = qty(1)

	err := p.Cancel()
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "PURCHASE_HAS_RECEIPTS" {
		t.Fatalf("err = %v, want PURCHASE_HAS_RECEIPTS", err)
	}
	if p.Status != StatusConfirmed {
		t.Errorf("status = %s, must stay confirmed", p.Status)
	}
}

func TestRecomputeStatus(t *testing.T) {
	now := time.Now()

	build := func(received types.Quantity) *Purchase {
		p := NewPurchase(id.New(), id.New(), id.New())
		p.AddLine(id.New(), nil, qty(10), types.MustMoney("1.00"))
		_ = p.Confirm()
		p.Lines[0].QuantityReceived = received
		return p
	}

	t.Run("partial", func(t *testing.T) {
		p := build(qty(4))
		p.RecomputeStatus(now)
		if p.Status != StatusPartiallyReceived {
			t.Errorf("status = %s, want partially_received", p.Status)
		}
		if p.ActualDeliveryDate != nil {
			t.Error("delivery date must not be set before completion")
		}
	})

	t.Run("complete stamps delivery date", func(t *testing.T) {
		p := build(qty(10))
		p.RecomputeStatus(now)
		if p.Status != StatusCompleted {
			t.Errorf("status = %s, want completed", p.Status)
		}
		if p.ActualDeliveryDate == nil {
			t.Fatal("delivery date must be stamped on completion")
		}
	})

	t.Run("completed is sticky", func(t *testing.T) {
		p := build(qty(10))
		p.RecomputeStatus(now)
		stamp := *p.ActualDeliveryDate

		p.Lines[0].QuantityReceived = qty(3)
		p.RecomputeStatus(now.Add(time.Hour))
		if p.Status != StatusCompleted {
			t.Errorf("status = %s, completed must never downgrade", p.Status)
		}
		if !p.ActualDeliveryDate.Equal(stamp) {
			t.Error("delivery date must not move once set")
		}
	})

	t.Run("partial downgrades to confirmed when receipts undone", func(t *testing.T) {
		p := build(qty(4))
		p.RecomputeStatus(now)

		p.Lines[0].QuantityReceived = qty(0)
		p.RecomputeStatus(now)
		if p.Status != StatusConfirmed {
			t.Errorf("status = %s, want confirmed", p.Status)
		}
	})

	t.Run("draft untouched", func(t *testing.T) {
		p := NewPurchase(id.New(), id.New(), id.New())
		p.AddLine(id.New(), nil, qty(10), types.MustMoney("1.00"))
		p.RecomputeStatus(now)
		if p.Status != StatusDraft {
			t.Errorf("status = %s, want draft", p.Status)
		}
	})
}

func TestPaymentStatus(t *testing.T) {
	p := NewPurchase(id.New(), id.New(), id.New())
	p.AddLine(id.New(), nil, qty(10), types.MustMoney("10.00"))

	if err := p.RecordPayment(types.MustMoney("40.00")); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if p.PaymentStatus != PaymentPartiallyPaid {
		t.Errorf("payment status = %s, want partially_paid", p.PaymentStatus)
	}

	if err := p.RecordPayment(types.MustMoney("60.00")); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if p.PaymentStatus != PaymentPaid {
		t.Errorf("payment status = %s, want paid", p.PaymentStatus)
	}

	if err := p.RecordPayment(types.MustMoney("-5")); err == nil {
		t.Error("negative payment must fail")
	}
}
