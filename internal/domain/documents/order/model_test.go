package order

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
	o := NewOrder(id.New(), id.New(), "Alice Carter")
	o.AddLine(id.New(), nil, qty(2), types.MustMoney("24.99"))
	o.AddLine(id.New(), nil, qty(1), types.MustMoney("5.50"))

	if !o.Subtotal.Equal(types.MustMoney("55.48")) {
		t.Errorf("subtotal = %s, want 55.48", o.Subtotal)
	}
	if !o.TotalAmount.Equal(o.Subtotal) {
		t.Errorf("total %s != subtotal %s with zero tax", o.TotalAmount, o.Subtotal)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	now := time.Now()

	t.Run("happy path", func(t *testing.T) {
		o := NewOrder(id.New(), id.New(), "Alice Carter")
		if err := o.StartProcessing(); err != nil {
			t.Fatalf("StartProcessing failed: %v", err)
		}
		if err := o.MarkShipped(now); err != nil {
			t.Fatalf("MarkShipped failed: %v", err)
		}
		if o.ShippedAt == nil {
			t.Error("shipped_at must be stamped")
		}
		if err := o.MarkDelivered(now); err != nil {
			t.Fatalf("MarkDelivered failed: %v", err)
		}
		if o.DeliveredAt == nil {
			t.Error("delivered_at must be stamped")
		}
		if err := o.MarkRefunded(); err != nil {
			t.Fatalf("MarkRefunded failed: %v", err)
		}
		if o.PaymentStatus != PaymentRefunded {
			t.Errorf("payment status = %s, want refunded", o.PaymentStatus)
		}
	})

	t.Run("ship straight from pending", func(t *testing.T) {
		o := NewOrder(id.New(), id.New(), "Ben Okafor")
		if err := o.MarkShipped(now); err != nil {
			t.Fatalf("MarkShipped from pending failed: %v", err)
		}
	})

	t.Run("forbidden moves", func(t *testing.T) {
		tests := []struct {
			name string
			from Status
			move func(*Order) error
		}{
			{"deliver before ship", StatusPending, func(o *Order) error { return o.MarkDelivered(now) }},
			{"refund before delivery", StatusShipped, func(o *Order) error { return o.MarkRefunded() }},
			{"cancel after delivery", StatusDelivered, func(o *Order) error { return o.MarkCancelled() }},
			{"ship a cancelled order", StatusCancelled, func(o *Order) error { return o.MarkShipped(now) }},
			{"process a shipped order", StatusShipped, func(o *Order) error { return o.StartProcessing() }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				o := NewOrder(id.New(), id.New(), "Ben Okafor")
				o.Status = tt.from
				err := tt.move(o)
				appErr, ok := apperror.AsAppError(err)
				if !ok || appErr.Code != apperror.CodeInvalidTransition {
					t.Fatalf("err = %v, want %s", err, apperror.CodeInvalidTransition)
				}
				if o.Status != tt.from {
					t.Errorf("status moved to %s on a rejected transition", o.Status)
				}
			})
		}
	})

	t.Run("cancel allowed until delivery", func(t *testing.T) {
		for _, from := range []Status{StatusPending, StatusProcessing, StatusShipped} {
			o := NewOrder(id.New(), id.New(), "Ben Okafor")
			o.Status = from
			if err := o.MarkCancelled(); err != nil {
				t.Errorf("MarkCancelled from %s failed: %v", from, err)
			}
		}
	})
}

func TestIsShippedOrLater(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusShipped, true},
		{StatusDelivered, true},
		{StatusRefunded, true},
		{StatusCancelled, false},
	}
	for _, tt := range tests {
		o := Order{Status: tt.status}
		if got := o.IsShippedOrLater(); got != tt.want {
			t.Errorf("IsShippedOrLater(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
