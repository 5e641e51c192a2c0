// Package purchase provides the Purchase document and its receiving
// workflow. Goods arrive against confirmed purchases line by line; the
// document status is always derived from the line aggregates.
package purchase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// Status represents the purchase lifecycle state.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPending           Status = "pending"
	StatusConfirmed         Status = "confirmed"
	StatusPartiallyReceived Status = "partially_received"
	StatusCompleted         Status = "completed"
	StatusCancelled         Status = "cancelled"
)

// PaymentStatus tracks supplier payment separately from receiving.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
)

// Purchase represents a purchase order document.
type Purchase struct {
	entity.Document

	// Supplier the goods are ordered from
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// Warehouse the goods are received into
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	Currency string `db:"currency" json:"currency"`

	// Totals (recalculated from lines)
	Subtotal    types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount   types.Money `db:"tax_amount" json:"taxAmount"`
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// AmountPaid drives the payment status
	AmountPaid types.Money `db:"amount_paid" json:"amountPaid"`

	Status        Status        `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	ExpectedDeliveryDate *time.Time `db:"expected_delivery_date" json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time `db:"actual_delivery_date" json:"actualDeliveryDate,omitempty"`

	// Table part: ordered goods
	Lines []PurchaseItem `db:"-" json:"lines"`
}

// PurchaseItem represents one ordered line.
type PurchaseItem struct {
	ID     id.ID `db:"id" json:"id"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	VariantID *id.ID `db:"variant_id" json:"variantId,omitempty"`

	// QuantityReceived grows monotonically and never exceeds ordered
	QuantityOrdered  types.Quantity `db:"quantity_ordered" json:"quantityOrdered"`
	QuantityReceived types.Quantity `db:"quantity_received" json:"quantityReceived"`

	UnitCost  types.Money `db:"unit_cost" json:"unitCost"`
	TotalCost types.Money `db:"total_cost" json:"totalCost"`
}

// Remainder returns the quantity still to be received.
func (i *PurchaseItem) Remainder() types.Quantity {
	return i.QuantityOrdered - i.QuantityReceived
}

// FullyReceived reports whether the line has no remainder.
func (i *PurchaseItem) FullyReceived() bool {
	return i.QuantityReceived >= i.QuantityOrdered
}

// NewPurchase creates a draft purchase for the given tenant.
func NewPurchase(tenantID, supplierID, warehouseID id.ID) *Purchase {
	return &Purchase{
		Document:      entity.NewDocument(tenantID),
		SupplierID:    supplierID,
		WarehouseID:   warehouseID,
		Currency:      "USD",
		Status:        StatusDraft,
		PaymentStatus: PaymentPending,
		Lines:         make([]PurchaseItem, 0),
	}
}

// AddLine appends an ordered line and recalculates totals.
func (p *Purchase) AddLine(productID id.ID, variantID *id.ID, quantity types.Quantity, unitCost types.Money) *PurchaseItem {
	line := PurchaseItem{
		ID:              id.New(),
		LineNo:          len(p.Lines) + 1,
		ProductID:       productID,
		VariantID:       variantID,
		QuantityOrdered: quantity,
		UnitCost:        unitCost,
		TotalCost:       unitCost.Mul(decimal.NewFromFloat(quantity.Float64())),
	}
	p.Lines = append(p.Lines, line)
	p.RecalculateTotals()
	return &p.Lines[len(p.Lines)-1]
}

// RecalculateTotals updates document totals from lines.
func (p *Purchase) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, line := range p.Lines {
		subtotal = subtotal.Add(line.TotalCost)
	}
	p.Subtotal = subtotal
	p.TotalAmount = subtotal.Add(p.TaxAmount)
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if id.IsNil(p.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if len(p.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range p.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.QuantityOrdered.IsPositive() {
			return apperror.NewValidation("ordered quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.QuantityReceived.IsNegative() || line.QuantityReceived > line.QuantityOrdered {
			return apperror.NewValidation("received quantity out of range").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// TotalOrdered sums ordered quantities across lines.
func (p *Purchase) TotalOrdered() types.Quantity {
	var total types.Quantity
	for _, line := range p.Lines {
		total += line.QuantityOrdered
	}
	return total
}

// TotalReceived sums received quantities across lines.
func (p *Purchase) TotalReceived() types.Quantity {
	var total types.Quantity
	for _, line := range p.Lines {
		total += line.QuantityReceived
	}
	return total
}

// HasReceipts reports whether any quantity has been received.
func (p *Purchase) HasReceipts() bool {
	return p.TotalReceived().IsPositive()
}

// CanReceiveItems reports whether receiving is allowed in the current
// status.
func (p *Purchase) CanReceiveItems() bool {
	return p.Status == StatusConfirmed || p.Status == StatusPartiallyReceived
}

// CanModify reports whether lines may still be edited.
func (p *Purchase) CanModify() bool {
	return (p.Status == StatusDraft || p.Status == StatusPending) && !p.HasReceipts()
}

// Submit moves a draft to pending.
func (p *Purchase) Submit() error {
	if p.Status != StatusDraft {
		return apperror.NewInvalidTransition("purchase", string(p.Status), string(StatusPending))
	}
	p.Status = StatusPending
	return nil
}

// Confirm makes the purchase receivable.
func (p *Purchase) Confirm() error {
	switch p.Status {
	case StatusDraft, StatusPending:
	default:
		return apperror.NewInvalidTransition("purchase", string(p.Status), string(StatusConfirmed))
	}
	p.Status = StatusConfirmed
	return nil
}

// Cancel aborts the purchase. Barred once any quantity was received;
// received goods are corrected through adjustments, not cancellation.
func (p *Purchase) Cancel() error {
	if p.HasReceipts() {
		return apperror.NewBusinessRule("PURCHASE_HAS_RECEIPTS",
			"cannot cancel a purchase with received goods")
	}
	switch p.Status {
	case StatusDraft, StatusPending, StatusConfirmed:
	default:
		return apperror.NewInvalidTransition("purchase", string(p.Status), string(StatusCancelled))
	}
	p.Status = StatusCancelled
	return nil
}

// RecomputeStatus derives the receiving status from line aggregates.
// Completed is sticky: the status never downgrades from it, and the only
// downgrade at all is partially_received back to confirmed when every
// receipt was undone.
func (p *Purchase) RecomputeStatus(now time.Time) {
	if p.Status == StatusCompleted || !p.CanReceiveItems() {
		return
	}

	ordered := p.TotalOrdered()
	received := p.TotalReceived()

	switch {
	case received.IsZero():
		if p.Status == StatusPartiallyReceived {
			p.Status = StatusConfirmed
		}
	case received < ordered:
		p.Status = StatusPartiallyReceived
	default:
		p.Status = StatusCompleted
		if p.ActualDeliveryDate == nil {
			stamp := now.UTC()
			p.ActualDeliveryDate = &stamp
		}
	}
}

// RecordPayment adds a paid amount and derives the payment status.
func (p *Purchase) RecordPayment(amount types.Money) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("amount", amount.String())
	}
	p.AmountPaid = p.AmountPaid.Add(amount)
	p.recomputePaymentStatus()
	return nil
}

// MarkPaid settles the document in full.
func (p *Purchase) MarkPaid() {
	p.AmountPaid = p.TotalAmount
	p.PaymentStatus = PaymentPaid
}

func (p *Purchase) recomputePaymentStatus() {
	switch {
	case p.AmountPaid.IsZero() || p.AmountPaid.IsNegative():
		p.PaymentStatus = PaymentPending
	case p.AmountPaid.LessThan(p.TotalAmount):
		p.PaymentStatus = PaymentPartiallyPaid
	default:
		p.PaymentStatus = PaymentPaid
	}
}

// FindLine locates a line by its id.
func (p *Purchase) FindLine(itemID id.ID) *PurchaseItem {
	for i := range p.Lines {
		if p.Lines[i].ID == itemID {
			return &p.Lines[i]
		}
	}
	return nil
}
