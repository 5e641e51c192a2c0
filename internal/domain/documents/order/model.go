// Package order provides the sales Order document and its fulfillment
// workflow. Shipping consumes stock through sale movements; cancelling a
// shipped order restocks through return movements.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// Status represents the order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// PaymentStatus tracks customer payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Order represents a customer sales order.
type Order struct {
	entity.Document

	// Warehouse or shop the order ships from
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Customer contact fields
	CustomerName  string  `db:"customer_name" json:"customerName"`
	CustomerEmail *string `db:"customer_email" json:"customerEmail,omitempty"`
	CustomerPhone *string `db:"customer_phone" json:"customerPhone,omitempty"`
	ShippingAddr  *string `db:"shipping_addr" json:"shippingAddr,omitempty"`

	Currency string `db:"currency" json:"currency"`

	Subtotal    types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount   types.Money `db:"tax_amount" json:"taxAmount"`
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	Status        Status        `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	ShippedAt   *time.Time `db:"shipped_at" json:"shippedAt,omitempty"`
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`

	// Table part: ordered goods
	Lines []OrderItem `db:"-" json:"lines"`
}

// OrderItem represents one ordered line.
type OrderItem struct {
	ID     id.ID `db:"id" json:"id"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	VariantID *id.ID `db:"variant_id" json:"variantId,omitempty"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Total     types.Money    `db:"total" json:"total"`
}

// NewOrder creates a pending order for the given tenant.
func NewOrder(tenantID, warehouseID id.ID, customerName string) *Order {
	return &Order{
		Document:      entity.NewDocument(tenantID),
		WarehouseID:   warehouseID,
		CustomerName:  customerName,
		Currency:      "USD",
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Lines:         make([]OrderItem, 0),
	}
}

// AddLine appends an order line and recalculates totals.
func (o *Order) AddLine(productID id.ID, variantID *id.ID, quantity types.Quantity, unitPrice types.Money) *OrderItem {
	line := OrderItem{
		ID:        id.New(),
		LineNo:    len(o.Lines) + 1,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     unitPrice.Mul(decimal.NewFromFloat(quantity.Float64())),
	}
	o.Lines = append(o.Lines, line)
	o.RecalculateTotals()
	return &o.Lines[len(o.Lines)-1]
}

// RecalculateTotals updates document totals from lines.
func (o *Order) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, line := range o.Lines {
		subtotal = subtotal.Add(line.Total)
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal.Add(o.TaxAmount)
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if o.CustomerName == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "customerName")
	}
	if len(o.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range o.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// IsShippedOrLater reports whether stock already left the warehouse.
func (o *Order) IsShippedOrLater() bool {
	return o.Status == StatusShipped || o.Status == StatusDelivered || o.Status == StatusRefunded
}

// StartProcessing moves a pending order to processing.
func (o *Order) StartProcessing() error {
	if o.Status != StatusPending {
		return apperror.NewInvalidTransition("order", string(o.Status), string(StatusProcessing))
	}
	o.Status = StatusProcessing
	return nil
}

// MarkShipped transitions to shipped and stamps shipped_at. The stock
// side effects live in the service.
func (o *Order) MarkShipped(now time.Time) error {
	switch o.Status {
	case StatusPending, StatusProcessing:
	default:
		return apperror.NewInvalidTransition("order", string(o.Status), string(StatusShipped))
	}
	o.Status = StatusShipped
	stamp := now.UTC()
	o.ShippedAt = &stamp
	return nil
}

// MarkDelivered transitions shipped to delivered.
func (o *Order) MarkDelivered(now time.Time) error {
	if o.Status != StatusShipped {
		return apperror.NewInvalidTransition("order", string(o.Status), string(StatusDelivered))
	}
	o.Status = StatusDelivered
	stamp := now.UTC()
	o.DeliveredAt = &stamp
	return nil
}

// MarkCancelled aborts the order. Allowed until delivery.
func (o *Order) MarkCancelled() error {
	switch o.Status {
	case StatusPending, StatusProcessing, StatusShipped:
	default:
		return apperror.NewInvalidTransition("order", string(o.Status), string(StatusCancelled))
	}
	o.Status = StatusCancelled
	return nil
}

// MarkRefunded refunds a delivered order.
func (o *Order) MarkRefunded() error {
	if o.Status != StatusDelivered {
		return apperror.NewInvalidTransition("order", string(o.Status), string(StatusRefunded))
	}
	o.Status = StatusRefunded
	o.PaymentStatus = PaymentRefunded
	return nil
}

// MarkPaid settles the customer payment.
func (o *Order) MarkPaid() {
	o.PaymentStatus = PaymentPaid
}
