package tenants

import (
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// PaymentStatus represents the state of one billing record.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// TenantBillingHistory is an append-only payment record. Records are
// inserted and transitioned, never deleted.
type TenantBillingHistory struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	// Billing period the payment covers
	PeriodStart time.Time `db:"period_start" json:"periodStart"`
	PeriodEnd   time.Time `db:"period_end" json:"periodEnd"`

	Amount   types.Money `db:"amount" json:"amount"`
	Currency string      `db:"currency" json:"currency"`

	// Method is the payment method (card, invoice, ...)
	Method string `db:"method" json:"method"`

	// Reference is the external payment provider reference
	Reference *string `db:"reference" json:"reference,omitempty"`

	Status PaymentStatus `db:"status" json:"status"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	PaidAt    *time.Time `db:"paid_at" json:"paidAt,omitempty"`
}

// NewBillingRecord creates a pending payment record for a period.
func NewBillingRecord(tenantID id.ID, periodStart, periodEnd time.Time, amount types.Money, currency, method string) (*TenantBillingHistory, error) {
	if !periodEnd.After(periodStart) {
		return nil, apperror.NewValidation("billing period end must be after start")
	}
	if amount.IsNegative() {
		return nil, apperror.NewValidation("billing amount cannot be negative").
			WithDetail("field", "amount")
	}
	return &TenantBillingHistory{
		ID:          id.New(),
		TenantID:    tenantID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Amount:      amount,
		Currency:    currency,
		Method:      method,
		Status:      PaymentPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// MarkPaid transitions pending to paid.
func (b *TenantBillingHistory) MarkPaid(reference string) error {
	if b.Status != PaymentPending {
		return apperror.NewInvalidTransition("billing record", string(b.Status), string(PaymentPaid))
	}
	now := time.Now().UTC()
	b.Status = PaymentPaid
	b.PaidAt = &now
	if reference != "" {
		b.Reference = &reference
	}
	return nil
}

// MarkFailed transitions pending to failed.
func (b *TenantBillingHistory) MarkFailed() error {
	if b.Status != PaymentPending {
		return apperror.NewInvalidTransition("billing record", string(b.Status), string(PaymentFailed))
	}
	b.Status = PaymentFailed
	return nil
}

// MarkRefunded transitions paid to refunded.
func (b *TenantBillingHistory) MarkRefunded() error {
	if b.Status != PaymentPaid {
		return apperror.NewInvalidTransition("billing record", string(b.Status), string(PaymentRefunded))
	}
	b.Status = PaymentRefunded
	return nil
}
