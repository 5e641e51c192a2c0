// Package expense provides the Expense document and its approval
// workflow.
package expense

import (
	"context"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// Status represents the approval state of an expense.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

// Expense represents a business expense awaiting approval.
type Expense struct {
	entity.Document

	// Category classifies the expense (rent, utilities, transport...)
	Category string `db:"category" json:"category"`

	Amount   types.Money `db:"amount" json:"amount"`
	Currency string      `db:"currency" json:"currency"`

	// IncurredAt is the date the cost was incurred, distinct from the
	// document date
	IncurredAt time.Time `db:"incurred_at" json:"incurredAt"`

	// ReceiptRef points at the stored receipt, if any
	ReceiptRef *string `db:"receipt_ref" json:"receiptRef,omitempty"`

	Status Status `db:"status" json:"status"`

	// Approval decision
	ApproverID      *id.ID     `db:"approver_id" json:"approverId,omitempty"`
	DecidedAt       *time.Time `db:"decided_at" json:"decidedAt,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejectionReason,omitempty"`

	PaidAt *time.Time `db:"paid_at" json:"paidAt,omitempty"`
}

// NewExpense creates a pending expense for the given tenant.
func NewExpense(tenantID id.ID, category string, amount types.Money, incurredAt time.Time) *Expense {
	return &Expense{
		Document:   entity.NewDocument(tenantID),
		Category:   category,
		Amount:     amount,
		Currency:   "USD",
		IncurredAt: incurredAt,
		Status:     StatusPending,
	}
}

// Validate implements entity.Validatable.
func (e *Expense) Validate(ctx context.Context) error {
	if err := e.Document.Validate(ctx); err != nil {
		return err
	}

	if e.Category == "" {
		return apperror.NewValidation("category is required").
			WithDetail("field", "category")
	}
	if !e.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if e.IncurredAt.IsZero() {
		return apperror.NewValidation("incurred date is required").
			WithDetail("field", "incurredAt")
	}

	return nil
}

// Approve transitions pending to approved and records the decision.
func (e *Expense) Approve(approverID id.ID, now time.Time) error {
	if e.Status != StatusPending {
		return apperror.NewInvalidTransition("expense", string(e.Status), string(StatusApproved))
	}
	stamp := now.UTC()
	e.Status = StatusApproved
	e.ApproverID = &approverID
	e.DecidedAt = &stamp
	e.RejectionReason = nil
	return nil
}

// Reject transitions pending to rejected with a mandatory reason.
func (e *Expense) Reject(approverID id.ID, reason string, now time.Time) error {
	if e.Status != StatusPending {
		return apperror.NewInvalidTransition("expense", string(e.Status), string(StatusRejected))
	}
	if reason == "" {
		return apperror.NewValidation("rejection reason is required").
			WithDetail("field", "reason")
	}
	stamp := now.UTC()
	e.Status = StatusRejected
	e.ApproverID = &approverID
	e.DecidedAt = &stamp
	e.RejectionReason = &reason
	return nil
}

// MarkPaid transitions approved to paid.
func (e *Expense) MarkPaid(now time.Time) error {
	if e.Status != StatusApproved {
		return apperror.NewInvalidTransition("expense", string(e.Status), string(StatusPaid))
	}
	stamp := now.UTC()
	e.Status = StatusPaid
	e.PaidAt = &stamp
	return nil
}

// IsDecided reports whether an approver has ruled on the expense.
func (e *Expense) IsDecided() bool {
	return e.Status != StatusPending
}
