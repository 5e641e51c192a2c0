package entity

import (
	"context"
	"time"

	"stoka/internal/core/apperror"
	"stoka/internal/core/id"
)

// Document is the base type for business transactions.
// Examples: PurchaseOrder, SalesOrder, Expense.
type Document struct {
	BaseDocument
	TenantScoped

	// Number is the document number (auto-generated, unique within type+tenant)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document owned by the given tenant.
func NewDocument(tenantID id.ID) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		TenantScoped: TenantScoped{TenantID: tenantID},
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.ValidateTenant(ctx); err != nil {
		return err
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// GetID returns the document ID (Recorder interface).
func (d *Document) GetID() id.ID {
	return d.ID
}
