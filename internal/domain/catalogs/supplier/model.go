// Package supplier provides the Supplier catalog.
// Suppliers are the counterparties purchases are sourced from.
package supplier

import (
	"context"
	"regexp"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
)

// Pre-compiled regex patterns for validation
var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRE = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
)

// Supplier represents a vendor products are purchased from.
type Supplier struct {
	entity.Catalog

	// ContactPerson is the primary contact name
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// Phone is the primary contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Email is the primary contact email
	Email *string `db:"email" json:"email,omitempty"`

	// Address is the supplier's address
	Address *string `db:"address" json:"address,omitempty"`

	// TaxNumber is the supplier's tax identification
	TaxNumber *string `db:"tax_number" json:"taxNumber,omitempty"`

	// PaymentTermsDays is the agreed invoice payment period
	PaymentTermsDays int `db:"payment_terms_days" json:"paymentTermsDays"`

	// Notes is a free-form comment
	Notes *string `db:"notes" json:"notes,omitempty"`

	// Active marks whether new purchases may target this supplier
	Active bool `db:"active" json:"active"`
}

// NewSupplier creates a new Supplier for the given tenant.
func NewSupplier(tenantID id.ID, code, name string) *Supplier {
	return &Supplier{
		Catalog:          entity.NewCatalog(tenantID, code, name),
		PaymentTermsDays: 30,
		Active:           true,
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.PaymentTermsDays < 0 {
		return apperror.NewValidation("payment terms cannot be negative").
			WithDetail("field", "paymentTermsDays")
	}

	if s.Email != nil && *s.Email != "" && !emailRE.MatchString(*s.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	if s.Phone != nil && *s.Phone != "" && !phoneRE.MatchString(*s.Phone) {
		return apperror.NewValidation("invalid phone format").
			WithDetail("field", "phone")
	}

	return nil
}
