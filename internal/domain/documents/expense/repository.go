package expense

import (
	"context"
	"time"

	"stoka/internal/core/id"
	"stoka/internal/domain"
)

// Repository defines operations for expense documents.
type Repository interface {
	Create(ctx context.Context, doc *Expense) error
	GetByID(ctx context.Context, docID id.ID) (*Expense, error)
	Update(ctx context.Context, doc *Expense) error
	Delete(ctx context.Context, docID id.ID) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error)
}

// ListFilter for filtering expenses.
type ListFilter struct {
	domain.ListFilter

	Category   string
	Status     *Status
	ApproverID *id.ID
	DateFrom   *time.Time
	DateTo     *time.Time
}
