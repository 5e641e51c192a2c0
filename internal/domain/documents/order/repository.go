package order

import (
	"context"
	"time"

	"stoka/internal/core/id"
	"stoka/internal/domain"
)

// Repository defines operations for order documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *Order) error
	GetByID(ctx context.Context, docID id.ID) (*Order, error)
	GetByNumber(ctx context.Context, tenantID id.ID, number string) (*Order, error)
	Update(ctx context.Context, doc *Order) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]OrderItem, error)
	SaveLines(ctx context.Context, docID id.ID, lines []OrderItem) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)

	// GetForUpdate locks the document row for fulfillment transitions.
	GetForUpdate(ctx context.Context, docID id.ID) (*Order, error)
}

// ListFilter for filtering orders.
type ListFilter struct {
	domain.ListFilter

	// Document-specific filters
	WarehouseID   *id.ID
	Status        *Status
	PaymentStatus *PaymentStatus
	CustomerName  string
	DateFrom      *time.Time
	DateTo        *time.Time
}
