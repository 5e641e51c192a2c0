package purchase

import (
	"context"
	"time"

	"stoka/internal/core/id"
	"stoka/internal/domain"
)

// Repository defines operations for purchase documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *Purchase) error
	GetByID(ctx context.Context, docID id.ID) (*Purchase, error)
	GetByNumber(ctx context.Context, tenantID id.ID, number string) (*Purchase, error)
	Update(ctx context.Context, doc *Purchase) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]PurchaseItem, error)
	SaveLines(ctx context.Context, docID id.ID, lines []PurchaseItem) error
	UpdateLine(ctx context.Context, docID id.ID, line *PurchaseItem) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error)

	// GetForUpdate locks the document row for the receiving transaction.
	GetForUpdate(ctx context.Context, docID id.ID) (*Purchase, error)
}

// ListFilter for filtering purchases.
type ListFilter struct {
	domain.ListFilter

	// Document-specific filters
	SupplierID    *id.ID
	WarehouseID   *id.ID
	Status        *Status
	PaymentStatus *PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}
