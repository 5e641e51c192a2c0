package ledger

import (
	"context"
	"time"

	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// Direction filters movement history by the sign of the change.
type Direction string

const (
	DirectionAll      Direction = ""
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// HistoryFilter selects a slice of the ledger.
type HistoryFilter struct {
	// TenantID scopes the query; mandatory
	TenantID id.ID

	WarehouseID *id.ID
	ProductID   *id.ID
	VariantID   *id.ID

	Types     []entity.MovementType
	Direction Direction

	From *time.Time
	To   *time.Time

	Limit  int
	Offset int
}

// Repository persists ledger rows. Append-only: no update, no delete.
type Repository interface {
	// Insert appends one movement.
	Insert(ctx context.Context, m *entity.Movement) error

	// InsertBatch appends many movements (COPY under the hood).
	InsertBatch(ctx context.Context, ms []entity.Movement) error

	// GetByID retrieves a movement within a tenant.
	GetByID(ctx context.Context, tenantID, movementID id.ID) (*entity.Movement, error)

	// HasReversal reports whether a reversal referencing the movement exists.
	HasReversal(ctx context.Context, tenantID, movementID id.ID) (bool, error)

	// List retrieves history ordered by created_at descending.
	List(ctx context.Context, f HistoryFilter) ([]entity.Movement, error)

	// SumChange sums quantity_change for the dimension up to the given
	// instant. Used for running balance reconstruction.
	SumChange(ctx context.Context, tenantID, warehouseID, productID id.ID, variantID *id.ID, until time.Time) (types.Quantity, error)
}

// CounterStore applies deltas to the denormalized stock counter.
// Implemented by the stock repository; the ledger uses it when a
// reversal has to move the counter in the same transaction.
type CounterStore interface {
	// ApplyDelta locks the counter row, applies the signed delta with a
	// clamp at zero and returns the quantity before the change.
	ApplyDelta(ctx context.Context, tenantID, warehouseID, productID id.ID, variantID *id.ID, delta types.Quantity) (types.Quantity, error)
}
