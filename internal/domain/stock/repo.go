package stock

import (
	"context"

	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
)

// Repository persists stock counters.
//
// GetForUpdate takes a row lock (FOR UPDATE) so the before snapshot read
// for the ledger and the counter write cannot interleave with a
// concurrent change. Missing counters materialize as zero rows.
type Repository interface {
	// Get reads the counter without locking.
	Get(ctx context.Context, tenantID id.ID, t Target) (*entity.StockLevel, error)

	// GetForUpdate locks and returns the counter row, inserting a zero
	// row first when none exists. Must run inside a transaction.
	GetForUpdate(ctx context.Context, tenantID id.ID, t Target) (*entity.StockLevel, error)

	// Save persists the counter row and mirrors the quantity onto the
	// product or variant stock_quantity column.
	Save(ctx context.Context, level *entity.StockLevel) error

	// ListByWarehouse returns all counters in a warehouse.
	ListByWarehouse(ctx context.Context, tenantID, warehouseID id.ID) ([]entity.StockLevel, error)

	// ListByProduct returns the counters of one product across warehouses.
	ListByProduct(ctx context.Context, tenantID, productID id.ID) ([]entity.StockLevel, error)

	// TotalOnHand sums a product's counters across warehouses.
	TotalOnHand(ctx context.Context, tenantID, productID id.ID) (types.Quantity, error)
}
