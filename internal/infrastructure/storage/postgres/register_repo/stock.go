package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
	"stoka/internal/domain/ledger"
	"stoka/internal/domain/stock"
	"stoka/internal/infrastructure/storage/postgres"
)

const stockLevelsTable = "reg_stock_levels"

var stockLevelColumns = []string{
	"tenant_id", "warehouse_id", "product_id", "variant_id",
	"quantity", "last_movement_at", "updated_at",
}

// StockRepo implements stock.Repository and ledger.CounterStore over the
// denormalized counter table. The ledger stays the source of truth; these
// rows are maintained in the same transaction as every ledger append.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock counter repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StockRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *StockRepo) targetConds(q squirrel.SelectBuilder, tenantID id.ID, t stock.Target) squirrel.SelectBuilder {
	q = q.Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"warehouse_id": t.WarehouseID}).
		Where(squirrel.Eq{"product_id": t.ProductID})
	if t.VariantID != nil {
		q = q.Where(squirrel.Eq{"variant_id": *t.VariantID})
	} else {
		q = q.Where("variant_id IS NULL")
	}
	return q
}

// Get reads the counter without locking. Missing counters come back as
// zero rows.
func (r *StockRepo) Get(ctx context.Context, tenantID id.ID, t stock.Target) (*entity.StockLevel, error) {
	q := r.targetConds(r.builder.Select(stockLevelColumns...).From(stockLevelsTable), tenantID, t).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var level entity.StockLevel
	if err := pgxscan.Get(ctx, r.querier(ctx), &level, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return r.zeroLevel(tenantID, t), nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}

	return &level, nil
}

// GetForUpdate locks and returns the counter row, inserting a zero row
// first when none exists. Must run inside a transaction.
func (r *StockRepo) GetForUpdate(ctx context.Context, tenantID id.ID, t stock.Target) (*entity.StockLevel, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("GetForUpdate requires transaction context")
	}

	if err := r.materialize(ctx, tenantID, t); err != nil {
		return nil, err
	}

	q := r.targetConds(r.builder.Select(stockLevelColumns...).From(stockLevelsTable), tenantID, t).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var level entity.StockLevel
	if err := pgxscan.Get(ctx, r.querier(ctx), &level, sql, args...); err != nil {
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}

	return &level, nil
}

// Save persists the counter row and mirrors the quantity onto the product
// or variant stock_quantity column.
func (r *StockRepo) Save(ctx context.Context, level *entity.StockLevel) error {
	sql := saveStockLevelSQL(level.VariantID != nil)

	_, err := r.querier(ctx).Exec(ctx, sql,
		level.TenantID, level.WarehouseID, level.ProductID, level.VariantID,
		level.Quantity, level.LastMovementAt,
	)
	if err != nil {
		return fmt.Errorf("save stock level: %w", err)
	}

	return r.mirror(ctx, level)
}

// saveStockLevelSQL builds the counter upsert. Two partial unique indexes
// back the conflict targets, one per variant dimension:
//
//	reg_stock_levels_product_key ON reg_stock_levels (tenant_id, warehouse_id, product_id) WHERE variant_id IS NULL
//	reg_stock_levels_variant_key ON reg_stock_levels (tenant_id, warehouse_id, product_id, variant_id) WHERE variant_id IS NOT NULL
func saveStockLevelSQL(hasVariant bool) string {
	conflict := "ON CONFLICT (tenant_id, warehouse_id, product_id) WHERE variant_id IS NULL"
	if hasVariant {
		conflict = "ON CONFLICT (tenant_id, warehouse_id, product_id, variant_id) WHERE variant_id IS NOT NULL"
	}

	return `
		INSERT INTO reg_stock_levels (
			tenant_id, warehouse_id, product_id, variant_id,
			quantity, last_movement_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		` + conflict + `
		DO UPDATE SET
			quantity = EXCLUDED.quantity,
			last_movement_at = EXCLUDED.last_movement_at,
			updated_at = NOW()
	`
}

// ListByWarehouse returns all counters in a warehouse.
func (r *StockRepo) ListByWarehouse(ctx context.Context, tenantID, warehouseID id.ID) ([]entity.StockLevel, error) {
	q := r.builder.Select(stockLevelColumns...).
		From(stockLevelsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		OrderBy("product_id", "variant_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []entity.StockLevel
	if err := pgxscan.Select(ctx, r.querier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock levels: %w", err)
	}

	return levels, nil
}

// ListByProduct returns the counters of one product across warehouses.
func (r *StockRepo) ListByProduct(ctx context.Context, tenantID, productID id.ID) ([]entity.StockLevel, error) {
	q := r.builder.Select(stockLevelColumns...).
		From(stockLevelsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("warehouse_id", "variant_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []entity.StockLevel
	if err := pgxscan.Select(ctx, r.querier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock levels: %w", err)
	}

	return levels, nil
}

// TotalOnHand sums a product's counters across warehouses.
func (r *StockRepo) TotalOnHand(ctx context.Context, tenantID, productID id.ID) (types.Quantity, error) {
	q := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(stockLevelsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var totalScaled int64
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&totalScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum on hand: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(totalScaled), nil
}

// ApplyDelta locks the counter row, applies the signed delta with a clamp
// at zero and returns the quantity before the change. Used by the ledger
// when a reversal moves the counter in the same transaction.
func (r *StockRepo) ApplyDelta(ctx context.Context, tenantID, warehouseID, productID id.ID, variantID *id.ID, delta types.Quantity) (types.Quantity, error) {
	t := stock.Target{WarehouseID: warehouseID, ProductID: productID, VariantID: variantID}

	level, err := r.GetForUpdate(ctx, tenantID, t)
	if err != nil {
		return 0, err
	}

	before := level.Quantity
	after := before + delta
	if after < 0 {
		after = 0
	}

	level.Quantity = after
	level.LastMovementAt = time.Now().UTC()

	if err := r.Save(ctx, level); err != nil {
		return 0, err
	}

	return before, nil
}

// materialize inserts a zero counter row when none exists yet.
func (r *StockRepo) materialize(ctx context.Context, tenantID id.ID, t stock.Target) error {
	sql := `
		INSERT INTO reg_stock_levels (
			tenant_id, warehouse_id, product_id, variant_id,
			quantity, last_movement_at, updated_at
		) VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
		ON CONFLICT DO NOTHING
	`

	if _, err := r.querier(ctx).Exec(ctx, sql, tenantID, t.WarehouseID, t.ProductID, t.VariantID); err != nil {
		return fmt.Errorf("materialize stock level: %w", err)
	}

	return nil
}

// mirror copies the counter onto the catalog row for cheap list reads.
func (r *StockRepo) mirror(ctx context.Context, level *entity.StockLevel) error {
	if level.VariantID != nil {
		sql := `
			UPDATE cat_product_variants v SET stock_quantity = (
				SELECT COALESCE(SUM(quantity), 0) FROM reg_stock_levels
				WHERE tenant_id = $1 AND variant_id = $2
			)
			WHERE v.id = $2
		`
		if _, err := r.querier(ctx).Exec(ctx, sql, level.TenantID, *level.VariantID); err != nil {
			return fmt.Errorf("mirror variant stock: %w", err)
		}
		return nil
	}

	sql := `
		UPDATE cat_products p SET stock_quantity = (
			SELECT COALESCE(SUM(quantity), 0) FROM reg_stock_levels
			WHERE tenant_id = $1 AND product_id = $2
		)
		WHERE p.id = $2
	`
	if _, err := r.querier(ctx).Exec(ctx, sql, level.TenantID, level.ProductID); err != nil {
		return fmt.Errorf("mirror product stock: %w", err)
	}
	return nil
}

func (r *StockRepo) zeroLevel(tenantID id.ID, t stock.Target) *entity.StockLevel {
	return &entity.StockLevel{
		TenantID:    tenantID,
		WarehouseID: t.WarehouseID,
		ProductID:   t.ProductID,
		VariantID:   t.VariantID,
	}
}

var (
	_ stock.Repository    = (*StockRepo)(nil)
	_ ledger.CounterStore = (*StockRepo)(nil)
)
