// Package register_repo provides PostgreSQL implementations for the
// inventory ledger and its denormalized stock counters.
// The database is shared across tenants; every query is scoped by tenant_id.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stoka/internal/core/apperror"
	"stoka/internal/core/entity"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
	"stoka/internal/domain/ledger"
	"stoka/internal/infrastructure/storage/postgres"
)

const movementsTable = "reg_stock_movements"

var movementColumns = []string{
	"id", "tenant_id", "warehouse_id", "product_id", "variant_id",
	"movement_type", "quantity_before", "quantity_change", "quantity_after",
	"reference_kind", "reference_id", "note", "created_by", "created_at",
}

// LedgerRepo implements ledger.Repository. Rows are append-only: the repo
// exposes no update and no delete.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *LedgerRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Insert appends one movement.
func (r *LedgerRepo) Insert(ctx context.Context, m *entity.Movement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.TenantID, m.WarehouseID, m.ProductID, m.VariantID,
			m.Type, m.QuantityBefore, m.QuantityChange, m.QuantityAfter,
			m.ReferenceKind, m.ReferenceID, m.Note, m.CreatedBy, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// InsertBatch appends many movements. Uses COPY when inside a transaction.
func (r *LedgerRepo) InsertBatch(ctx context.Context, ms []entity.Movement) error {
	if len(ms) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(ms))
		for _, m := range ms {
			rows = append(rows, []any{
				m.ID, m.TenantID, m.WarehouseID, m.ProductID, m.VariantID,
				m.Type, m.QuantityBefore, m.QuantityChange, m.QuantityAfter,
				m.ReferenceKind, m.ReferenceID, m.Note, m.CreatedBy, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, m := range ms {
		q = q.Values(
			m.ID, m.TenantID, m.WarehouseID, m.ProductID, m.VariantID,
			m.Type, m.QuantityBefore, m.QuantityChange, m.QuantityAfter,
			m.ReferenceKind, m.ReferenceID, m.Note, m.CreatedBy, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// GetByID retrieves a movement within a tenant.
func (r *LedgerRepo) GetByID(ctx context.Context, tenantID, movementID id.ID) (*entity.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"id": movementID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m entity.Movement
	if err := pgxscan.Get(ctx, r.querier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID.String())
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}

	return &m, nil
}

// HasReversal reports whether a reversal referencing the movement exists.
func (r *LedgerRepo) HasReversal(ctx context.Context, tenantID, movementID id.ID) (bool, error) {
	q := r.builder.Select("1").
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"reference_kind": entity.ReferenceReversal}).
		Where(squirrel.Eq{"reference_id": movementID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has reversal: %w", err)
	}

	return true, nil
}

// List retrieves history ordered by created_at descending.
func (r *LedgerRepo) List(ctx context.Context, f ledger.HistoryFilter) ([]entity.Movement, error) {
	if id.IsNil(f.TenantID) {
		return nil, apperror.NewValidation("tenant is required").WithDetail("field", "tenantId")
	}

	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": f.TenantID})

	if f.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *f.WarehouseID})
	}
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.VariantID != nil {
		q = q.Where(squirrel.Eq{"variant_id": *f.VariantID})
	}
	if len(f.Types) > 0 {
		q = q.Where(squirrel.Eq{"movement_type": f.Types})
	}
	switch f.Direction {
	case ledger.DirectionInbound:
		q = q.Where(squirrel.Gt{"quantity_change": 0})
	case ledger.DirectionOutbound:
		q = q.Where(squirrel.Lt{"quantity_change": 0})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *f.To})
	}

	q = q.OrderBy("created_at DESC", "id DESC")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.Movement
	if err := pgxscan.Select(ctx, r.querier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// SumChange sums quantity_change for the dimension up to the given instant.
func (r *LedgerRepo) SumChange(ctx context.Context, tenantID, warehouseID, productID id.ID, variantID *id.ID, until time.Time) (types.Quantity, error) {
	q := r.builder.Select("COALESCE(SUM(quantity_change), 0)").
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.LtOrEq{"created_at": until})

	if variantID != nil {
		q = q.Where(squirrel.Eq{"variant_id": *variantID})
	} else {
		q = q.Where("variant_id IS NULL")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sumScaled int64
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&sumScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum changes: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(sumScaled), nil
}

var _ ledger.Repository = (*LedgerRepo)(nil)
