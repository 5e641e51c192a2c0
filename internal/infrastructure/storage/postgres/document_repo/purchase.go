package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stoka/internal/core/id"
	"stoka/internal/domain"
	"stoka/internal/domain/documents/purchase"
	"stoka/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable     = "doc_purchases"
	purchaseLinesTable = "doc_purchase_lines"
)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Purchase]
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*purchase.Purchase](
			txManager,
			purchasesTable,
			postgres.ExtractDBColumns[purchase.Purchase](),
			func() *purchase.Purchase { return &purchase.Purchase{} },
		),
	}
}

// GetLines retrieves the purchase lines ordered by line number.
func (r *PurchaseRepo) GetLines(ctx context.Context, docID id.ID) ([]purchase.PurchaseItem, error) {
	q := r.Builder().
		Select(
			"id", "line_no", "product_id", "variant_id",
			"quantity_ordered", "quantity_received", "unit_cost", "total_cost",
		).
		From(purchaseLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchase.PurchaseItem
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get purchase lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces the purchase lines (delete existing + insert new).
func (r *PurchaseRepo) SaveLines(ctx context.Context, docID id.ID, lines []purchase.PurchaseItem) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + purchaseLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(purchaseLinesTable).
		Columns(
			"id", "document_id", "line_no", "product_id", "variant_id",
			"quantity_ordered", "quantity_received", "unit_cost", "total_cost",
		)

	for _, line := range lines {
		q = q.Values(
			line.ID, docID, line.LineNo, line.ProductID, line.VariantID,
			line.QuantityOrdered, line.QuantityReceived, line.UnitCost, line.TotalCost,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// UpdateLine persists one line's received quantity. Used by the receiving
// transaction so untouched lines keep their rows.
func (r *PurchaseRepo) UpdateLine(ctx context.Context, docID id.ID, line *purchase.PurchaseItem) error {
	q := r.Builder().
		Update(purchaseLinesTable).
		Set("quantity_received", line.QuantityReceived).
		Where(squirrel.Eq{"document_id": docID}).
		Where(squirrel.Eq{"id": line.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update line: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase line: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("purchase line %s not found", line.ID)
	}

	return nil
}

// List retrieves purchases with document-specific filtering.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	extra := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.SupplierID != nil {
			q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
		}
		if filter.WarehouseID != nil {
			q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
		}
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.PaymentStatus != nil {
			q = q.Where(squirrel.Eq{"payment_status": *filter.PaymentStatus})
		}
		if filter.DateFrom != nil {
			q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
		}
		if filter.DateTo != nil {
			q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
		}
		return q
	}

	return r.listWith(ctx, filter.ListFilter, extra)
}

var _ purchase.Repository = (*PurchaseRepo)(nil)
