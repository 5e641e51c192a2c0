package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stoka/internal/core/id"
	"stoka/internal/domain"
	"stoka/internal/domain/documents/order"
	"stoka/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "doc_orders"
	orderLinesTable = "doc_order_lines"
)

// OrderRepo implements order.Repository.
type OrderRepo struct {
	*BaseDocumentRepo[*order.Order]
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*order.Order](
			txManager,
			ordersTable,
			postgres.ExtractDBColumns[order.Order](),
			func() *order.Order { return &order.Order{} },
		),
	}
}

// GetLines retrieves the order lines ordered by line number.
func (r *OrderRepo) GetLines(ctx context.Context, docID id.ID) ([]order.OrderItem, error) {
	q := r.Builder().
		Select(
			"id", "line_no", "product_id", "variant_id",
			"quantity", "unit_price", "total",
		).
		From(orderLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []order.OrderItem
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces the order lines (delete existing + insert new).
func (r *OrderRepo) SaveLines(ctx context.Context, docID id.ID, lines []order.OrderItem) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + orderLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(orderLinesTable).
		Columns(
			"id", "document_id", "line_no", "product_id", "variant_id",
			"quantity", "unit_price", "total",
		)

	for _, line := range lines {
		q = q.Values(
			line.ID, docID, line.LineNo, line.ProductID, line.VariantID,
			line.Quantity, line.UnitPrice, line.Total,
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

// List retrieves orders with document-specific filtering.
func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) (domain.ListResult[*order.Order], error) {
	extra := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.WarehouseID != nil {
			q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
		}
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.PaymentStatus != nil {
			q = q.Where(squirrel.Eq{"payment_status": *filter.PaymentStatus})
		}
		if filter.CustomerName != "" {
			q = q.Where(squirrel.ILike{"customer_name": "%" + filter.CustomerName + "%"})
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

var _ order.Repository = (*OrderRepo)(nil)
