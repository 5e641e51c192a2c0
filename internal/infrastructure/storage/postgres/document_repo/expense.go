package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stoka/internal/domain"
	"stoka/internal/domain/documents/expense"
	"stoka/internal/infrastructure/storage/postgres"
)

const expensesTable = "doc_expenses"

// ExpenseRepo implements expense.Repository.
type ExpenseRepo struct {
	*BaseDocumentRepo[*expense.Expense]
}

// NewExpenseRepo creates a new expense repository.
func NewExpenseRepo(txManager *postgres.TxManager) *ExpenseRepo {
	return &ExpenseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*expense.Expense](
			txManager,
			expensesTable,
			postgres.ExtractDBColumns[expense.Expense](),
			func() *expense.Expense { return &expense.Expense{} },
		),
	}
}

// List retrieves expenses with document-specific filtering.
func (r *ExpenseRepo) List(ctx context.Context, filter expense.ListFilter) (domain.ListResult[*expense.Expense], error) {
	extra := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.Category != "" {
			q = q.Where(squirrel.Eq{"category": filter.Category})
		}
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.ApproverID != nil {
			q = q.Where(squirrel.Eq{"approver_id": *filter.ApproverID})
		}
		if filter.DateFrom != nil {
			q = q.Where(squirrel.GtOrEq{"incurred_at": *filter.DateFrom})
		}
		if filter.DateTo != nil {
			q = q.Where(squirrel.LtOrEq{"incurred_at": *filter.DateTo})
		}
		return q
	}

	return r.listWith(ctx, filter.ListFilter, extra)
}

var _ expense.Repository = (*ExpenseRepo)(nil)
