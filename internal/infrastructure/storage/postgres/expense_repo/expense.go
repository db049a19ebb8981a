// Package expense_repo provides the PostgreSQL expense repository.
package expense_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"gespro/internal/core/appctx"
	"gespro/internal/domain"
	"gespro/internal/domain/expense"
	"gespro/internal/infrastructure/storage/postgres"
	"gespro/internal/infrastructure/storage/postgres/document_repo"
)

const expensesTable = "doc_expenses"

// ExpenseRepo implements expense.Repository.
type ExpenseRepo struct {
	*document_repo.BaseDocumentRepo[*expense.Expense]
}

// NewExpenseRepo creates a new expense repository.
func NewExpenseRepo(txManager *postgres.TxManager) *ExpenseRepo {
	return &ExpenseRepo{
		BaseDocumentRepo: document_repo.NewBaseDocumentRepo(
			txManager,
			expensesTable,
			postgres.ExtractDBColumns[expense.Expense](),
			func() *expense.Expense { return &expense.Expense{} },
		),
	}
}

// List retrieves expenses with filtering.
func (r *ExpenseRepo) List(ctx context.Context, filter expense.ListFilter) (domain.ListResult[*expense.Expense], error) {
	result := domain.ListResult[*expense.Expense]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Select(ctx)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"category": *filter.Category})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"expense_date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"expense_date": *filter.DateTo})
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"label": pattern},
			squirrel.ILike{"category": pattern},
		})
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "-expense_date"
	}
	return r.FinishList(ctx, q, result, orderBy)
}

// TotalForPeriod sums expense amounts in [from, to).
func (r *ExpenseRepo) TotalForPeriod(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	q := r.Builder().
		Select("COALESCE(SUM(amount), 0)").
		From(expensesTable).
		Where(squirrel.Eq{"owner_id": appctx.GetUserID(ctx)}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.GtOrEq{"expense_date": from}).
		Where(squirrel.Lt{"expense_date": to})

	sql, args, err := q.ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build query: %w", err)
	}

	var total decimal.Decimal
	if err := r.TxManager().GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("total for period: %w", err)
	}

	return total, nil
}
