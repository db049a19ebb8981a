package expense

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/id"
	"gespro/internal/domain"
)

// Repository defines operations for expenses.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, expenseID id.ID) (*Expense, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, expenseID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error)

	// TotalForPeriod sums expense amounts in [from, to).
	TotalForPeriod(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// ListFilter for filtering expenses.
type ListFilter struct {
	domain.ListFilter

	Category *string
	DateFrom *time.Time
	DateTo   *time.Time
}
