package expense

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain"
)

type memRepo struct {
	expenses map[id.ID]*Expense
}

func newMemRepo() *memRepo {
	return &memRepo{expenses: make(map[id.ID]*Expense)}
}

func (r *memRepo) Create(ctx context.Context, e *Expense) error {
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, expenseID id.ID) (*Expense, error) {
	e, ok := r.expenses[expenseID]
	if !ok {
		return nil, apperror.NewNotFound("expense", expenseID)
	}
	cp := *e
	return &cp, nil
}

func (r *memRepo) Update(ctx context.Context, e *Expense) error {
	if _, ok := r.expenses[e.ID]; !ok {
		return apperror.NewNotFound("expense", e.ID)
	}
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *memRepo) Delete(ctx context.Context, expenseID id.ID) error {
	e, ok := r.expenses[expenseID]
	if !ok {
		return apperror.NewNotFound("expense", expenseID)
	}
	e.DeletionMark = true
	return nil
}

func (r *memRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error) {
	result := domain.ListResult[*Expense]{Limit: filter.Limit, Offset: filter.Offset}
	for _, e := range r.expenses {
		if e.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		cp := *e
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *memRepo) TotalForPeriod(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range r.expenses {
		if e.DeletionMark {
			continue
		}
		if !e.ExpenseDate.Before(from) && e.ExpenseDate.Before(to) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreate_ValidatesExpense(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passTx{})
	ctx := context.Background()

	err := svc.Create(ctx, New("", decimal.RequireFromString("15000"), "Loyer", date(2026, time.March, 1)))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	err = svc.Create(ctx, New("Loyer mars", decimal.Zero, "Loyer", date(2026, time.March, 1)))
	assert.Error(t, err, "zero amount is rejected")

	e := New("Loyer mars", decimal.RequireFromString("15000"), "Loyer", date(2026, time.March, 1))
	require.NoError(t, svc.Create(ctx, e))
	_, ok = repo.expenses[e.ID]
	assert.True(t, ok)
}

func TestMonthTotal_SumsCalendarMonth(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passTx{})
	ctx := context.Background()

	add := func(label, amount string, d time.Time) {
		require.NoError(t, svc.Create(ctx, New(label, decimal.RequireFromString(amount), "Divers", d)))
	}

	add("Loyer mars", "15000", date(2026, time.March, 1))
	add("Transport", "2500", date(2026, time.March, 31))
	// Adjacent months stay out of the March total.
	add("Loyer février", "15000", date(2026, time.February, 28))
	add("Loyer avril", "15000", date(2026, time.April, 1))

	total, err := svc.MonthTotal(ctx, date(2026, time.March, 15))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("17500")), "got %s", total)
}

func TestDelete_ExcludesFromTotals(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passTx{})
	ctx := context.Background()

	e := New("Loyer mars", decimal.RequireFromString("15000"), "Loyer", date(2026, time.March, 1))
	require.NoError(t, svc.Create(ctx, e))
	require.NoError(t, svc.Delete(ctx, e.ID))

	total, err := svc.MonthTotal(ctx, date(2026, time.March, 15))
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}
