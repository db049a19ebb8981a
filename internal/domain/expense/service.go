package expense

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/id"
	"gespro/internal/core/tx"
	"gespro/internal/domain"
)

// Service provides business operations for expenses.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new expense service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create records a new expense.
func (s *Service) Create(ctx context.Context, e *Expense) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, e)
	})
}

// GetByID retrieves an expense.
func (s *Service) GetByID(ctx context.Context, expenseID id.ID) (*Expense, error) {
	return s.repo.GetByID(ctx, expenseID)
}

// Update modifies an expense.
func (s *Service) Update(ctx context.Context, e *Expense) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, e)
	})
}

// Delete soft-deletes an expense.
func (s *Service) Delete(ctx context.Context, expenseID id.ID) error {
	return s.repo.Delete(ctx, expenseID)
}

// List retrieves expenses with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error) {
	return s.repo.List(ctx, filter)
}

// MonthTotal sums the expenses of the month containing ref.
func (s *Service) MonthTotal(ctx context.Context, ref time.Time) (decimal.Decimal, error) {
	from := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return s.repo.TotalForPeriod(ctx, from, to)
}
