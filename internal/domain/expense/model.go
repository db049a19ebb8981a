// Package expense provides expense tracking: one-off business costs that
// feed the monthly totals on the dashboard.
package expense

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/apperror"
	"gespro/internal/core/entity"
)

// Expense represents a single recorded cost.
type Expense struct {
	entity.BaseDocument

	// Label describes the expense ("Loyer", "Electricité", ...)
	Label string `db:"label" json:"label"`

	Amount decimal.Decimal `db:"amount" json:"amount"`

	// Category is free-form ("Loyer", "Transport", ...)
	Category string `db:"category" json:"category"`

	// ExpenseDate is the business date, distinct from CreatedAt
	ExpenseDate time.Time `db:"expense_date" json:"expenseDate"`
}

// New creates a new Expense.
func New(label string, amount decimal.Decimal, category string, date time.Time) *Expense {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return &Expense{
		BaseDocument: entity.NewBaseDocument(),
		Label:        label,
		Amount:       amount,
		Category:     category,
		ExpenseDate:  date,
	}
}

// Validate implements entity.Validatable.
func (e *Expense) Validate(ctx context.Context) error {
	if e.Label == "" {
		return apperror.NewValidation("label is required").
			WithDetail("field", "label")
	}

	if !e.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}

	if e.ExpenseDate.IsZero() {
		return apperror.NewValidation("expense date is required").
			WithDetail("field", "expenseDate")
	}

	return nil
}
