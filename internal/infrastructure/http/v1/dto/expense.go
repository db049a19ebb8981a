package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/domain/expense"
)

// CreateExpenseRequest for POST /document/expenses.
type CreateExpenseRequest struct {
	Label    string          `json:"label" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Category string          `json:"category"`
	Date     *time.Time      `json:"date"`
}

// ToEntity maps the request to an expense.
func (r CreateExpenseRequest) ToEntity() *expense.Expense {
	var date time.Time
	if r.Date != nil {
		date = *r.Date
	}
	return expense.New(r.Label, r.Amount, r.Category, date)
}

// UpdateExpenseRequest for PUT /document/expenses/:id.
type UpdateExpenseRequest struct {
	Label    string          `json:"label" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Category string          `json:"category"`
	Date     *time.Time      `json:"date"`
	Version  int             `json:"version" binding:"required,min=1"`
}

// ApplyTo copies the editable fields onto an existing expense.
func (r UpdateExpenseRequest) ApplyTo(e *expense.Expense) {
	e.Label = r.Label
	e.Amount = r.Amount
	e.Category = r.Category
	if r.Date != nil {
		e.ExpenseDate = *r.Date
	}
	e.Version = r.Version
}

// MonthTotalResponse reports the aggregated expenses of one month.
type MonthTotalResponse struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}
