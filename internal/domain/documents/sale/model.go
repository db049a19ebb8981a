// Package sale provides the Sale document: a committed sale with its line
// items, stock effects and payment tracking.
package sale

import (
	"context"

	"github.com/shopspring/decimal"

	"gespro/internal/core/apperror"
	"gespro/internal/core/entity"
	"gespro/internal/core/id"
)

// Status values are stored as-is; the UI displays them untranslated.
type Status string

const (
	StatusPaid      Status = "Payée"
	StatusPending   Status = "En attente"
	StatusPartial   Status = "Partiel"
	StatusCancelled Status = "Annulée"
)

func isValidStatus(s Status) bool {
	switch s {
	case StatusPaid, StatusPending, StatusPartial, StatusCancelled:
		return true
	}
	return false
}

// Sale represents a committed sale document.
type Sale struct {
	entity.Document

	// ClientID references the buyer
	ClientID id.ID `db:"client_id" json:"clientId"`

	// ClientName is denormalized for lists and receipts
	ClientName string `db:"client_name" json:"clientName"`

	// TotalAmount is always recomputed server-side from the items
	TotalAmount decimal.Decimal `db:"total_amount" json:"totalAmount"`

	// AmountPaid is derived from status and recorded payments
	AmountPaid decimal.Decimal `db:"amount_paid" json:"amountPaid"`

	Status Status `db:"status" json:"status"`

	// Table part: sold items
	Items []Item `db:"-" json:"items"`
}

// Item represents a line in the sale.
type Item struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID   id.ID           `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
}

// New creates a new empty sale document.
func New() *Sale {
	return &Sale{
		Document: entity.NewDocument(),
		Status:   StatusPending,
		Items:    make([]Item, 0),
	}
}

// AddItem appends a line and recalculates the total.
func (s *Sale) AddItem(productID id.ID, productName string, quantity, unitPrice decimal.Decimal) {
	line := Item{
		LineID:      id.New(),
		LineNo:      len(s.Items) + 1,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      quantity.Mul(unitPrice),
	}

	s.Items = append(s.Items, line)
	s.RecalculateTotal()
}

// RecalculateTotal recomputes TotalAmount as the sum of line amounts.
// The persisted total always comes from here, never from client input.
func (s *Sale) RecalculateTotal() {
	total := decimal.Zero
	for i := range s.Items {
		s.Items[i].Amount = s.Items[i].Quantity.Mul(s.Items[i].UnitPrice)
		total = total.Add(s.Items[i].Amount)
	}
	s.TotalAmount = total
}

// ApplyStatus derives AmountPaid from the requested status and the amount
// the caller supplied. Payée forces full payment; Partiel clamps to the
// total; everything else starts unpaid. Payée is only ever derived for a
// positive total: a zero-total sale keeps the status it was committed with
// unless Payée is requested explicitly.
func (s *Sale) ApplyStatus(status Status, amountPaid decimal.Decimal) {
	s.Status = status
	switch status {
	case StatusPaid:
		s.AmountPaid = s.TotalAmount
	case StatusPartial:
		s.AmountPaid = clamp(amountPaid, decimal.Zero, s.TotalAmount)
		// A "partial" payment covering the whole total is a paid sale.
		if s.AmountPaid.Equal(s.TotalAmount) && s.TotalAmount.IsPositive() {
			s.Status = StatusPaid
		}
	default:
		s.AmountPaid = decimal.Zero
	}
}

// Outstanding returns the unpaid remainder.
func (s *Sale) Outstanding() decimal.Decimal {
	return s.TotalAmount.Sub(s.AmountPaid)
}

// IsCancelled reports whether the sale was voided.
func (s *Sale) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	if !isValidStatus(s.Status) {
		return apperror.NewValidation("invalid sale status").
			WithDetail("field", "status").
			WithDetail("value", string(s.Status))
	}

	if len(s.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range s.Items {
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
