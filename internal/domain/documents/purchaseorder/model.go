// Package purchaseorder provides the PurchaseOrder document: goods ordered
// from a supplier, with a reception workflow that moves stock in.
package purchaseorder

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
	StatusOrdered           Status = "Commandé"
	StatusPartiallyReceived Status = "Partiellement Reçu"
	StatusReceived          Status = "Reçu"
)

func isValidStatus(s Status) bool {
	switch s {
	case StatusOrdered, StatusPartiallyReceived, StatusReceived:
		return true
	}
	return false
}

// PurchaseOrder represents goods ordered from a supplier.
// Stock does not move at order time: it moves on reception, line by line.
type PurchaseOrder struct {
	entity.Document

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// SupplierName is denormalized for lists and receipts
	SupplierName string `db:"supplier_name" json:"supplierName"`

	// TotalAmount is recomputed server-side from the items
	TotalAmount decimal.Decimal `db:"total_amount" json:"totalAmount"`

	Status Status `db:"status" json:"status"`

	// Table part: ordered items
	Items []Item `db:"-" json:"items"`
}

// Item represents a line in the purchase order. ReceivedQty accumulates
// across receptions and never exceeds Quantity.
type Item struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID   id.ID           `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	ReceivedQty decimal.Decimal `db:"received_qty" json:"receivedQty"`
}

// Remaining returns the quantity still to be received on this line.
func (i *Item) Remaining() decimal.Decimal {
	return i.Quantity.Sub(i.ReceivedQty)
}

// New creates a new empty purchase order.
func New() *PurchaseOrder {
	return &PurchaseOrder{
		Document: entity.NewDocument(),
		Status:   StatusOrdered,
		Items:    make([]Item, 0),
	}
}

// AddItem appends a line and recalculates the total.
func (o *PurchaseOrder) AddItem(productID id.ID, productName string, quantity, unitPrice decimal.Decimal) {
	line := Item{
		LineID:      id.New(),
		LineNo:      len(o.Items) + 1,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      quantity.Mul(unitPrice),
		ReceivedQty: decimal.Zero,
	}

	o.Items = append(o.Items, line)
	o.RecalculateTotal()
}

// RecalculateTotal recomputes TotalAmount as the sum of line amounts.
func (o *PurchaseOrder) RecalculateTotal() {
	total := decimal.Zero
	for i := range o.Items {
		o.Items[i].Amount = o.Items[i].Quantity.Mul(o.Items[i].UnitPrice)
		total = total.Add(o.Items[i].Amount)
	}
	o.TotalAmount = total
}

// DeriveStatus recomputes the status from the reception state of the items:
// every line received in full means Reçu, any received quantity means
// Partiellement Reçu, otherwise the order stays Commandé.
func (o *PurchaseOrder) DeriveStatus() {
	allFull := true
	anyReceived := false

	for i := range o.Items {
		if o.Items[i].ReceivedQty.IsPositive() {
			anyReceived = true
		}
		if o.Items[i].ReceivedQty.LessThan(o.Items[i].Quantity) {
			allFull = false
		}
	}

	switch {
	case len(o.Items) > 0 && allFull:
		o.Status = StatusReceived
	case anyReceived:
		o.Status = StatusPartiallyReceived
	default:
		o.Status = StatusOrdered
	}
}

// IsFullyReceived reports whether every line has been received in full.
func (o *PurchaseOrder) IsFullyReceived() bool {
	return o.Status == StatusReceived
}

// Validate implements entity.Validatable.
func (o *PurchaseOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if !isValidStatus(o.Status) {
		return apperror.NewValidation("invalid order status").
			WithDetail("field", "status").
			WithDetail("value", string(o.Status))
	}

	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range o.Items {
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
		if item.ReceivedQty.IsNegative() || item.ReceivedQty.GreaterThan(item.Quantity) {
			return apperror.NewValidation("received quantity out of range").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
