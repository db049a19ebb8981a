package purchaseorder

import (
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/id"
)

// Draft is the input for committing a purchase order. Like sales, lines may
// reference existing products or name new ones created on the fly.
type Draft struct {
	Date time.Time

	SupplierID   *id.ID
	SupplierName string

	Items []DraftItem
}

// DraftItem is one line of a purchase order draft.
type DraftItem struct {
	ProductID    *id.ID
	ProductName  string
	CategoryName string

	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// ReceiptLine is one line of a reception: how much of an order item arrived.
type ReceiptLine struct {
	ItemID   id.ID
	Quantity decimal.Decimal
}
