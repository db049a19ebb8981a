package sale

import (
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/id"
)

// Draft is the input for committing a sale. Lines may reference existing
// products by ID or name a new product to be created on the fly; the same
// applies to the client.
type Draft struct {
	// Date defaults to now when zero
	Date time.Time

	// ClientID references an existing client; when nil, ClientName is
	// resolved case-insensitively or a new client is created
	ClientID   *id.ID
	ClientName string

	// Status requested by the caller (Payée, En attente, Partiel)
	Status Status

	// AmountPaid is only honored for Partiel; Payée derives it from the total
	AmountPaid decimal.Decimal

	Items []DraftItem
}

// DraftItem is one line of a sale draft.
type DraftItem struct {
	// ProductID references an existing product; when nil, ProductName
	// (optionally with CategoryName) is resolved or created
	ProductID    *id.ID
	ProductName  string
	CategoryName string

	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}
