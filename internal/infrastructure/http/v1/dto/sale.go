package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/domain/documents/sale"
)

// SaleItemRequest is one draft line. Either productId or productName must
// be set; a named product is resolved case-insensitively or created.
type SaleItemRequest struct {
	ProductID    *string         `json:"productId"`
	ProductName  string          `json:"productName"`
	CategoryName string          `json:"categoryName"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
}

// CreateSaleRequest for POST /document/sales.
type CreateSaleRequest struct {
	Date       *time.Time        `json:"date"`
	ClientID   *string           `json:"clientId"`
	ClientName string            `json:"clientName"`
	Status     string            `json:"status" binding:"required"`
	AmountPaid decimal.Decimal   `json:"amountPaid"`
	Items      []SaleItemRequest `json:"items" binding:"required"`
}

// ToDraft maps the request to a sale draft.
func (r CreateSaleRequest) ToDraft() (sale.Draft, error) {
	draft := sale.Draft{
		ClientName: r.ClientName,
		Status:     sale.Status(r.Status),
		AmountPaid: r.AmountPaid,
	}
	if r.Date != nil {
		draft.Date = *r.Date
	}

	var err error
	if draft.ClientID, err = parseOptionalID(r.ClientID); err != nil {
		return sale.Draft{}, err
	}

	draft.Items = make([]sale.DraftItem, 0, len(r.Items))
	for _, item := range r.Items {
		line := sale.DraftItem{
			ProductName:  item.ProductName,
			CategoryName: item.CategoryName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
		}
		if line.ProductID, err = parseOptionalID(item.ProductID); err != nil {
			return sale.Draft{}, err
		}
		draft.Items = append(draft.Items, line)
	}

	return draft, nil
}

// RecordPaymentRequest for POST /document/sales/:id/payments.
// Either an increment, an explicit status, or both.
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}
