package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/documents/purchaseorder"
)

// PurchaseOrderItemRequest is one draft line of an order.
type PurchaseOrderItemRequest struct {
	ProductID    *string         `json:"productId"`
	ProductName  string          `json:"productName"`
	CategoryName string          `json:"categoryName"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
}

// CreatePurchaseOrderRequest for POST /document/purchase-orders.
type CreatePurchaseOrderRequest struct {
	Date         *time.Time                 `json:"date"`
	SupplierID   *string                    `json:"supplierId"`
	SupplierName string                     `json:"supplierName"`
	Items        []PurchaseOrderItemRequest `json:"items" binding:"required"`
}

// ToDraft maps the request to an order draft.
func (r CreatePurchaseOrderRequest) ToDraft() (purchaseorder.Draft, error) {
	draft := purchaseorder.Draft{
		SupplierName: r.SupplierName,
	}
	if r.Date != nil {
		draft.Date = *r.Date
	}

	var err error
	if draft.SupplierID, err = parseOptionalID(r.SupplierID); err != nil {
		return purchaseorder.Draft{}, err
	}

	draft.Items = make([]purchaseorder.DraftItem, 0, len(r.Items))
	for _, item := range r.Items {
		line := purchaseorder.DraftItem{
			ProductName:  item.ProductName,
			CategoryName: item.CategoryName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
		}
		if line.ProductID, err = parseOptionalID(item.ProductID); err != nil {
			return purchaseorder.Draft{}, err
		}
		draft.Items = append(draft.Items, line)
	}

	return draft, nil
}

// ReceiveLineRequest records a delivered quantity against an order line.
type ReceiveLineRequest struct {
	ItemID   string          `json:"itemId" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// ReceiveRequest for POST /document/purchase-orders/:id/receive.
type ReceiveRequest struct {
	Lines []ReceiveLineRequest `json:"lines" binding:"required,min=1"`
}

// ToReceiptLines parses the line item identifiers.
func (r ReceiveRequest) ToReceiptLines() ([]purchaseorder.ReceiptLine, error) {
	lines := make([]purchaseorder.ReceiptLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		itemID, err := id.Parse(l.ItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid item id: " + l.ItemID)
		}
		lines = append(lines, purchaseorder.ReceiptLine{
			ItemID:   itemID,
			Quantity: l.Quantity,
		})
	}
	return lines, nil
}
