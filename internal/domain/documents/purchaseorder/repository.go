package purchaseorder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/id"
	"gespro/internal/domain"
)

// Repository defines operations for purchase order documents.
type Repository interface {
	Create(ctx context.Context, doc *PurchaseOrder) error
	GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error)
	GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error)
	Update(ctx context.Context, doc *PurchaseOrder) error
	Delete(ctx context.Context, docID id.ID) error
	GetForUpdate(ctx context.Context, docID id.ID) (*PurchaseOrder, error)

	GetItems(ctx context.Context, docID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, docID id.ID, items []Item) error

	// UpdateItemReceived sets the accumulated received quantity on one line.
	UpdateItemReceived(ctx context.Context, lineID id.ID, receivedQty decimal.Decimal) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
}

// ListFilter for filtering purchase orders.
type ListFilter struct {
	domain.ListFilter

	SupplierID *id.ID
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
}
