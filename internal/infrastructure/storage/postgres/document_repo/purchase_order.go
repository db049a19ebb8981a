package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain"
	"gespro/internal/domain/documents/purchaseorder"
	"gespro/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderItemsTable = "doc_purchase_order_items"
)

// PurchaseOrderRepo implements purchaseorder.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchaseorder.PurchaseOrder]
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			purchaseOrdersTable,
			postgres.ExtractDBColumns[purchaseorder.PurchaseOrder](),
			func() *purchaseorder.PurchaseOrder { return &purchaseorder.PurchaseOrder{} },
		),
	}
}

// GetItems retrieves the line items of a purchase order.
func (r *PurchaseOrderRepo) GetItems(ctx context.Context, docID id.ID) ([]purchaseorder.Item, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "product_id", "product_name",
			"quantity", "unit_price", "amount", "received_qty",
		).
		From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []purchaseorder.Item
	querier := r.TxManager().GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// SaveItems replaces the line items of a purchase order.
func (r *PurchaseOrderRepo) SaveItems(ctx context.Context, docID id.ID, items []purchaseorder.Item) error {
	querier := r.TxManager().GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + purchaseOrderItemsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(purchaseOrderItemsTable).
		Columns(
			"line_id", "document_id", "line_no", "product_id", "product_name",
			"quantity", "unit_price", "amount", "received_qty",
		)

	for _, item := range items {
		q = q.Values(
			item.LineID, docID, item.LineNo, item.ProductID, item.ProductName,
			item.Quantity, item.UnitPrice, item.Amount, item.ReceivedQty,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

// UpdateItemReceived sets the accumulated received quantity on one line.
func (r *PurchaseOrderRepo) UpdateItemReceived(ctx context.Context, lineID id.ID, receivedQty decimal.Decimal) error {
	q := r.Builder().
		Update(purchaseOrderItemsTable).
		Set("received_qty", receivedQty).
		Where(squirrel.Eq{"line_id": lineID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.TxManager().GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update received qty: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(purchaseOrderItemsTable, lineID.String())
	}

	return nil
}

// List retrieves purchase orders with filtering.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchaseorder.ListFilter) (domain.ListResult[*purchaseorder.PurchaseOrder], error) {
	result := domain.ListResult[*purchaseorder.PurchaseOrder]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Select(ctx)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"supplier_name": pattern},
		})
	}

	return r.FinishList(ctx, q, result, filter.OrderBy)
}
