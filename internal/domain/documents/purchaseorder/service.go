package purchaseorder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/core/tx"
	"gespro/internal/domain"
	"gespro/internal/domain/catalogs/category"
	"gespro/internal/domain/catalogs/product"
	"gespro/internal/domain/catalogs/supplier"
	"gespro/pkg/logger"
	"gespro/pkg/numerator"
)

// SnapshotWriter persists a printable receipt snapshot for a committed order.
type SnapshotWriter interface {
	CreateFromPurchaseOrder(ctx context.Context, doc *PurchaseOrder) error
}

// Service provides business operations for purchase orders.
type Service struct {
	repo       Repository
	suppliers  *supplier.Service
	products   *product.Service
	categories *category.Service
	numerator  *numerator.Service
	txManager  tx.Manager

	snapshots SnapshotWriter
}

// NewService creates a new purchase order service.
func NewService(
	repo Repository,
	suppliers *supplier.Service,
	products *product.Service,
	categories *category.Service,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		suppliers:  suppliers,
		products:   products,
		categories: categories,
		numerator:  num,
		txManager:  txManager,
	}
}

// WithSnapshots attaches the receipt snapshot writer.
func (s *Service) WithSnapshots(w SnapshotWriter) *Service {
	s.snapshots = w
	return s
}

// Create commits a purchase order draft in a single transaction. Stock is
// NOT incremented here: it moves on reception.
func (s *Service) Create(ctx context.Context, draft Draft) (*PurchaseOrder, error) {
	if len(draft.Items) == 0 {
		return nil, apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	doc := New()
	if !draft.Date.IsZero() {
		doc.Date = draft.Date
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sup, err := s.resolveSupplier(ctx, draft)
		if err != nil {
			return err
		}
		doc.SupplierID = sup.ID
		doc.SupplierName = sup.Name

		for _, line := range draft.Items {
			p, err := s.resolveProduct(ctx, line)
			if err != nil {
				return err
			}
			doc.AddItem(p.ID, p.Name, line.Quantity, line.UnitPrice)
		}

		if doc.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CMD"),
				&numerator.Options{Strategy: numerator.StrategyStrict}, time.Now())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Number = number
		}

		if err := doc.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order committed",
		"id", doc.ID, "number", doc.Number, "total", doc.TotalAmount)

	s.writeSnapshot(ctx, doc)

	return doc, nil
}

func (s *Service) writeSnapshot(ctx context.Context, doc *PurchaseOrder) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.CreateFromPurchaseOrder(ctx, doc); err != nil {
		logger.Warn(ctx, "receipt snapshot failed",
			"order_id", doc.ID, "number", doc.Number, "error", err)
	}
}

func (s *Service) resolveSupplier(ctx context.Context, draft Draft) (*supplier.Supplier, error) {
	if draft.SupplierID != nil {
		return s.suppliers.GetByID(ctx, *draft.SupplierID)
	}
	return s.suppliers.Resolve(ctx, draft.SupplierName)
}

func (s *Service) resolveProduct(ctx context.Context, line DraftItem) (*product.Product, error) {
	if line.ProductID != nil {
		return s.products.GetByID(ctx, *line.ProductID)
	}

	return s.products.Resolve(ctx, line.ProductName, func(p *product.Product) error {
		p.PurchasePrice = line.UnitPrice
		if line.CategoryName != "" {
			cat, err := s.categories.Resolve(ctx, line.CategoryName)
			if err != nil {
				return err
			}
			p.CategoryID = &cat.ID
		}
		return nil
	})
}

// Receive records one reception against an order in a single transaction:
// each entered quantity is clamped to [0, ordered−received], line received
// quantities and product stock move by the same delta, and the order status
// is derived from the new reception state.
func (s *Service) Receive(ctx context.Context, orderID id.ID, lines []ReceiptLine) (*PurchaseOrder, error) {
	if len(lines) == 0 {
		return nil, apperror.NewValidation("at least one receipt line is required").
			WithDetail("field", "lines")
	}

	var doc *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if doc.IsFullyReceived() {
			return apperror.NewBusinessRule(apperror.CodeOrderFullyReceived,
				"order is already fully received").
				WithDetail("order_id", orderID.String())
		}

		items, err := s.repo.GetItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		doc.Items = items

		byLine := make(map[id.ID]*Item, len(doc.Items))
		for i := range doc.Items {
			byLine[doc.Items[i].LineID] = &doc.Items[i]
		}

		for _, rl := range lines {
			item, ok := byLine[rl.ItemID]
			if !ok {
				return apperror.NewNotFound("order item", rl.ItemID.String())
			}

			// Clamp: never negative, never beyond what remains to receive.
			delta := clampQty(rl.Quantity, item.Remaining())
			if delta.IsZero() {
				continue
			}

			item.ReceivedQty = item.ReceivedQty.Add(delta)
			if err := s.repo.UpdateItemReceived(ctx, item.LineID, item.ReceivedQty); err != nil {
				return fmt.Errorf("update received qty: %w", err)
			}

			if _, err := s.products.AdjustQuantity(ctx, item.ProductID, delta); err != nil {
				return fmt.Errorf("increment stock: %w", err)
			}
		}

		doc.DeriveStatus()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "reception recorded",
		"order_id", doc.ID, "number", doc.Number, "status", doc.Status)

	return doc, nil
}

func clampQty(v, max decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

// GetByID retrieves a purchase order with items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	return doc, nil
}

// Delete soft-deletes a purchase order.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	return s.repo.Delete(ctx, docID)
}

// List retrieves purchase orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return s.repo.List(ctx, filter)
}
