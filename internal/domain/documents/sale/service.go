package sale

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
	"gespro/internal/domain/catalogs/client"
	"gespro/internal/domain/catalogs/product"
	"gespro/pkg/logger"
	"gespro/pkg/numerator"
)

// SnapshotWriter persists a printable receipt snapshot for a committed sale.
// Snapshot failure never fails the sale: it is logged and the snapshot can be
// regenerated later.
type SnapshotWriter interface {
	CreateFromSale(ctx context.Context, doc *Sale) error
}

// Notifier raises user-facing notifications after a commit.
type Notifier interface {
	LowStock(ctx context.Context, p *product.Product, remaining decimal.Decimal) error
}

// Service provides business operations for sale documents.
type Service struct {
	repo       Repository
	clients    *client.Service
	products   *product.Service
	categories *category.Service
	numerator  *numerator.Service
	txManager  tx.Manager

	// optional collaborators, nil-safe
	snapshots SnapshotWriter
	notifier  Notifier
}

// NewService creates a new sale service.
func NewService(
	repo Repository,
	clients *client.Service,
	products *product.Service,
	categories *category.Service,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		clients:    clients,
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

// WithNotifier attaches the notification sink.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// lowStockHit records a product that crossed its alert threshold during the
// commit, for post-commit notification.
type lowStockHit struct {
	product   *product.Product
	remaining decimal.Decimal
}

// Create commits a sale draft in a single transaction:
// client resolution, inline product creation, document insert with a
// server-recomputed total, item batch insert and stock decrements all stand
// or fall together. The receipt snapshot is written after commit,
// best-effort.
func (s *Service) Create(ctx context.Context, draft Draft) (*Sale, error) {
	if len(draft.Items) == 0 {
		return nil, apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	doc := New()
	if !draft.Date.IsZero() {
		doc.Date = draft.Date
	}

	status := draft.Status
	if status == "" {
		status = StatusPending
	}
	if status == StatusCancelled {
		return nil, apperror.NewValidation("cannot commit a cancelled sale").
			WithDetail("field", "status")
	}

	var lowStock []lowStockHit

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cl, err := s.resolveClient(ctx, draft)
		if err != nil {
			return err
		}
		doc.ClientID = cl.ID
		doc.ClientName = cl.Name

		for _, line := range draft.Items {
			p, err := s.resolveProduct(ctx, line)
			if err != nil {
				return err
			}
			doc.AddItem(p.ID, p.Name, line.Quantity, line.UnitPrice)
		}

		doc.ApplyStatus(status, draft.AmountPaid)

		if doc.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("VTE"),
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

		// Stock moves inside the same transaction: a failed decrement rolls
		// back the whole sale.
		for _, item := range doc.Items {
			remaining, err := s.products.AdjustQuantity(ctx, item.ProductID, item.Quantity.Neg())
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}

			p, err := s.products.GetByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if remaining.LessThanOrEqual(p.AlertThreshold) {
				lowStock = append(lowStock, lowStockHit{product: p, remaining: remaining})
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale committed",
		"id", doc.ID, "number", doc.Number, "total", doc.TotalAmount, "status", doc.Status)

	s.writeSnapshot(ctx, doc)
	s.notifyLowStock(ctx, lowStock)

	return doc, nil
}

// writeSnapshot persists the receipt snapshot after commit. Failure is
// logged at WARN and surfaced nowhere else: the sale stands and the snapshot
// is regenerable.
func (s *Service) writeSnapshot(ctx context.Context, doc *Sale) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.CreateFromSale(ctx, doc); err != nil {
		logger.Warn(ctx, "receipt snapshot failed",
			"sale_id", doc.ID, "number", doc.Number, "error", err)
	}
}

func (s *Service) notifyLowStock(ctx context.Context, hits []lowStockHit) {
	if s.notifier == nil {
		return
	}
	for _, hit := range hits {
		if err := s.notifier.LowStock(ctx, hit.product, hit.remaining); err != nil {
			logger.Warn(ctx, "low stock notification failed",
				"product_id", hit.product.ID, "error", err)
		}
	}
}

func (s *Service) resolveClient(ctx context.Context, draft Draft) (*client.Client, error) {
	if draft.ClientID != nil {
		return s.clients.GetByID(ctx, *draft.ClientID)
	}
	return s.clients.Resolve(ctx, draft.ClientName)
}

func (s *Service) resolveProduct(ctx context.Context, line DraftItem) (*product.Product, error) {
	if line.ProductID != nil {
		p, err := s.products.GetByID(ctx, *line.ProductID)
		if err != nil {
			return nil, err
		}
		if err := checkSellable(p); err != nil {
			return nil, err
		}
		return p, nil
	}

	p, err := s.products.Resolve(ctx, line.ProductName, func(p *product.Product) error {
		p.SalePrice = line.UnitPrice
		if line.CategoryName != "" {
			cat, err := s.categories.Resolve(ctx, line.CategoryName)
			if err != nil {
				return err
			}
			p.CategoryID = &cat.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := checkSellable(p); err != nil {
		return nil, err
	}
	return p, nil
}

// checkSellable rejects products flagged off the sale screens. Inline-created
// products are sellable by construction, so only existing rows can trip this.
func checkSellable(p *product.Product) error {
	if !p.IsSellable {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"product cannot be sold").
			WithDetail("product", p.Name)
	}
	return nil
}

// GetByID retrieves a sale with items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
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

// RecordPayment applies a payment to a sale. An explicit Payée status settles
// the sale in full regardless of increment; otherwise amount_paid grows by
// increment, clamped to the total, and the status follows from the result.
func (s *Service) RecordPayment(ctx context.Context, saleID id.ID, increment decimal.Decimal, explicitStatus Status) (*Sale, error) {
	if increment.IsNegative() {
		return nil, apperror.NewValidation("payment amount cannot be negative").
			WithDetail("field", "amount")
	}
	if explicitStatus != "" && explicitStatus != StatusPaid {
		return nil, apperror.NewValidation("only Payée may be forced explicitly").
			WithDetail("field", "status").
			WithDetail("value", string(explicitStatus))
	}

	var doc *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if doc.IsCancelled() {
			return apperror.NewBusinessRule(apperror.CodeSaleCancelled,
				"cannot record a payment on a cancelled sale").
				WithDetail("sale_id", saleID.String())
		}

		if explicitStatus == StatusPaid {
			doc.AmountPaid = doc.TotalAmount
			doc.Status = StatusPaid
		} else {
			if doc.Outstanding().IsZero() && increment.IsPositive() {
				return apperror.NewBusinessRule(apperror.CodePaymentExceedsTotal,
					"sale is already fully paid").
					WithDetail("sale_id", saleID.String())
			}

			doc.AmountPaid = clamp(doc.AmountPaid.Add(increment), decimal.Zero, doc.TotalAmount)
			// Payée is never derived for a zero total: a free sale stays
			// En attente until Payée is forced explicitly.
			switch {
			case doc.AmountPaid.Equal(doc.TotalAmount) && doc.TotalAmount.IsPositive():
				doc.Status = StatusPaid
			case doc.AmountPaid.IsPositive():
				doc.Status = StatusPartial
			default:
				doc.Status = StatusPending
			}
		}

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"sale_id", doc.ID, "amount_paid", doc.AmountPaid, "status", doc.Status)

	return doc, nil
}

// Cancel voids a sale and restores the stock its items consumed, in one
// transaction.
func (s *Service) Cancel(ctx context.Context, saleID id.ID) (*Sale, error) {
	var doc *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if doc.IsCancelled() {
			return apperror.NewBusinessRule(apperror.CodeSaleCancelled, "sale is already cancelled").
				WithDetail("sale_id", saleID.String())
		}

		items, err := s.repo.GetItems(ctx, saleID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}

		for _, item := range items {
			if _, err := s.products.AdjustQuantity(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
		}

		doc.Status = StatusCancelled
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale cancelled", "sale_id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Delete soft-deletes a sale.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	return s.repo.Delete(ctx, docID)
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, filter)
}
