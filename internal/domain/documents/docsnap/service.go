package docsnap

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/id"
	"gespro/internal/core/tx"
	"gespro/internal/domain"
	"gespro/internal/domain/documents/purchaseorder"
	"gespro/internal/domain/documents/sale"
	"gespro/pkg/numerator"
)

// Service provides business operations for receipt snapshots.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new snapshot service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// CreateFromSale freezes a committed sale into a receipt snapshot.
// Implements sale.SnapshotWriter.
func (s *Service) CreateFromSale(ctx context.Context, doc *sale.Sale) error {
	items := make([]DetailItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, DetailItem{
			Name:     it.ProductName,
			Quantity: it.Quantity,
			Price:    it.UnitPrice,
		})
	}

	return s.create(ctx, TypeReceiptSale, doc.Number, doc.ClientName, doc.TotalAmount, items)
}

// CreateFromPurchaseOrder freezes a committed order into a receipt snapshot.
// Implements purchaseorder.SnapshotWriter.
func (s *Service) CreateFromPurchaseOrder(ctx context.Context, doc *purchaseorder.PurchaseOrder) error {
	items := make([]DetailItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, DetailItem{
			Name:     it.ProductName,
			Quantity: it.Quantity,
			Price:    it.UnitPrice,
		})
	}

	return s.create(ctx, TypeReceiptPurchase, doc.Number, doc.SupplierName, doc.TotalAmount, items)
}

func (s *Service) create(ctx context.Context, snapType Type, docNumber, partyName string, total decimal.Decimal, items []DetailItem) error {
	snap := New(snapType)
	snap.DocumentNumber = docNumber
	snap.PartyName = partyName
	snap.TotalAmount = total

	details, err := json.Marshal(DetailsPayload{Items: items})
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	snap.Details = details

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("REC"),
		&numerator.Options{Strategy: numerator.StrategyStrict}, time.Now())
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	snap.Number = number

	if err := snap.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, snap)
	})
}

// GetByID retrieves a snapshot.
func (s *Service) GetByID(ctx context.Context, snapID id.ID) (*Snapshot, error) {
	return s.repo.GetByID(ctx, snapID)
}

// Delete soft-deletes a snapshot.
func (s *Service) Delete(ctx context.Context, snapID id.ID) error {
	return s.repo.Delete(ctx, snapID)
}

// List retrieves snapshots with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Snapshot], error) {
	return s.repo.List(ctx, filter)
}
