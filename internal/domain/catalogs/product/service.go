package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/core/tx"
	"gespro/internal/domain"
	"gespro/pkg/numerator"
)

// Service provides business logic for the Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo Repository
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "product",
		CodePrefix: "PRD",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// Resolve returns an existing product matching name (case-insensitive) or
// creates one with zero stock. The build callback lets document commits seed
// category and prices on the created product; it runs only on a miss, so a
// nested category resolve-or-create happens exactly when a product row is
// actually created.
func (s *Service) Resolve(ctx context.Context, name string, build func(p *Product) error) (*Product, error) {
	existing, err := s.GetByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	p := New(strings.TrimSpace(name))
	if build != nil {
		if err := build(p); err != nil {
			return nil, err
		}
	}
	if err := s.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByName retrieves a product by exact case-insensitive name match.
func (s *Service) GetByName(ctx context.Context, name string) (*Product, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, apperror.NewValidation("product name is required")
	}
	return s.repo.FindByName(ctx, trimmed)
}

// AdjustQuantity applies a stock delta inside the caller's transaction and
// returns the resulting quantity.
func (s *Service) AdjustQuantity(ctx context.Context, productID id.ID, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.repo.AdjustQuantity(ctx, productID, delta)
}

// FindLowStock retrieves sellable products at or below their alert threshold.
func (s *Service) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.FindLowStock(ctx, filter)
}

// CountLowStock counts sellable products at or below their alert threshold.
func (s *Service) CountLowStock(ctx context.Context) (int64, error) {
	return s.repo.CountLowStock(ctx)
}
