package category

import (
	"context"

	"gespro/internal/core/tx"
	"gespro/internal/domain"
	"gespro/pkg/numerator"
)

// Service provides business logic for the Category catalog.
type Service struct {
	*domain.CatalogService[*Category]
	repo Repository
}

// NewService creates a new Category service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "category",
		CodePrefix: "CAT",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// Resolve returns an existing category matching name (case-insensitive) or
// creates one. Document commits call this inside their transaction.
func (s *Service) Resolve(ctx context.Context, name string) (*Category, error) {
	return s.ResolveOrCreate(ctx, name, func(n string) *Category {
		return New(n)
	})
}
