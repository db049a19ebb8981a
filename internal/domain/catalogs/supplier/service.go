package supplier

import (
	"context"

	"gespro/internal/core/tx"
	"gespro/internal/domain"
	"gespro/pkg/numerator"
)

// Service provides business logic for the Supplier catalog.
type Service struct {
	*domain.CatalogService[*Supplier]
	repo Repository
}

// NewService creates a new Supplier service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "supplier",
		CodePrefix: "FRN",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// Resolve returns an existing supplier matching name or creates one.
func (s *Service) Resolve(ctx context.Context, name string) (*Supplier, error) {
	return s.ResolveOrCreate(ctx, name, func(n string) *Supplier {
		return New(n)
	})
}
