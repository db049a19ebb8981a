package client

import (
	"context"

	"gespro/internal/core/tx"
	"gespro/internal/domain"
	"gespro/pkg/numerator"
)

// Service provides business logic for the Client catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Client]
	repo Repository
}

// NewService creates a new Client service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Client]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "client",
		CodePrefix: "CLI",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// Resolve returns the ID of an existing client with the given name or creates
// a bare one. Used by the sale commit when a sale names a new client inline.
func (s *Service) Resolve(ctx context.Context, name string) (*Client, error) {
	return s.ResolveOrCreate(ctx, name, func(n string) *Client {
		return New(n)
	})
}
