package docsnap

import (
	"context"

	"gespro/internal/core/id"
	"gespro/internal/domain"
)

// Repository defines operations for receipt snapshots.
type Repository interface {
	Create(ctx context.Context, snap *Snapshot) error
	GetByID(ctx context.Context, snapID id.ID) (*Snapshot, error)
	Delete(ctx context.Context, snapID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Snapshot], error)
}

// ListFilter for filtering snapshots.
type ListFilter struct {
	domain.ListFilter

	Type *Type
}
