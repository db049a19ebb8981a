package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"gespro/internal/domain"
	"gespro/internal/domain/documents/docsnap"
	"gespro/internal/infrastructure/storage/postgres"
)

const snapshotsTable = "doc_snapshots"

// SnapshotRepo implements docsnap.Repository.
type SnapshotRepo struct {
	*BaseDocumentRepo[*docsnap.Snapshot]
}

// NewSnapshotRepo creates a new snapshot repository.
func NewSnapshotRepo(txManager *postgres.TxManager) *SnapshotRepo {
	return &SnapshotRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			snapshotsTable,
			postgres.ExtractDBColumns[docsnap.Snapshot](),
			func() *docsnap.Snapshot { return &docsnap.Snapshot{} },
		),
	}
}

// List retrieves snapshots with filtering.
func (r *SnapshotRepo) List(ctx context.Context, filter docsnap.ListFilter) (domain.ListResult[*docsnap.Snapshot], error) {
	result := domain.ListResult[*docsnap.Snapshot]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Select(ctx)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"document_number": pattern},
			squirrel.ILike{"party_name": pattern},
		})
	}

	return r.FinishList(ctx, q, result, filter.OrderBy)
}
