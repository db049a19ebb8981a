package product

import (
	"context"

	"github.com/shopspring/decimal"

	"gespro/internal/core/id"
	"gespro/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetForUpdate retrieves product with row lock. Document commits use it
	// before adjusting stock.
	GetForUpdate(ctx context.Context, id id.ID) (*Product, error)

	// AdjustQuantity applies a stock delta (negative for sales, positive for
	// receptions) and returns the resulting quantity. Must run inside an
	// active transaction.
	AdjustQuantity(ctx context.Context, id id.ID, delta decimal.Decimal) (decimal.Decimal, error)

	// FindLowStock retrieves sellable products at or below their alert threshold.
	FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)

	// CountLowStock counts sellable products at or below their alert threshold.
	CountLowStock(ctx context.Context) (int64, error)
}
