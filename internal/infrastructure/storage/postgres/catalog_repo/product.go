package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"gespro/internal/core/appctx"
	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain"
	"gespro/internal/domain/catalogs/product"
	"gespro/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// AdjustQuantity applies a stock delta and returns the resulting quantity.
// Must run inside an active transaction so a failed document commit rolls
// the stock move back.
func (r *ProductRepo) AdjustQuantity(ctx context.Context, productID id.ID, delta decimal.Decimal) (decimal.Decimal, error) {
	if r.TxManager().GetTx(ctx) == nil {
		return decimal.Zero, fmt.Errorf("AdjustQuantity requires transaction context")
	}

	var quantity decimal.Decimal
	err := r.TxManager().GetQuerier(ctx).QueryRow(ctx, `
		UPDATE cat_products
		SET quantity = quantity + $1, version = version + 1
		WHERE id = $2 AND owner_id = $3
		RETURNING quantity
	`, delta, productID, appctx.GetUserID(ctx)).Scan(&quantity)

	if err != nil {
		if pgxscan.NotFound(err) {
			return decimal.Zero, apperror.NewNotFound(productTable, productID.String())
		}
		return decimal.Zero, fmt.Errorf("adjust quantity: %w", err)
	}

	return quantity, nil
}

func (r *ProductRepo) lowStockSelect(ctx context.Context) squirrel.SelectBuilder {
	return r.Select(ctx).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"is_sellable": true}).
		Where(squirrel.Expr("quantity <= alert_threshold"))
}

// FindLowStock retrieves sellable products at or below their alert threshold.
func (r *ProductRepo) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.lowStockSelect(ctx).OrderBy("quantity ASC, name ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var items []*product.Product
	querier := r.TxManager().GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return result, fmt.Errorf("find low stock: %w", err)
	}
	result.Items = items
	result.TotalCount = int64(len(items))

	return result, nil
}

// CountLowStock counts sellable products at or below their alert threshold.
func (r *ProductRepo) CountLowStock(ctx context.Context) (int64, error) {
	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(r.lowStockSelect(ctx), "sub")

	sql, args, err := countQ.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int64
	if err := r.TxManager().GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count low stock: %w", err)
	}

	return count, nil
}
