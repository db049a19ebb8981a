// Package report_repo runs the aggregate SQL behind the dashboard.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"gespro/internal/core/appctx"
	"gespro/internal/domain/documents/sale"
	"gespro/internal/domain/reports"
	"gespro/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// Totals returns revenue, outstanding and expense sums plus counters.
// Cancelled sales are excluded from every money aggregate.
func (r *ReportRepo) Totals(ctx context.Context) (*reports.Dashboard, error) {
	q := r.txManager.GetQuerier(ctx)
	ownerID := appctx.GetUserID(ctx)

	query := `
		SELECT
			COALESCE((SELECT SUM(amount_paid) FROM doc_sales
				WHERE owner_id = $1 AND deletion_mark = FALSE AND status <> $2), 0),
			COALESCE((SELECT SUM(total_amount - amount_paid) FROM doc_sales
				WHERE owner_id = $1 AND deletion_mark = FALSE AND status <> $2), 0),
			COALESCE((SELECT SUM(amount) FROM doc_expenses
				WHERE owner_id = $1 AND deletion_mark = FALSE), 0),
			(SELECT COUNT(*) FROM doc_sales
				WHERE owner_id = $1 AND deletion_mark = FALSE AND status <> $2),
			(SELECT COUNT(*) FROM cat_clients
				WHERE owner_id = $1 AND deletion_mark = FALSE),
			(SELECT COUNT(*) FROM cat_products
				WHERE owner_id = $1 AND deletion_mark = FALSE),
			(SELECT COUNT(*) FROM cat_products
				WHERE owner_id = $1 AND deletion_mark = FALSE
				AND is_sellable = TRUE AND quantity <= alert_threshold)
	`

	var dash reports.Dashboard
	err := q.QueryRow(ctx, query, ownerID, sale.StatusCancelled).Scan(
		&dash.Revenue, &dash.Outstanding, &dash.ExpenseTotal,
		&dash.SalesCount, &dash.ClientCount, &dash.ProductCount, &dash.LowStockCount,
	)
	if err != nil {
		return nil, fmt.Errorf("query dashboard totals: %w", err)
	}

	return &dash, nil
}

// RecentSales returns the latest non-cancelled sales.
func (r *ReportRepo) RecentSales(ctx context.Context, limit int) ([]reports.RecentSale, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT id, number, client_name, total_amount, status, date
		FROM doc_sales
		WHERE owner_id = $1 AND deletion_mark = FALSE AND status <> $2
		ORDER BY date DESC, created_at DESC
		LIMIT $3
	`

	rows, err := q.Query(ctx, query, appctx.GetUserID(ctx), sale.StatusCancelled, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent sales: %w", err)
	}
	defer rows.Close()

	var items []reports.RecentSale
	for rows.Next() {
		var rs reports.RecentSale
		err := rows.Scan(&rs.ID, &rs.Number, &rs.ClientName, &rs.TotalAmount, &rs.Status, &rs.Date)
		if err != nil {
			return nil, fmt.Errorf("scan recent sale: %w", err)
		}
		items = append(items, rs)
	}

	return items, nil
}

// RevenueByMonth returns the per-month revenue since the given date.
// Months with no sales are absent from the result.
func (r *ReportRepo) RevenueByMonth(ctx context.Context, since time.Time) ([]reports.MonthRevenue, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT date_trunc('month', date) AS month, COALESCE(SUM(amount_paid), 0) AS revenue
		FROM doc_sales
		WHERE owner_id = $1 AND deletion_mark = FALSE AND status <> $2 AND date >= $3
		GROUP BY 1
		ORDER BY 1
	`

	rows, err := q.Query(ctx, query, appctx.GetUserID(ctx), sale.StatusCancelled, since)
	if err != nil {
		return nil, fmt.Errorf("query revenue series: %w", err)
	}
	defer rows.Close()

	var series []reports.MonthRevenue
	for rows.Next() {
		var point reports.MonthRevenue
		if err := rows.Scan(&point.Month, &point.Revenue); err != nil {
			return nil, fmt.Errorf("scan revenue point: %w", err)
		}
		series = append(series, point)
	}

	return series, nil
}
