package reports

import (
	"context"
	"fmt"
	"time"
)

// Repository runs the aggregate queries backing the dashboard.
type Repository interface {
	// Totals returns revenue, outstanding and expense sums plus counters,
	// all scoped to the current user.
	Totals(ctx context.Context) (*Dashboard, error)

	// RecentSales returns the latest non-cancelled sales.
	RecentSales(ctx context.Context, limit int) ([]RecentSale, error)

	// RevenueByMonth returns the per-month revenue since the given date.
	RevenueByMonth(ctx context.Context, since time.Time) ([]MonthRevenue, error)
}

// Service assembles the dashboard.
type Service struct {
	repo Repository
}

// NewService creates a reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

const (
	recentSalesLimit  = 5
	revenueSeriesSpan = 12 // months
)

// Dashboard computes the full dashboard snapshot for the current user.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	dash, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}
	dash.NetIncome = dash.Revenue.Sub(dash.ExpenseTotal)

	dash.RecentSales, err = s.repo.RecentSales(ctx, recentSalesLimit)
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}

	since := monthStart(time.Now()).AddDate(0, -(revenueSeriesSpan - 1), 0)
	dash.RevenueSeries, err = s.repo.RevenueByMonth(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("revenue series: %w", err)
	}

	return dash, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
