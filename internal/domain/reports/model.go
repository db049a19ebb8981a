// Package reports computes the dashboard aggregates shown on the home
// screen: revenue, outstanding receivables, expenses and activity counters.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/id"
)

// Dashboard is the aggregate snapshot for the current user.
type Dashboard struct {
	Revenue       decimal.Decimal `json:"revenue"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	ExpenseTotal  decimal.Decimal `json:"expenseTotal"`
	NetIncome     decimal.Decimal `json:"netIncome"`
	SalesCount    int             `json:"salesCount"`
	ClientCount   int             `json:"clientCount"`
	ProductCount  int             `json:"productCount"`
	LowStockCount int             `json:"lowStockCount"`
	RecentSales   []RecentSale    `json:"recentSales"`
	RevenueSeries []MonthRevenue  `json:"revenueSeries"`
}

// RecentSale is a condensed sale row for the dashboard list.
type RecentSale struct {
	ID          id.ID           `db:"id" json:"id"`
	Number      string          `db:"number" json:"number"`
	ClientName  string          `db:"client_name" json:"clientName"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"totalAmount"`
	Status      string          `db:"status" json:"status"`
	Date        time.Time       `db:"date" json:"date"`
}

// MonthRevenue is one point of the month-over-month revenue chart.
type MonthRevenue struct {
	Month   time.Time       `db:"month" json:"month"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
}
