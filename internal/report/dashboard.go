package report

import (
	"time"

	"finance/internal/core"
)

// Dashboard is the overview for the month containing the reference date.
type Dashboard struct {
	Year       int                   `json:"year"`
	Month      int                   `json:"month"`
	Current    Totals                `json:"month_totals"`
	Overall    Totals                `json:"overall"`
	Categories []core.CategoryAmount `json:"expense_by_category"`
	HasExpense bool                  `json:"has_expense_data"`
	Series     []MonthPoint          `json:"monthly_series"`
	Balance    []BalancePoint        `json:"cumulative_balance"`
	Recent     []core.Transaction    `json:"recent"`
}

// BuildDashboard composes every aggregation for the month of ref.
func BuildDashboard(txs []core.Transaction, ref time.Time) Dashboard {
	year, month := ref.Year(), int(ref.Month())
	d := Dashboard{
		Year:       year,
		Month:      month,
		Current:    MonthlyTotals(txs, year, month),
		Overall:    Sum(txs),
		Categories: []core.CategoryAmount{},
		Series:     MonthlySeries(txs),
		Balance:    CumulativeBalance(txs),
		Recent:     RecentTransactions(txs, DefaultRecent),
	}
	if byCat, ok := ExpenseByCategory(txs, year, month); ok {
		d.Categories = SortedCategories(byCat)
		d.HasExpense = true
	}
	return d
}
