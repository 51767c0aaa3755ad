// Package report derives summaries and time series from a ledger snapshot.
// Every function is pure: results are recomputed from the slice passed in and
// nothing reads the system clock.
package report

import (
	"cmp"
	"slices"

	"finance/internal/core"
)

// DefaultRecent is the number of rows RecentTransactions returns by default.
const DefaultRecent = 5

type (
	Totals struct {
		Income  core.Money `json:"income"`
		Expense core.Money `json:"expense"`
		Balance core.Money `json:"balance"`
	}

	MonthPoint struct {
		YearMonth string     `json:"year_month"`
		Income    core.Money `json:"income"`
		Expense   core.Money `json:"expense"`
	}

	BalancePoint struct {
		Date        core.Date  `json:"date"`
		Transaction int        `json:"transaction_id"`
		Balance     core.Money `json:"balance"`
	}
)

// Filter returns the transactions dated in (year, month) whose type matches
// typ. core.AllTypes matches every type. Input order is preserved.
func Filter(txs []core.Transaction, year, month int, typ core.TransactionType) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, tx := range txs {
		if !tx.Date.In(year, month) {
			continue
		}
		if typ != core.AllTypes && tx.Type != typ {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// FilterType returns the transactions of type typ across all dates.
// core.AllTypes returns a copy of txs.
func FilterType(txs []core.Transaction, typ core.TransactionType) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if typ == core.AllTypes || tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out
}

// Sum totals income and expense over txs without any date filter.
func Sum(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// MonthlyTotals sums income and expense for one calendar month. An empty
// month yields zero totals.
func MonthlyTotals(txs []core.Transaction, year, month int) Totals {
	return Sum(Filter(txs, year, month, core.AllTypes))
}

// ExpenseByCategory groups the month's expenses by category. The boolean is
// false when the month has no expense at all, which is distinct from an
// empty or zero-valued mapping.
func ExpenseByCategory(txs []core.Transaction, year, month int) (map[string]core.Money, bool) {
	expenses := Filter(txs, year, month, core.Expense)
	if len(expenses) == 0 {
		return nil, false
	}
	byCat := make(map[string]core.Money)
	for _, tx := range expenses {
		byCat[tx.Category] = byCat[tx.Category].Add(tx.Amount)
	}
	return byCat, true
}

// SortedCategories orders a category mapping by amount descending, then by
// name.
func SortedCategories(byCat map[string]core.Money) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(byCat))
	for name, amount := range byCat {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.CategoryAmount) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// MonthlySeries groups the whole ledger by "YYYY-MM" and sums each type. The
// result is ordered by ascending key.
func MonthlySeries(txs []core.Transaction) []MonthPoint {
	idx := make(map[string]int)
	out := make([]MonthPoint, 0)
	for _, tx := range txs {
		key := tx.Date.YearMonth()
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, MonthPoint{YearMonth: key})
		}
		switch tx.Type {
		case core.Income:
			out[i].Income = out[i].Income.Add(tx.Amount)
		case core.Expense:
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}
	slices.SortFunc(out, func(a, b MonthPoint) int {
		return cmp.Compare(a.YearMonth, b.YearMonth)
	})
	return out
}

// CumulativeBalance orders transactions by date ascending, keeping snapshot
// order among equal dates, and returns the running signed balance after each
// one.
func CumulativeBalance(txs []core.Transaction) []BalancePoint {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})
	out := make([]BalancePoint, 0, len(sorted))
	var running core.Money
	for _, tx := range sorted {
		running = running.Add(tx.SignedAmount())
		out = append(out, BalancePoint{Date: tx.Date, Transaction: tx.ID, Balance: running})
	}
	return out
}

// RecentTransactions returns at most n transactions, newest date first. Among
// equal dates the one later in the snapshot comes first, so a same-day entry
// added last is shown on top. n <= 0 yields an empty result.
func RecentTransactions(txs []core.Transaction, n int) []core.Transaction {
	if n <= 0 || len(txs) == 0 {
		return []core.Transaction{}
	}
	sorted := slices.Clone(txs)
	slices.Reverse(sorted)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
