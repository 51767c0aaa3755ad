package http

import (
	"net/http"

	"finance/internal/core"
	"finance/internal/report"
)

type dashboardResponse struct {
	report.Dashboard
	Warning string `json:"warning,omitempty"`
}

type monthlyTotalsResponse struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	report.Totals
	Warning string `json:"warning,omitempty"`
}

type categoryReportResponse struct {
	Year       int                   `json:"year"`
	Month      int                   `json:"month"`
	HasData    bool                  `json:"has_data"`
	Categories []core.CategoryAmount `json:"categories"`
	Warning    string                `json:"warning,omitempty"`
}

type seriesResponse struct {
	Series  []report.MonthPoint `json:"series"`
	Warning string              `json:"warning,omitempty"`
}

type balanceResponse struct {
	Balance []report.BalancePoint `json:"balance"`
	Warning string                `json:"warning,omitempty"`
}

// loadWarning accompanies the empty results served when the ledger cannot be
// read. The store logs the cause.
const loadWarning = "ledger storage unavailable, showing an empty ledger"

// loadTransactions is the read path shared by every read endpoint. A failed
// load yields an empty ledger and a warning for the response.
func (s *Server) loadTransactions(r *http.Request) ([]core.Transaction, string) {
	snap, err := s.store.Load(r.Context())
	if err != nil {
		return snap.Transactions, loadWarning
	}
	return snap.Transactions, ""
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ref, err := parseRefDate(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, warning := s.loadTransactions(r)
	writeJSON(w, http.StatusOK, dashboardResponse{Dashboard: report.BuildDashboard(txs, ref), Warning: warning})
}

func (s *Server) handleMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, warning := s.loadTransactions(r)
	writeJSON(w, http.StatusOK, monthlyTotalsResponse{
		Year:    p.Year,
		Month:   p.Month,
		Totals:  report.MonthlyTotals(txs, p.Year, p.Month),
		Warning: warning,
	})
}

func (s *Server) handleExpenseByCategory(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, warning := s.loadTransactions(r)
	resp := categoryReportResponse{Year: p.Year, Month: p.Month, Categories: []core.CategoryAmount{}, Warning: warning}
	if byCat, found := report.ExpenseByCategory(txs, p.Year, p.Month); found {
		resp.HasData = true
		resp.Categories = report.SortedCategories(byCat)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	txs, warning := s.loadTransactions(r)
	writeJSON(w, http.StatusOK, seriesResponse{Series: report.MonthlySeries(txs), Warning: warning})
}

func (s *Server) handleCumulativeBalance(w http.ResponseWriter, r *http.Request) {
	txs, warning := s.loadTransactions(r)
	writeJSON(w, http.StatusOK, balanceResponse{Balance: report.CumulativeBalance(txs), Warning: warning})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	n, err := parseLimit(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, warning := s.loadTransactions(r)
	recent := report.RecentTransactions(txs, n)
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: recent, Count: len(recent), Warning: warning})
}
