package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"finance/internal/categories"
	"finance/internal/core"
	"finance/internal/report"
)

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	Warning      string             `json:"warning,omitempty"`
}

type categoriesResponse struct {
	Type       core.TransactionType `json:"type"`
	Categories []string             `json:"categories"`
	Persisted  bool                 `json:"persisted"`
	Warning    string               `json:"warning,omitempty"`
}

type suggestionResponse struct {
	Category string `json:"category,omitempty"`
	Found    bool   `json:"found"`
	Warning  string `json:"warning,omitempty"`
}

// handleListTransactions returns the ledger, narrowed to a month and/or type
// when asked.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	month, byMonth, err := parseOptionalMonth(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	typ, err := parseTypeFilter(query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, err := s.store.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs := snap.Transactions
	if byMonth {
		txs = report.Filter(txs, month.Year, month.Month, typ)
	} else if typ != core.AllTypes {
		txs = report.FilterType(txs, typ)
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, Count: len(txs), Warning: warning})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeDraft(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.writeMu.Lock()
	tx, err := s.store.Add(r.Context(), draft)
	s.writeMu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/transactions/"+strconv.Itoa(tx.ID))
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	draft, err := decodeDraft(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.writeMu.Lock()
	tx, err := s.store.Edit(r.Context(), id, draft)
	s.writeMu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.writeMu.Lock()
	err = s.store.Delete(r.Context(), id)
	s.writeMu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFindByUID(w http.ResponseWriter, r *http.Request) {
	tx, err := s.store.FindByUID(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	typ, err := parseTypeFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	reg, warning := s.registry(r)
	writeJSON(w, http.StatusOK, categoriesResponse{
		Type:       typ,
		Categories: reg.CategoriesFor(typ),
		Persisted:  typ != core.AllTypes && reg.IsPersisted(typ),
		Warning:    warning,
	})
}

// handleSuggestCategory hints a category for a description. Only expenses
// have suggestions; ?type defaults to expense.
func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	typ := core.Expense
	if raw := query.Get("type"); raw != "" {
		t, err := core.ParseTransactionType(raw)
		if err != nil {
			writeError(w, r, &core.ValidationError{Field: "type", Err: err})
			return
		}
		typ = t
	}
	reg, warning := s.registry(r)
	name, ok := reg.SuggestFor(typ, sanitizeInput(query.Get("description")))
	writeJSON(w, http.StatusOK, suggestionResponse{Category: name, Found: ok, Warning: warning})
}

// registry returns the ledger's categories, or the default table with a
// warning when the ledger cannot be read.
func (s *Server) registry(r *http.Request) (*categories.Registry, string) {
	reg, err := s.store.Registry(r.Context())
	if err != nil {
		return reg, loadWarning
	}
	return reg, ""
}
