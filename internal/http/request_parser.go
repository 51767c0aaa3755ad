package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"finance/internal/core"
	"finance/internal/report"
)

const maxBodyBytes = 64 << 10

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// flexString accepts a JSON string or a bare number, so amounts may be sent
// either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}

// transactionRequest is the body of POST and PUT transaction requests.
type transactionRequest struct {
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Amount      flexString `json:"amount"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
}

func (t transactionRequest) draft() core.Draft {
	return core.Draft{
		Date:        sanitizeInput(t.Date),
		Description: sanitizeInput(t.Description),
		Amount:      sanitizeInput(string(t.Amount)),
		Category:    sanitizeInput(t.Category),
		Type:        sanitizeInput(t.Type),
	}
}

// decodeDraft reads a transaction request body. Field values are not
// validated here; that is the ledger's job.
func decodeDraft(w http.ResponseWriter, r *http.Request) (core.Draft, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req transactionRequest
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return core.Draft{}, badRequest("request body too large")
		case errors.Is(err, io.EOF):
			return core.Draft{}, badRequest("request body is empty")
		default:
			return core.Draft{}, badRequest("invalid JSON body: " + err.Error())
		}
	}
	if dec.More() {
		return core.Draft{}, badRequest("request body must contain a single JSON object")
	}
	return req.draft(), nil
}

// parseID reads the positional transaction id from the URL.
func parseID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, badRequest(fmt.Sprintf("invalid transaction id %q", raw))
	}
	return id, nil
}

// ParseMonthParams extracts year and month from the query, defaulting to the
// month of now when both are absent. Giving only one of them is an error.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	p, ok, err := parseOptionalMonth(query)
	if err != nil {
		return MonthParams{}, err
	}
	if !ok {
		return MonthParams{Year: now.Year(), Month: int(now.Month())}, nil
	}
	return p, nil
}

// parseOptionalMonth reports ok=false when neither year nor month is given.
func parseOptionalMonth(query url.Values) (MonthParams, bool, error) {
	ys := strings.TrimSpace(query.Get("year"))
	ms := strings.TrimSpace(query.Get("month"))
	if ys == "" && ms == "" {
		return MonthParams{}, false, nil
	}
	if ys == "" || ms == "" {
		return MonthParams{}, false, badRequest("year and month must be given together")
	}
	year, err := strconv.Atoi(ys)
	if err != nil || year < 1 || year > 9999 {
		return MonthParams{}, false, badRequest(fmt.Sprintf("invalid year %q", ys))
	}
	month, err := strconv.Atoi(ms)
	if err != nil || month < 1 || month > 12 {
		return MonthParams{}, false, badRequest(fmt.Sprintf("invalid month %q", ms))
	}
	return MonthParams{Year: year, Month: month}, true, nil
}

// parseTypeFilter reads ?type, defaulting to every type.
func parseTypeFilter(query url.Values) (core.TransactionType, error) {
	t, err := core.ParseTypeFilter(query.Get("type"))
	if err != nil {
		return "", &core.ValidationError{Field: "type", Err: err}
	}
	return t, nil
}

// parseRefDate reads ?date, defaulting to now.
func parseRefDate(query url.Values, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(query.Get("date"))
	if raw == "" {
		return now, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequest(fmt.Sprintf("invalid date %q", raw))
	}
	return d.Time, nil
}

// parseLimit reads ?n for the recent transactions list.
func parseLimit(query url.Values) (int, error) {
	raw := strings.TrimSpace(query.Get("n"))
	if raw == "" {
		return report.DefaultRecent, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest(fmt.Sprintf("invalid n %q", raw))
	}
	return n, nil
}
