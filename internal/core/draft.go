package core

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	dateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
}

// ParseDate accepts ISO dates, ISO timestamps and day-first slash dates. The
// result is truncated to its calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, ErrInvalidDate
}

// Draft carries the raw, unvalidated fields of a transaction as they arrive
// from a form, a request body or command line flags.
type Draft struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

// Parse converts the draft into a Transaction. The first invalid field is
// reported as a *ValidationError. Category membership is not checked here.
func (d Draft) Parse() (Transaction, error) {
	typ, err := ParseTransactionType(d.Type)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "type", Err: err}
	}
	date, err := ParseDate(d.Date)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "date", Err: err}
	}
	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "amount", Err: err}
	}
	tx := Transaction{
		Date:        date,
		Description: strings.TrimSpace(d.Description),
		Amount:      amount,
		Category:    strings.TrimSpace(d.Category),
		Type:        typ,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}
