package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "entrada"
	Expense TransactionType = "saida"

	// AllTypes is a filter sentinel that matches both types. It is never stored.
	AllTypes TransactionType = "all"
)

const dateLayout = "2006-01-02"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger row. ID is positional: it is rewritten to
	// 1..N on every save, so it only identifies a record within one snapshot.
	// UID is the stable surrogate key.
	Transaction struct {
		ID          int             `json:"id"`
		UID         string          `json:"uid"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category"`
		Type        TransactionType `json:"type"`
	}

	Category struct {
		Type TransactionType `json:"type"`
		Name string          `json:"name"`
	}

	// Snapshot is the full persisted state: every transaction in ledger order
	// plus the category rows.
	Snapshot struct {
		Transactions []Transaction
		Categories   []Category
	}
)

// Types returns the storable transaction types in display order.
func Types() []TransactionType {
	return []TransactionType{Income, Expense}
}

func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether t is a storable type (AllTypes is not).
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// Label returns the English name used by the API and CLI.
func (t TransactionType) Label() string {
	switch t {
	case Income:
		return "income"
	case Expense:
		return "expense"
	case AllTypes:
		return "all"
	default:
		return string(t)
	}
}

// ParseTransactionType accepts the persisted tokens and their English names.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entrada", "income":
		return Income, nil
	case "saida", "saída", "expense":
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

// ParseTypeFilter is ParseTransactionType plus the "all" sentinel. An empty
// string also means all types.
func ParseTypeFilter(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return AllTypes, nil
	}
	return ParseTransactionType(s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// YearMonth returns the zero-padded "YYYY-MM" key, which sorts chronologically.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

// In reports whether the date falls in the given year and month.
func (d Date) In(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// SignedAmount returns +amount for income and -amount for expense.
func (t Transaction) SignedAmount() Money {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Validate checks the field rules that do not need the category registry.
func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return &ValidationError{Field: "type", Err: ErrInvalidType}
	}
	if err := t.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if err := t.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if strings.TrimSpace(t.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	return nil
}

// Clone returns a snapshot that shares no slices with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Transactions: append([]Transaction(nil), s.Transactions...),
		Categories:   append([]Category(nil), s.Categories...),
	}
}

// Find returns the index of the transaction with the given positional id.
func (s Snapshot) Find(id int) (int, bool) {
	for i, t := range s.Transactions {
		if t.ID == id {
			return i, true
		}
	}
	return -1, false
}

// MaxID returns the largest id in the snapshot, or 0 when it is empty.
func (s Snapshot) MaxID() int {
	max := 0
	for _, t := range s.Transactions {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}
