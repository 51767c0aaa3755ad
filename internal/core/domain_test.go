package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := NewDate(2024, 3, 5)
	for _, in := range []string{"2024-03-05", "05/03/2024", "2024-03-05 13:45:00", "2024-03-05T23:59:59Z", " 2024/03/05 "} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if !got.Equal(want.Time) {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
	for _, in := range []string{"", "yesterday", "2024-13-01", "31/02/2024"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"entrada", Income, true},
		{"Income", Income, true},
		{"saida", Expense, true},
		{"SAÍDA", Expense, true},
		{" expense ", Expense, true},
		{"all", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok != (err == nil) || got != tc.want {
			t.Fatalf("%q: got %q, err=%v", tc.in, got, err)
		}
	}

	for _, in := range []string{"", "all", "Todos"} {
		got, err := ParseTypeFilter(in)
		if err != nil || got != AllTypes {
			t.Fatalf("%q: expected AllTypes, got %q (err=%v)", in, got, err)
		}
	}
	if got, _ := ParseTypeFilter("income"); got != Income {
		t.Fatalf("expected Income filter, got %q", got)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		Category:    "Food",
		Type:        Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := map[string]Transaction{
		"date":        {Date: Date{}, Description: "a", Amount: Money{Cents: 1}, Category: "c", Type: Expense},
		"description": {Date: NewDate(2025, 1, 1), Description: "  ", Amount: Money{Cents: 1}, Category: "c", Type: Expense},
		"amount":      {Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}, Category: "c", Type: Expense},
		"category":    {Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: "", Type: Expense},
		"type":        {Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: "c", Type: AllTypes},
	}
	for field, tx := range bads {
		err := tx.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != field {
			t.Fatalf("%s: expected validation error on field, got %v", field, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation kind", field)
		}
	}
}

func TestDraftParse(t *testing.T) {
	tx, err := Draft{
		Date:        "2024-01-15",
		Description: "  Paycheck ",
		Amount:      "5000,00",
		Category:    "Salary",
		Type:        "entrada",
	}.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Description != "Paycheck" || tx.Amount.Cents != 500000 || tx.Type != Income {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	_, err = Draft{Date: "2024-01-15", Description: "x", Amount: "-3", Category: "Food", Type: "saida"}.Parse()
	if !errors.Is(err, ErrInvalidAmount) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected amount validation error, got %v", err)
	}
}

func TestSignedAmount(t *testing.T) {
	in := Transaction{Amount: Money{Cents: 100}, Type: Income}
	out := Transaction{Amount: Money{Cents: 100}, Type: Expense}
	if in.SignedAmount().Cents != 100 || out.SignedAmount().Cents != -100 {
		t.Fatalf("signed amounts wrong")
	}
}

func TestTypedErrors(t *testing.T) {
	nf := error(&NotFoundError{ID: 7})
	if !errors.Is(nf, ErrNotFound) || errors.Is(nf, ErrValidation) {
		t.Fatalf("not found kind mismatch")
	}
	cause := errors.New("disk full")
	pe := error(&PersistenceError{Op: "save", Err: cause})
	if !errors.Is(pe, ErrPersistence) || !errors.Is(pe, cause) {
		t.Fatalf("persistence error must unwrap to kind and cause")
	}
}

func TestSnapshotHelpers(t *testing.T) {
	s := Snapshot{Transactions: []Transaction{{ID: 1}, {ID: 4}, {ID: 2}}}
	if s.MaxID() != 4 {
		t.Fatalf("expected max 4")
	}
	if i, ok := s.Find(4); !ok || i != 1 {
		t.Fatalf("find failed")
	}
	if _, ok := s.Find(9); ok {
		t.Fatalf("unexpected find")
	}
	c := s.Clone()
	c.Transactions[0].ID = 99
	if s.Transactions[0].ID != 1 {
		t.Fatalf("clone shares backing array")
	}
}
