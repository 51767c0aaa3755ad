package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"5000", 500000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false}, // rounds to zero
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	m, err := MoneyFromFloat(12.5)
	if err != nil || m.Cents != 1250 {
		t.Fatalf("expected 1250, got %d (err=%v)", m.Cents, err)
	}
	m, err = MoneyFromFloat(0.1 + 0.2)
	if err != nil || m.Cents != 30 {
		t.Fatalf("expected 30, got %d (err=%v)", m.Cents, err)
	}
	if _, err := MoneyFromFloat(-3); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		123450: "1234.50",
		-250:   "-2.50",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: expected %q, got %q", cents, want, got)
		}
	}
	b, _ := Money{Cents: 1999}.MarshalJSON()
	if string(b) != "19.99" {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 500}
	b := Money{Cents: 120}
	if a.Add(b).Cents != 620 || a.Sub(b).Cents != 380 || a.Neg().Cents != -500 {
		t.Fatalf("arithmetic mismatch")
	}
	if !(Money{}).IsZero() {
		t.Fatalf("zero value should be zero")
	}
}
