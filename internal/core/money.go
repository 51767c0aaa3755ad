// Package core provides the ledger's domain types, their parsing from raw
// user input and the typed errors shared by every layer.
//
// Amounts are held as integer cents. Parsing and rendering go through
// shopspring/decimal so no float arithmetic touches a stored value.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Zero,
// negative and unparsable values are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return decimalToCents(d)
}

func decimalToCents(d decimal.Decimal) (int64, error) {
	cents := d.Round(2).Shift(2)
	if cents.Sign() <= 0 || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ParseAmount parses a user supplied amount into Money.
func ParseAmount(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// MoneyFromFloat converts a numeric spreadsheet cell into Money, rounding to
// the nearest cent.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, ErrInvalidAmount
	}
	cents, err := decimalToCents(decimal.NewFromFloat(f))
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units as a float64, for spreadsheet
// cells only. Use Cents for arithmetic.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String renders the amount with exactly two decimals, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}
