package categories

import (
	"slices"
	"strings"
	"unicode"

	"finance/internal/core"
)

// rule matches descriptions starting with one of prefixes or containing one
// of words as a whole word.
type rule struct {
	prefixes []string
	words    []string
	category string
}

var expenseRules = []rule{
	{prefixes: []string{"super"}, category: "Food"},
	{prefixes: []string{"conta", "fatura"}, words: []string{"bill", "bills", "invoice", "invoices"}, category: "Bills"},
}

// Suggest returns a category hint for an expense description. It is advisory
// only: the caller still validates whatever the user finally picks.
func Suggest(description string) (string, bool) {
	d := strings.ToLower(strings.TrimSpace(description))
	if d == "" {
		return "", false
	}
	words := strings.FieldsFunc(d, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, r := range expenseRules {
		for _, p := range r.prefixes {
			if strings.HasPrefix(d, p) {
				return r.category, true
			}
		}
		for _, w := range r.words {
			if slices.Contains(words, w) {
				return r.category, true
			}
		}
	}
	return "", false
}

// SuggestFor is Suggest restricted to categories the registry accepts for t.
func (r *Registry) SuggestFor(t core.TransactionType, description string) (string, bool) {
	if t != core.Expense {
		return "", false
	}
	name, ok := Suggest(description)
	if !ok || !r.IsValid(t, name) {
		return "", false
	}
	return name, true
}
