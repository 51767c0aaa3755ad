// Package categories resolves the valid category names for each transaction
// type. Lookup is two-tier: the persisted set for the type, and when that is
// empty, a built-in default table. Defaults are never written back.
package categories

import (
	"slices"
	"strings"

	"finance/internal/core"
)

var defaults = map[core.TransactionType][]string{
	core.Income:  {"Salary", "Investment", "Freelance", "Gift", "Other"},
	core.Expense: {"Food", "Housing", "Transport", "Health", "Education", "Leisure", "Clothing", "Bills", "Shopping", "Other"},
}

// Defaults returns a copy of the built-in category names for t.
func Defaults(t core.TransactionType) []string {
	return slices.Clone(defaults[t])
}

// DefaultRows returns the built-in table as category rows, income first.
// Backends use it to bootstrap a brand new ledger.
func DefaultRows() []core.Category {
	var rows []core.Category
	for _, t := range core.Types() {
		for _, name := range defaults[t] {
			rows = append(rows, core.Category{Type: t, Name: name})
		}
	}
	return rows
}

// Registry is an immutable view over the persisted category rows of one
// snapshot.
type Registry struct {
	persisted map[core.TransactionType][]string
}

// New builds a registry from persisted rows. Rows with an unknown type or a
// blank name are ignored; duplicates keep their first position.
func New(rows []core.Category) *Registry {
	r := &Registry{persisted: make(map[core.TransactionType][]string)}
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if !row.Type.IsValid() || name == "" {
			continue
		}
		if slices.Contains(r.persisted[row.Type], name) {
			continue
		}
		r.persisted[row.Type] = append(r.persisted[row.Type], name)
	}
	return r
}

// CategoriesFor returns the persisted names for t, or the defaults when none
// are persisted. AllTypes yields the income list followed by the expense list.
func (r *Registry) CategoriesFor(t core.TransactionType) []string {
	if t == core.AllTypes {
		return append(r.CategoriesFor(core.Income), r.CategoriesFor(core.Expense)...)
	}
	if names := r.persisted[t]; len(names) > 0 {
		return slices.Clone(names)
	}
	return Defaults(t)
}

// IsPersisted reports whether t resolves against persisted rows rather than
// the default table.
func (r *Registry) IsPersisted(t core.TransactionType) bool {
	return len(r.persisted[t]) > 0
}

// IsValid reports whether name is an accepted category for t.
func (r *Registry) IsValid(t core.TransactionType, name string) bool {
	if !t.IsValid() {
		return false
	}
	return slices.Contains(r.CategoriesFor(t), strings.TrimSpace(name))
}

// Validate checks that tx.Category resolves for tx.Type.
func (r *Registry) Validate(tx core.Transaction) error {
	if !r.IsValid(tx.Type, tx.Category) {
		return &core.ValidationError{Field: "category", Err: core.ErrUnknownCategory}
	}
	return nil
}
