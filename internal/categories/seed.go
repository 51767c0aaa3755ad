package categories

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"finance/internal/core"
)

// seedFile is the YAML layout of CATEGORIES_SEED_FILE:
//
//	income: [Salary, Freelance]
//	expense: [Food, Rent]
type seedFile struct {
	Income  []string `yaml:"income"`
	Expense []string `yaml:"expense"`
}

// LoadSeedFile returns the category rows a new ledger is created with. An
// empty path yields DefaultRows. A type left empty in the file falls back to
// its defaults.
func LoadSeedFile(path string) ([]core.Category, error) {
	if path == "" {
		return DefaultRows(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(data []byte) ([]core.Category, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	lists := map[core.TransactionType][]string{
		core.Income:  f.Income,
		core.Expense: f.Expense,
	}
	var rows []core.Category
	for _, t := range core.Types() {
		names := lists[t]
		if len(names) == 0 {
			names = defaults[t]
		}
		for _, name := range names {
			rows = append(rows, core.Category{Type: t, Name: name})
		}
	}
	// Normalize through the registry so blanks and duplicates are dropped.
	reg := New(rows)
	rows = rows[:0]
	for _, t := range core.Types() {
		for _, name := range reg.CategoriesFor(t) {
			rows = append(rows, core.Category{Type: t, Name: name})
		}
	}
	return rows, nil
}
