// Package xlsx stores the ledger in an Excel workbook with one sheet of
// transactions and one sheet of categories.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/xuri/excelize/v2"

	"finance/internal/core"
	ports "finance/internal/sheets"
)

const (
	DefaultTransactionsSheet = "Transactions"
	DefaultCategoriesSheet   = "Categories"
)

// Sheet names used by workbooks created before the English layout.
var (
	legacyTransactionsSheets = []string{"Transacoes", "Transações"}
	legacyCategoriesSheets   = []string{"Categorias"}
)

var (
	_ ports.Backend = (*Workbook)(nil)
	_ ports.Pinger  = (*Workbook)(nil)
)

type Options struct {
	Path              string
	TransactionsSheet string
	CategoriesSheet   string
	// Seed is the category set written when the workbook is first created.
	Seed []core.Category
}

type Workbook struct {
	path              string
	transactionsSheet string
	categoriesSheet   string
	seed              []core.Category
}

func New(opts Options) *Workbook {
	w := &Workbook{
		path:              opts.Path,
		transactionsSheet: opts.TransactionsSheet,
		categoriesSheet:   opts.CategoriesSheet,
		seed:              slices.Clone(opts.Seed),
	}
	if w.transactionsSheet == "" {
		w.transactionsSheet = DefaultTransactionsSheet
	}
	if w.categoriesSheet == "" {
		w.categoriesSheet = DefaultCategoriesSheet
	}
	return w
}

// Path returns the workbook location.
func (w *Workbook) Path() string {
	return w.path
}

// Init creates the workbook with no transactions and the seed categories when
// the file does not exist yet. It reports whether a file was created.
func (w *Workbook) Init(ctx context.Context) (bool, error) {
	if _, err := os.Stat(w.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", w.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return false, fmt.Errorf("create ledger directory: %w", err)
	}
	if err := w.Write(ctx, w.bootstrap()); err != nil {
		return false, err
	}
	return true, nil
}

// Read loads both sheets. A missing file reads as a new ledger: no
// transactions and the seed categories. A missing categories sheet reads as
// no persisted categories.
func (w *Workbook) Read(ctx context.Context) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return w.bootstrap(), nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	txSheet := findSheet(sheetList, w.transactionsSheet, legacyTransactionsSheets)
	if txSheet == "" {
		return core.Snapshot{}, fmt.Errorf("workbook %s has no %q sheet", w.path, w.transactionsSheet)
	}
	rows, err := f.GetRows(txSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read sheet %s: %w", txSheet, err)
	}
	txs, err := ports.DecodeTransactions(rows)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("decode sheet %s: %w", txSheet, err)
	}

	cats := []core.Category{}
	if catSheet := findSheet(sheetList, w.categoriesSheet, legacyCategoriesSheets); catSheet != "" {
		rows, err := f.GetRows(catSheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("read sheet %s: %w", catSheet, err)
		}
		if cats, err = ports.DecodeCategories(rows); err != nil {
			return core.Snapshot{}, fmt.Errorf("decode sheet %s: %w", catSheet, err)
		}
	}
	return core.Snapshot{Transactions: txs, Categories: cats}, nil
}

// Write replaces the workbook with a new one holding s. The file is written
// next to the target and renamed over it, so a failed write leaves the
// previous workbook intact.
func (w *Workbook) Write(ctx context.Context, s core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	if err := f.SetSheetName(first, w.transactionsSheet); err != nil {
		return fmt.Errorf("name sheet %s: %w", w.transactionsSheet, err)
	}
	if _, err := f.NewSheet(w.categoriesSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", w.categoriesSheet, err)
	}
	if err := writeRows(f, w.transactionsSheet, ports.EncodeTransactions(s.Transactions)); err != nil {
		return err
	}
	if err := writeRows(f, w.categoriesSheet, ports.EncodeCategories(s.Categories)); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".ledger-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close workbook: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("replace workbook: %w", err)
	}
	committed = true
	return nil
}

// Ping checks that the workbook directory is reachable.
func (w *Workbook) Ping(_ context.Context) error {
	dir := filepath.Dir(w.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("ledger directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("ledger directory %s is not a directory", dir)
	}
	return nil
}

func (w *Workbook) bootstrap() core.Snapshot {
	return core.Snapshot{
		Transactions: []core.Transaction{},
		Categories:   slices.Clone(w.seed),
	}
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func findSheet(list []string, name string, aliases []string) string {
	for _, candidate := range append([]string{name}, aliases...) {
		if slices.Contains(list, candidate) {
			return candidate
		}
	}
	return ""
}
