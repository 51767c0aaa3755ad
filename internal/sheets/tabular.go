package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"finance/internal/core"
)

// Column names written by every tabular backend.
var (
	TransactionHeader = []string{"id", "uid", "date", "description", "amount", "category", "type"}
	CategoryHeader    = []string{"type", "category"}
)

// Legacy workbooks use Portuguese headers.
var headerAliases = map[string]string{
	"data":      "date",
	"descricao": "description",
	"descrição": "description",
	"valor":     "amount",
	"categoria": "category",
	"tipo":      "type",
}

var requiredTransactionColumns = []string{"date", "description", "amount", "category", "type"}

// RowError reports a malformed data row. Row is 1-based and counts the header.
type RowError struct {
	Table string
	Row   int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Table, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if alias, ok := headerAliases[h]; ok {
		return alias
	}
	return h
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, dup := idx[name]; !dup && name != "" {
			idx[name] = i
		}
	}
	return idx
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ToStrings flattens a row of API cell values.
func ToStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// parseCellDate accepts the text layouts of core.ParseDate and spreadsheet
// date serials, which Excel and Google Sheets both count from 1899-12-30.
func parseCellDate(s string) (core.Date, error) {
	if d, err := core.ParseDate(s); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return core.Date{}, core.ErrInvalidDate
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.DateOf(t), nil
}

// DecodeTransactions parses a transactions table, header row first. Blank
// rows are skipped. A missing id column or blank id cell yields the row's
// position; a missing uid gets a fresh one. Two rows with the same id fail
// the decode.
func DecodeTransactions(rows [][]string) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0)
	if len(rows) == 0 || isBlank(rows[0]) {
		return out, nil
	}
	idx := columnIndex(rows[0])
	for _, col := range requiredTransactionColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("transactions header: missing column %q", col)
		}
	}
	col := func(name string) int {
		if i, ok := idx[name]; ok {
			return i
		}
		return -1
	}

	seen := make(map[int]int)
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		if isBlank(row) {
			continue
		}
		rowErr := func(err error) error {
			return &RowError{Table: "transactions", Row: r + 1, Err: err}
		}

		id := len(out) + 1
		if raw := safeGet(row, col("id")); raw != "" {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil || f < 1 || f != float64(int(f)) {
				return nil, rowErr(fmt.Errorf("invalid id %q", raw))
			}
			id = int(f)
		}
		if first, dup := seen[id]; dup {
			return nil, rowErr(fmt.Errorf("duplicate id %d, first used on row %d", id, first))
		}
		seen[id] = r + 1
		date, err := parseCellDate(safeGet(row, col("date")))
		if err != nil {
			return nil, rowErr(err)
		}
		amount, err := core.ParseAmount(safeGet(row, col("amount")))
		if err != nil {
			return nil, rowErr(err)
		}
		typ, err := core.ParseTransactionType(safeGet(row, col("type")))
		if err != nil {
			return nil, rowErr(err)
		}
		uid := safeGet(row, col("uid"))
		if uid == "" {
			uid = uuid.NewString()
		}
		out = append(out, core.Transaction{
			ID:          id,
			UID:         uid,
			Date:        date,
			Description: safeGet(row, col("description")),
			Amount:      amount,
			Category:    safeGet(row, col("category")),
			Type:        typ,
		})
	}
	return out, nil
}

// DecodeCategories parses a categories table, header row first.
func DecodeCategories(rows [][]string) ([]core.Category, error) {
	out := make([]core.Category, 0)
	if len(rows) == 0 || isBlank(rows[0]) {
		return out, nil
	}
	idx := columnIndex(rows[0])
	ti, ok1 := idx["type"]
	ci, ok2 := idx["category"]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("categories header: expected type and category columns, got %v", rows[0])
	}
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		if isBlank(row) {
			continue
		}
		typ, err := core.ParseTransactionType(safeGet(row, ti))
		if err != nil {
			return nil, &RowError{Table: "categories", Row: r + 1, Err: err}
		}
		out = append(out, core.Category{Type: typ, Name: safeGet(row, ci)})
	}
	return out, nil
}

// EncodeTransactions renders a transactions table, header first. Amounts are
// numeric cells and dates are ISO text.
func EncodeTransactions(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, headerRow(TransactionHeader))
	for _, tx := range txs {
		rows = append(rows, []any{
			tx.ID,
			tx.UID,
			tx.Date.String(),
			tx.Description,
			tx.Amount.Float(),
			tx.Category,
			string(tx.Type),
		})
	}
	return rows
}

// EncodeCategories renders a categories table, header first.
func EncodeCategories(cats []core.Category) [][]any {
	rows := make([][]any, 0, len(cats)+1)
	rows = append(rows, headerRow(CategoryHeader))
	for _, c := range cats {
		rows = append(rows, []any{string(c.Type), c.Name})
	}
	return rows
}

func headerRow(h []string) []any {
	out := make([]any, len(h))
	for i, v := range h {
		out[i] = v
	}
	return out
}
