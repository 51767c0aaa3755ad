package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"finance/internal/core"
	"finance/internal/report"
)

// formatMoney renders an amount with thousands separators, e.g. "1,234.50".
func formatMoney(m core.Money) string {
	return humanize.FormatFloat("#,###.##", m.Float())
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printTransactions(w io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		_, err := fmt.Fprintln(w, "No transactions.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Type.Label(), tx.Category, formatMoney(tx.Amount), tx.Description)
	}
	return tw.Flush()
}

func printTotals(w io.Writer, title string, t report.Totals) {
	fmt.Fprintln(w, title)
	tw := newTable(w)
	fmt.Fprintf(tw, "  Income\t%s\n", formatMoney(t.Income))
	fmt.Fprintf(tw, "  Expense\t%s\n", formatMoney(t.Expense))
	fmt.Fprintf(tw, "  Balance\t%s\n", formatMoney(t.Balance))
	tw.Flush()
}

func printDashboard(w io.Writer, d report.Dashboard) error {
	printTotals(w, fmt.Sprintf("Month %04d-%02d", d.Year, d.Month), d.Current)
	fmt.Fprintln(w)
	printTotals(w, "All time", d.Overall)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Expenses by category")
	if !d.HasExpense {
		fmt.Fprintln(w, "  No expense data for this month.")
	} else {
		tw := newTable(w)
		for _, c := range d.Categories {
			fmt.Fprintf(tw, "  %s\t%s\n", c.Name, formatMoney(c.Amount))
		}
		tw.Flush()
	}

	if len(d.Series) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Monthly")
		tw := newTable(w)
		fmt.Fprintln(tw, "  MONTH\tINCOME\tEXPENSE")
		for _, p := range d.Series {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.YearMonth, formatMoney(p.Income), formatMoney(p.Expense))
		}
		tw.Flush()
	}

	if n := len(d.Balance); n > 0 {
		last := d.Balance[n-1]
		fmt.Fprintf(w, "\nRunning balance on %s: %s\n", last.Date, formatMoney(last.Balance))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recent transactions")
	return printTransactions(w, d.Recent)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
