package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finance/internal/categories"
	"finance/internal/core"
	"finance/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the dashboard for a month",
		Long: `Show monthly income, expense and balance, expenses by category, the
monthly series, the running balance and the most recent transactions. The
month is the one containing --date, today by default.`,
		Args: cobra.NoArgs,
		RunE: a.withLedger(func(cmd *cobra.Command, _ []string, s *session) error {
			ref := time.Now()
			if date != "" {
				d, err := core.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
				}
				ref = d.Time
			}

			dash := report.BuildDashboard(loadOrWarn(cmd, s), ref)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), dash)
			}
			return printDashboard(cmd.OutOrStdout(), dash)
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "reference date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the categories valid for a transaction type",
		Long: `List the categories valid for a transaction type. When the ledger has no
categories of a type, the built-in defaults are listed and marked as such.`,
		Args: cobra.NoArgs,
		RunE: a.withLedger(func(cmd *cobra.Command, _ []string, s *session) error {
			filter, err := core.ParseTypeFilter(typ)
			if err != nil {
				return &core.ValidationError{Field: "type", Err: err}
			}
			reg, err := s.store.Registry(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			out := cmd.OutOrStdout()
			types := []core.TransactionType{filter}
			if filter == core.AllTypes {
				types = core.Types()
			}
			for i, t := range types {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printCategoryList(cmd, reg, t)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "all", "transaction type: entrada, saida or all")
	return cmd
}

func printCategoryList(cmd *cobra.Command, reg *categories.Registry, t core.TransactionType) {
	out := cmd.OutOrStdout()
	title := t.Label()
	if !reg.IsPersisted(t) {
		title += " (defaults)"
	}
	fmt.Fprintf(out, "%s:\n", title)
	for _, name := range reg.CategoriesFor(t) {
		fmt.Fprintf(out, "  %s\n", name)
	}
}
