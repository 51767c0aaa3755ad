package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"finance/internal/core"
	"finance/internal/report"
)

// draftFlags are the transaction fields accepted by add and edit.
type draftFlags struct {
	date        string
	description string
	amount      string
	category    string
	typ         string
}

func (f *draftFlags) register(fs *pflag.FlagSet, defaultType string) {
	fs.StringVar(&f.date, "date", "", "transaction date, YYYY-MM-DD")
	fs.StringVar(&f.description, "description", "", "free text description")
	fs.StringVar(&f.amount, "amount", "", "positive amount, e.g. 42.90 or 42,90")
	fs.StringVar(&f.category, "category", "", "category name valid for the type")
	fs.StringVarP(&f.typ, "type", "t", defaultType, "transaction type: entrada/income or saida/expense")
}

// apply overwrites the draft fields whose flags were set.
func (f *draftFlags) apply(fs *pflag.FlagSet, d *core.Draft) {
	if fs.Changed("date") {
		d.Date = f.date
	}
	if fs.Changed("description") {
		d.Description = f.description
	}
	if fs.Changed("amount") {
		d.Amount = f.amount
	}
	if fs.Changed("category") {
		d.Category = f.category
	}
	if fs.Changed("type") {
		d.Type = f.typ
	}
}

func newAddCmd(a *app) *cobra.Command {
	var f draftFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new transaction",
		Long: `Record a new transaction. The date defaults to today. When --category is
omitted for an expense, a category is suggested from the description.`,
		Example: `  finance add --amount 42.90 --description "Supermarket run"
  finance add --date 2024-03-05 --amount 3000 --description Paycheck --category Salary --type entrada`,
		Args: cobra.NoArgs,
		RunE: a.withLedger(func(cmd *cobra.Command, _ []string, s *session) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			draft := core.Draft{Date: core.DateOf(time.Now()).String(), Type: f.typ}
			f.apply(cmd.Flags(), &draft)

			if strings.TrimSpace(draft.Category) == "" {
				if typ, err := core.ParseTransactionType(draft.Type); err == nil {
					if reg, err := s.store.Registry(ctx); err == nil {
						if name, ok := reg.SuggestFor(typ, draft.Description); ok {
							draft.Category = name
							fmt.Fprintf(out, "Using suggested category %q\n", name)
						}
					}
				}
			}

			tx, err := s.store.Add(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Added transaction #%d\n", tx.ID)
			return printTransactions(out, []core.Transaction{tx})
		}),
	}
	f.register(cmd.Flags(), string(core.Expense))
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var f draftFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of an existing transaction",
		Long: `Change fields of an existing transaction. Only the flags given are changed;
the record is revalidated as a whole before it is saved.`,
		Example: `  finance edit 3 --amount 18.40
  finance edit 7 --category Transport --description "Bus pass"`,
		Args: cobra.ExactArgs(1),
		RunE: a.withLedger(func(cmd *cobra.Command, args []string, s *session) error {
			ctx := cmd.Context()
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			snap, err := s.store.Load(ctx)
			if err != nil {
				return err
			}
			idx, ok := snap.Find(id)
			if !ok {
				return &core.NotFoundError{ID: id}
			}
			current := snap.Transactions[idx]
			draft := core.Draft{
				Date:        current.Date.String(),
				Description: current.Description,
				Amount:      current.Amount.String(),
				Category:    current.Category,
				Type:        string(current.Type),
			}
			f.apply(cmd.Flags(), &draft)

			tx, err := s.store.Edit(ctx, id, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated transaction #%d\n", tx.ID)
			return printTransactions(cmd.OutOrStdout(), []core.Transaction{tx})
		}),
	}
	f.register(cmd.Flags(), "")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a transaction",
		Long: `Delete a transaction. Remaining transactions are renumbered 1..N, so ids
shown by an earlier list may no longer match.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withLedger(func(cmd *cobra.Command, args []string, s *session) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			if err := s.store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction #%d\n", id)
			return nil
		}),
	}
}

func newListCmd(a *app) *cobra.Command {
	var (
		year, month int
		typ         string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List transactions",
		Example: `  finance list
  finance list --year 2024 --month 3 --type saida`,
		Args: cobra.NoArgs,
		RunE: a.withLedger(func(cmd *cobra.Command, _ []string, s *session) error {
			fs := cmd.Flags()
			byMonth := fs.Changed("year") || fs.Changed("month")
			if byMonth {
				if !fs.Changed("year") || !fs.Changed("month") {
					return errors.New("--year and --month must be given together")
				}
				if year < 1 || year > 9999 || month < 1 || month > 12 {
					return fmt.Errorf("invalid month %04d-%02d", year, month)
				}
			}
			filter, err := core.ParseTypeFilter(typ)
			if err != nil {
				return &core.ValidationError{Field: "type", Err: err}
			}

			txs := loadOrWarn(cmd, s)
			switch {
			case byMonth:
				txs = report.Filter(txs, year, month, filter)
			case filter != core.AllTypes:
				txs = report.FilterType(txs, filter)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), txs)
			}
			if err := printTransactions(cmd.OutOrStdout(), txs); err != nil {
				return err
			}
			if len(txs) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d transaction(s), balance %s\n", len(txs), formatMoney(report.Sum(txs).Balance))
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&year, "year", 0, "filter by year (with --month)")
	cmd.Flags().IntVar(&month, "month", 0, "filter by month 1-12 (with --year)")
	cmd.Flags().StringVarP(&typ, "type", "t", "all", "filter by type: entrada, saida or all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// loadOrWarn loads the ledger for read-only commands. A persistence failure
// is reported on stderr and treated as an empty ledger.
func loadOrWarn(cmd *cobra.Command, s *session) []core.Transaction {
	snap, err := s.store.Load(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return snap.Transactions
}

func parseIDArg(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid transaction id %q: must be a positive integer", raw)
	}
	return id, nil
}
