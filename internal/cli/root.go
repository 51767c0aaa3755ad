package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// annotationLogs set to "stdout" sends a command's logs to stdout instead of
// stderr, for long running commands whose only output is their log.
const annotationLogs = "logs"

// app carries the global flags shared by every command.
type app struct {
	backendOverride string
}

// NewRootCmd builds the finance command tree. Every call returns an
// independent tree, so tests can execute commands side by side.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "finance",
		Short: "Personal finance ledger",
		Long: `finance keeps a personal ledger of income and expense transactions in an
Excel workbook, a SQLite database or a Google Sheets spreadsheet, and reports
monthly totals, spending by category and the running balance.

Configuration comes from the environment (and a .env file when present).
DATA_BACKEND selects the storage; see the README for every key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.backendOverride, "backend", "",
		"data backend to use (xlsx, sqlite, sheets, memory); overrides DATA_BACKEND")

	root.AddCommand(
		newServeCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newReportCmd(a),
		newCategoriesCmd(a),
		newWatchCmd(a),
		newMirrorCmd(a),
		newSheetsAuthCmd(),
	)
	return root
}

// Execute runs the command tree until it finishes or the process receives
// SIGINT/SIGTERM. It is called by main.main().
func Execute() {
	LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withLedger opens the configured ledger around fn and closes it afterwards.
func (a *app) withLedger(fn func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadAndValidateConfig(a.backendOverride)
		if err != nil {
			return err
		}
		logOut := cmd.ErrOrStderr()
		if cmd.Annotations[annotationLogs] == "stdout" {
			logOut = cmd.OutOrStdout()
		}
		logger := SetupLogger(logOut, cfg.LogLevel)

		s, err := openSession(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := s.Close(); cerr != nil {
				logger.Warn("Failed to close ledger", "error", cerr)
			}
		}()
		return fn(cmd, args, s)
	}
}
