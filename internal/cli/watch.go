package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finance/internal/amqp"
	"finance/internal/worker"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print ledger change notifications as they arrive",
		Long: `Subscribe to the AMQP exchange and print one line per saved change until
interrupted. Requires AMQP_URL.`,
		Args: cobra.NoArgs,
		RunE: a.withLedger(func(cmd *cobra.Command, _ []string, s *session) error {
			consumer, ok := s.result.Notifier.(worker.Consumer)
			if !ok {
				return errors.New("notifications are not available: set AMQP_URL to a reachable broker")
			}
			out := cmd.OutOrStdout()
			err := consumer.ConsumeLedgerChanged(cmd.Context(), func(msg *amqp.LedgerChangedMessage) error {
				_, err := fmt.Fprintf(out, "%s  %-6s  %d transaction(s)\n",
					msg.Timestamp.Local().Format(time.DateTime), msg.Op, msg.Count)
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}),
	}
}
