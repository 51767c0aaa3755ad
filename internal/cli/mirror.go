package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"finance/internal/backend"
	"finance/internal/log"
	"finance/internal/worker"
)

func newMirrorCmd(a *app) *cobra.Command {
	var (
		to       string
		interval time.Duration
		once     bool
	)
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Keep a copy of the ledger in a second backend",
		Long: `Copy the whole ledger from the configured backend to the one named by --to.
The copy runs at start, after every change notification when AMQP_URL is set,
and every --interval until interrupted. With --once it copies and exits.`,
		Example: `  finance mirror --to sqlite --once
  finance --backend sheets mirror --to xlsx --interval 1m`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationLogs: "stdout"},
		RunE: a.withLedger(func(cmd *cobra.Command, _ []string, s *session) error {
			target := strings.ToLower(to)
			if target == s.cfg.DataBackend {
				return fmt.Errorf("--to %s is the ledger's own backend", target)
			}

			targetCfg := *s.cfg
			targetCfg.DataBackend = target
			targetCfg.AMQPURL = ""
			if err := targetCfg.Validate(); err != nil {
				return fmt.Errorf("mirror target: %w", err)
			}
			backendCfg, err := backend.FromAppConfig(&targetCfg)
			if err != nil {
				return err
			}
			logger := s.logger.WithComponent(log.ComponentWorker)
			result, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), backendCfg)
			if err != nil {
				return fmt.Errorf("open %s mirror: %w", target, err)
			}
			defer result.Close()

			m := worker.NewMirror(s.result.Backend, result.Backend, logger)
			if once {
				if err := m.Sync(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %s ledger to %s\n", s.cfg.DataBackend, target)
				return nil
			}

			var consumer worker.Consumer
			if c, ok := s.result.Notifier.(worker.Consumer); ok {
				consumer = c
			} else {
				logger.Info("Change notifications unavailable, mirroring on the interval only")
			}
			logger.Info("Mirror started", "from", s.cfg.DataBackend, "to", target, "interval", interval)
			return m.Run(cmd.Context(), consumer, interval)
		}),
	}
	cmd.Flags().StringVar(&to, "to", "", "backend to copy the ledger to (xlsx, sqlite or sheets)")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "reconciliation interval, 0 disables it")
	cmd.Flags().BoolVar(&once, "once", false, "copy once and exit")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
