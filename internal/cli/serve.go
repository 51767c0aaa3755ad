package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "finance/internal/http"
	"finance/internal/log"
	"finance/internal/sheets"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		Long: `Run the JSON HTTP API on PORT until SIGINT or SIGTERM, then drain in-flight
requests and close the ledger backend.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationLogs: "stdout"},
		RunE: a.withLedger(func(cmd *cobra.Command, _ []string, s *session) error {
			return serve(cmd.Context(), s)
		}),
	}
}

func serve(ctx context.Context, s *session) error {
	logger := s.logger.WithComponent(log.ComponentApp)

	srv := apphttp.NewServer(":"+s.cfg.Port, s.store, apphttp.Options{
		Logger:         s.logger,
		RateLimitRPM:   s.cfg.RateLimitRPM,
		RequestTimeout: s.cfg.RequestTimeout,
		Ready:          readiness(s),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finance server",
			"port", s.cfg.Port,
			"backend", s.cfg.DataBackend,
			"notifications", s.cfg.NotificationsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", s.cfg.Port)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// readiness pings backends that support it. Broker health is left out:
// a failed publish never fails a request.
func readiness(s *session) func(context.Context) error {
	if pinger, ok := s.result.Backend.(sheets.Pinger); ok {
		return pinger.Ping
	}
	return nil
}
