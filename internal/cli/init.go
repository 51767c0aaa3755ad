// Package cli provides the finance command tree and the process bootstrap
// shared by every command: .env loading, logging, configuration and opening
// the ledger on the configured backend.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"

	"finance/internal/backend"
	"finance/internal/config"
	"finance/internal/ledger"
	"finance/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging at the given LOG_LEVEL and sets
// it as the process default.
func SetupLogger(w io.Writer, level string) *log.Logger {
	logger := log.New(log.Config{
		Component: log.ComponentCLI,
		Handler:   slog.NewTextHandler(w, &slog.HandlerOptions{Level: log.ParseLevel(level)}),
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration from the environment, applies a
// non-empty backend override and validates the result.
func LoadAndValidateConfig(backendOverride string) (*config.Config, error) {
	cfg := config.Load()
	if backendOverride != "" {
		cfg.DataBackend = strings.ToLower(backendOverride)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is an open ledger plus the resources behind it.
type session struct {
	cfg    *config.Config
	logger *log.Logger
	result *backend.BackendResult
	store  *ledger.Store
}

// openSession builds the configured backend and a ledger store over it.
func openSession(ctx context.Context, cfg *config.Config, logger *log.Logger) (*session, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", backendCfg.Type, err)
	}

	opts := []ledger.Option{ledger.WithLogger(logger.WithComponent(log.ComponentLedger))}
	if result.Notifier != nil {
		opts = append(opts, ledger.WithNotifier(result.Notifier))
	}

	logger.Debug("Ledger opened", "backend", backendCfg.Type.String(), "notifications", result.Notifier != nil)
	return &session{
		cfg:    cfg,
		logger: logger,
		result: result,
		store:  ledger.New(result.Backend, opts...),
	}, nil
}

// Close releases the backend and the notifier connection.
func (s *session) Close() error {
	if s == nil {
		return nil
	}
	if err := s.result.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close backend: %w", err)
	}
	return nil
}
