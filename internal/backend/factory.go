package backend

import (
	"context"
	"errors"
	"fmt"

	"finance/internal/amqp"
	"finance/internal/categories"
	"finance/internal/log"
	"finance/internal/sheets/google"
	"finance/internal/sheets/memory"
	"finance/internal/sheets/xlsx"
	"finance/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend. A notifier that cannot
// connect is logged and left out; the ledger works without it.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case XLSXBackend:
		result, err = f.createXLSXBackend(ctx, config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachNotifier(result, config)
	return result, nil
}

func (f *DefaultFactory) createXLSXBackend(ctx context.Context, config Config) (*BackendResult, error) {
	seed, err := categories.LoadSeedFile(config.SeedFile)
	if err != nil {
		return nil, err
	}

	wb := xlsx.New(xlsx.Options{Path: config.LedgerFile, Seed: seed})
	created, err := wb.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize workbook: %w", err)
	}

	f.logger.Info("Initialized xlsx backend", "path", config.LedgerFile, "created", created)

	return &BackendResult{Backend: wb}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	seed, err := categories.LoadSeedFile(config.SeedFile)
	if err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	seeded, err := repo.Init(ctx, seed)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to seed SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath, "seeded", seeded)

	return &BackendResult{Backend: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Options{
		SpreadsheetID:     config.GoogleSpreadsheetID,
		TransactionsSheet: config.GoogleTransactionsSheet,
		CategoriesSheet:   config.GoogleCategoriesSheet,
		CredentialsJSON:   config.GoogleServiceAccountJSON,
		CredentialsFile:   config.GoogleServiceAccountFile,
		OAuthClientJSON:   config.GoogleOAuthClientJSON,
		OAuthClientFile:   config.GoogleOAuthClientFile,
		OAuthTokenJSON:    config.GoogleOAuthTokenJSON,
		OAuthTokenFile:    config.GoogleOAuthTokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromSeed(config.SeedFile)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized memory backend")

	return &BackendResult{Backend: store}, nil
}

func (f *DefaultFactory) attachNotifier(result *BackendResult, config Config) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"routing_key", config.AMQPRoutingKey)

	result.Notifier = client
	backendCleanup := result.Cleanup
	result.Cleanup = func() error {
		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close AMQP client: %w", err))
		}
		if backendCleanup != nil {
			if err := backendCleanup(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
