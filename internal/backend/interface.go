package backend

import (
	"context"

	"finance/internal/ledger"
	"finance/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the storage backend, the optional change notifier
// and a cleanup function releasing both.
type BackendResult struct {
	Backend sheets.Backend
	// Notifier is nil when notifications are disabled or unavailable.
	Notifier ledger.Notifier
	Cleanup  CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Category set written when a new ledger is created; empty uses defaults.
	SeedFile string

	// Excel workbook
	LedgerFile string

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientJSON    string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenJSON     string
	GoogleOAuthTokenFile     string

	// AMQP, empty URL disables notifications
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// BackendType represents the type of backend
type BackendType string

const (
	XLSXBackend   BackendType = "xlsx"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case XLSXBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
