package backend

import (
	"errors"
	"fmt"

	"finance/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:     backendType,
		SeedFile: appConfig.CategoriesSeedFile,

		LedgerFile:   appConfig.LedgerFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleTransactionsSheet:  appConfig.GoogleTransactionsSheet,
		GoogleCategoriesSheet:    appConfig.GoogleCategoriesSheet,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleOAuthClientJSON:    appConfig.GoogleOAuthClientJSON,
		GoogleOAuthClientFile:    appConfig.GoogleOAuthClientFile,
		GoogleOAuthTokenJSON:     appConfig.GoogleOAuthTokenJSON,
		GoogleOAuthTokenFile:     appConfig.GoogleOAuthTokenFile,

		AMQPURL:        appConfig.AMQPURL,
		AMQPExchange:   appConfig.AMQPExchange,
		AMQPRoutingKey: appConfig.AMQPRoutingKey,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case XLSXBackend:
		if c.LedgerFile == "" {
			return errors.New("ledger file path is required for xlsx backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
		hasOAuth := (c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != "") &&
			(c.GoogleOAuthTokenJSON != "" || c.GoogleOAuthTokenFile != "")
		if !hasServiceAccount && !hasOAuth {
			return errors.New("sheets backend needs a service account or an OAuth client and token")
		}
	case MemoryBackend:
		// nothing to check
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{XLSXBackend, SQLiteBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
