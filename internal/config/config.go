package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by DATA_BACKEND.
var validBackends = []string{"xlsx", "sqlite", "sheets", "memory"}

var validLogLevels = []string{"debug", "info", "warn", "warning", "error"}

type Config struct {
	// HTTP Server
	Port           string
	RateLimitRPM   int
	RequestTimeout time.Duration

	// Backend selection
	DataBackend        string
	CategoriesSeedFile string

	// Excel workbook
	LedgerFile string

	// Database
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	// OAuth user credentials, the alternative to a service account
	GoogleOAuthClientJSON string
	GoogleOAuthClientFile string
	GoogleOAuthTokenJSON  string
	GoogleOAuthTokenFile  string

	// AMQP, empty URL disables notifications
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 120),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),

		DataBackend:        strings.ToLower(getEnv("DATA_BACKEND", "xlsx")),
		CategoriesSeedFile: getEnv("CATEGORIES_SEED_FILE", ""),

		LedgerFile:   getEnv("LEDGER_FILE", "./data/ledger.xlsx"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		GoogleCategoriesSheet:    getEnv("GOOGLE_CATEGORIES_SHEET", "Categories"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "finance"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "ledger.changed"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// NotificationsEnabled reports whether change notifications are configured.
func (c *Config) NotificationsEnabled() bool {
	return c.AMQPURL != ""
}

// HasOAuthCredentials reports whether both an OAuth client and a saved
// token are configured.
func (c *Config) HasOAuthCredentials() bool {
	hasClient := c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != ""
	hasToken := c.GoogleOAuthTokenJSON != "" || c.GoogleOAuthTokenFile != ""
	return hasClient && hasToken
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "xlsx":
		if c.LedgerFile == "" {
			errors = append(errors, "ledger file path cannot be empty when using xlsx backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleTransactionsSheet == "" || c.GoogleCategoriesSheet == "" {
			errors = append(errors, "Google sheet names cannot be empty when using sheets backend")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile && !c.HasOAuthCredentials() {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE, or an OAuth client and token (GOOGLE_OAUTH_CLIENT_JSON/FILE with GOOGLE_OAUTH_TOKEN_JSON/FILE), must be provided for sheets backend")
		}
		if !hasJSON && hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if !hasJSON && !hasFile {
			if c.GoogleOAuthClientJSON == "" && c.GoogleOAuthClientFile != "" {
				if _, err := os.Stat(c.GoogleOAuthClientFile); os.IsNotExist(err) {
					errors = append(errors, fmt.Sprintf("Google OAuth client file does not exist: %s", c.GoogleOAuthClientFile))
				}
			}
			if c.GoogleOAuthTokenJSON == "" && c.GoogleOAuthTokenFile != "" {
				if _, err := os.Stat(c.GoogleOAuthTokenFile); os.IsNotExist(err) {
					errors = append(errors, fmt.Sprintf("Google OAuth token file does not exist (run finance sheets-auth): %s", c.GoogleOAuthTokenFile))
				}
			}
		}
	}

	if c.CategoriesSeedFile != "" {
		if _, err := os.Stat(c.CategoriesSeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("categories seed file does not exist: %s", c.CategoriesSeedFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	} else if c.RequestTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at most 5 minutes", c.RequestTimeout))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
