package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Data sources for the initial dataset.
const (
	SourceCSV    = "csv"
	SourceSheets = "sheets"
)

// Dataset store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port string

	// Initial dataset
	DataFile   string
	DataSource string

	// Dataset store
	DataBackend  string
	SQLiteDBPath string
	KeepDatasets int

	// Presentation and input columns
	CurrencySymbol    string
	AmountLabel       string
	ColumnDate        string
	ColumnDescription string
	ColumnCategory    string
	ColumnAmount      string
	ColumnLabel       string
	MaxUploadBytes    int64

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSourceRange        string
	GoogleSummarySheet       string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Caching and limits
	CacheTTL         time.Duration
	CacheSize        int
	UploadsPerMinute int

	// Worker
	ExportConcurrency int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataFile:   getEnv("DATA_FILE", "./data/transactions.csv"),
		DataSource: strings.ToLower(getEnv("DATA_SOURCE", SourceCSV)),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", BackendMemory)),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/findash.db"),
		KeepDatasets: getEnvInt("KEEP_DATASETS", 20),

		CurrencySymbol:    getEnv("CURRENCY_SYMBOL", "E£"),
		AmountLabel:       getEnv("AMOUNT_LABEL", "Amount (EGP)"),
		ColumnDate:        getEnv("COLUMN_DATE", "Date"),
		ColumnDescription: getEnv("COLUMN_DESCRIPTION", "Name / Description"),
		ColumnCategory:    getEnv("COLUMN_CATEGORY", "Category"),
		ColumnAmount:      getEnv("COLUMN_AMOUNT", "Amount (EGP)"),
		ColumnLabel:       getEnv("COLUMN_LABEL", "Expense/Income"),
		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", 5<<20),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "findash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dataset_replaced"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSourceRange:        getEnv("GOOGLE_SOURCE_RANGE", "Transactions!A:E"),
		GoogleSummarySheet:       getEnv("GOOGLE_SUMMARY_SHEET", "Summary"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		CacheTTL:         getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize:        getEnvInt("CACHE_SIZE", 64),
		UploadsPerMinute: getEnvInt("UPLOADS_PER_MINUTE", 10),

		ExportConcurrency: getEnvInt("EXPORT_CONCURRENCY", 4),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataSource {
	case SourceCSV:
		if strings.TrimSpace(c.DataFile) == "" {
			errors = append(errors, "DATA_FILE cannot be empty when DATA_SOURCE is csv")
		}
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when DATA_SOURCE is sheets")
		}
		if c.GoogleSourceRange == "" {
			errors = append(errors, "GOOGLE_SOURCE_RANGE cannot be empty when DATA_SOURCE is sheets")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of [csv sheets]", c.DataSource))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	if c.KeepDatasets < 0 {
		errors = append(errors, fmt.Sprintf("invalid KEEP_DATASETS %d: must not be negative", c.KeepDatasets))
	}

	for _, col := range []struct{ key, value string }{
		{"COLUMN_DATE", c.ColumnDate},
		{"COLUMN_DESCRIPTION", c.ColumnDescription},
		{"COLUMN_CATEGORY", c.ColumnCategory},
		{"COLUMN_AMOUNT", c.ColumnAmount},
		{"COLUMN_LABEL", c.ColumnLabel},
	} {
		if strings.TrimSpace(col.value) == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", col.key))
		}
	}

	if c.MaxUploadBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid MAX_UPLOAD_BYTES %d: must be positive", c.MaxUploadBytes))
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.UploadsPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid uploads per minute %d: must be at least 1", c.UploadsPerMinute))
	}
	if c.ExportConcurrency < 1 || c.ExportConcurrency > 32 {
		errors = append(errors, fmt.Sprintf("invalid export concurrency %d: must be between 1 and 32", c.ExportConcurrency))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
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
