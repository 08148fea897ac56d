package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

var (
	validBackends  = []string{BackendJSON, BackendSQLite}
	validLogLevels = []string{"debug", "info", "warn", "warning", "error"}
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	// WriteRateLimit caps state-changing requests per client and minute.
	// Zero disables the limit.
	WriteRateLimit int

	LogLevel string

	// Storage
	DataDir      string
	StoreBackend string
	SQLiteDBPath string

	// Export
	ExportDir     string
	ExportTimeout time.Duration

	// SummaryCacheTTL bounds how long a dashboard summary is reused. Zero
	// disables the cache.
	SummaryCacheTTL time.Duration

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleADCFile            string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		WriteRateLimit:  getEnvInt("WRITE_RATE_LIMIT", 60),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataDir:      dataDir,
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendJSON)),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", filepath.Join(dataDir, "ledger.db")),

		ExportDir:     getEnv("EXPORT_DIR", filepath.Join(dataDir, "excel")),
		ExportTimeout: getEnvDuration("EXPORT_TIMEOUT", 60*time.Second),

		SummaryCacheTTL: getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleADCFile:            getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salonledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changed"),
	}

	return cfg
}

// RemoteEnabled reports whether the Google Sheets sink is configured.
func (c *Config) RemoteEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
}

// QueueEnabled reports whether change notifications go through AMQP.
func (c *Config) QueueEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.WriteRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid write rate limit %d: must not be negative", c.WriteRateLimit))
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if strings.TrimSpace(c.DataDir) == "" {
		errors = append(errors, "data directory cannot be empty")
	}

	if !slices.Contains(validBackends, c.StoreBackend) {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, validBackends))
	}

	if c.StoreBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(filepath.Dir(c.SQLiteDBPath)); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", filepath.Dir(c.SQLiteDBPath), err))
		}
	}

	if strings.TrimSpace(c.ExportDir) == "" {
		errors = append(errors, "export directory cannot be empty")
	}
	if c.ExportTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export timeout %v: must be at least 1 second", c.ExportTimeout))
	} else if c.ExportTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid export timeout %v: must be at most 10 minutes", c.ExportTimeout))
	}

	if c.SummaryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}

	if c.RemoteEnabled() {
		errors = append(errors, c.validateGoogle()...)
	}

	if c.QueueEnabled() {
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

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker additionally requires the queue and the remote sink, which
// the export worker cannot run without.
func (c *Config) ValidateWorker() error {
	var errors []string
	if !c.QueueEnabled() {
		errors = append(errors, "AMQP_URL is required for the export worker")
	}
	if !c.RemoteEnabled() {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the export worker")
	}
	if err := c.Validate(); err != nil {
		if len(errors) == 0 {
			return err
		}
		return fmt.Errorf("%w\n- %s", err, strings.Join(errors, "\n- "))
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateGoogle() []string {
	var errors []string

	inline := strings.TrimSpace(c.GoogleServiceAccountJSON)
	file := strings.TrimSpace(c.GoogleServiceAccountFile)
	adc := strings.TrimSpace(c.GoogleADCFile)

	switch {
	case inline != "":
		if !json.Valid([]byte(inline)) {
			errors = append(errors, "GOOGLE_SERVICE_ACCOUNT_JSON is not valid JSON")
		}
	case file != "":
		if _, err := os.Stat(file); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", file))
		}
	case adc != "":
		if _, err := os.Stat(adc); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google application credentials file does not exist: %s", adc))
		}
	default:
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided when GOOGLE_SPREADSHEET_ID is set")
	}
	return errors
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
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
