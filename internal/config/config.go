// Package config loads runtime settings from the environment and an
// optional config file named by SPENDTRACK_CONFIG.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port               string
	LoginURL           string
	RateLimitPerMinute int
	LogLevel           string

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DataDir      string

	// AMQP; an empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration

	// Presentation
	MonthLabelFormat string
	TopCategories    int
	CurrencySymbol   string

	// Local development identity used when no proxy headers are present
	DevUserID    string
	DevUserEmail string
}

var defaults = map[string]any{
	"port":                  "8081",
	"login_url":             "",
	"rate_limit_per_minute": 60,
	"log_level":             "info",

	"data_backend":   BackendMemory,
	"sqlite_db_path": "./data/spendtrack.db",
	"data_dir":       "./data",

	"amqp_url":      "",
	"amqp_exchange": "spendtrack",
	"amqp_queue":    "sync_expenses",

	"google_spreadsheet_id":       "",
	"google_sheet_name":           "Expenses",
	"google_service_account_file": "",
	"google_service_account_json": "",

	"sync_batch_size": 10,
	"sync_interval":   "30s",

	"month_label_format": "",
	"top_categories":     5,
	"currency_symbol":    "₹",

	"dev_user_id":    "",
	"dev_user_email": "",
}

// Load reads configuration from the environment, falling back to the file
// named by SPENDTRACK_CONFIG and then to defaults.
func Load() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("SPENDTRACK_CONFIG")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return &Config{
		Port:               strings.TrimSpace(v.GetString("port")),
		LoginURL:           v.GetString("login_url"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),

		DataBackend:  strings.ToLower(strings.TrimSpace(v.GetString("data_backend"))),
		SQLiteDBPath: v.GetString("sqlite_db_path"),
		DataDir:      v.GetString("data_dir"),

		AMQPURL:      strings.TrimSpace(v.GetString("amqp_url")),
		AMQPExchange: v.GetString("amqp_exchange"),
		AMQPQueue:    v.GetString("amqp_queue"),

		GoogleSpreadsheetID:      strings.TrimSpace(v.GetString("google_spreadsheet_id")),
		GoogleSheetName:          v.GetString("google_sheet_name"),
		GoogleServiceAccountFile: v.GetString("google_service_account_file"),
		GoogleServiceAccountJSON: v.GetString("google_service_account_json"),

		SyncBatchSize: v.GetInt("sync_batch_size"),
		SyncInterval:  v.GetDuration("sync_interval"),

		MonthLabelFormat: v.GetString("month_label_format"),
		TopCategories:    v.GetInt("top_categories"),
		CurrencySymbol:   v.GetString("currency_symbol"),

		DevUserID:    strings.TrimSpace(v.GetString("dev_user_id")),
		DevUserEmail: strings.TrimSpace(v.GetString("dev_user_email")),
	}, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.TopCategories < 1 || c.TopCategories > 50 {
		errors = append(errors, fmt.Sprintf("invalid top categories %d: must be between 1 and 50", c.TopCategories))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.MonthLabelFormat != "" && !distinguishesMonths(c.MonthLabelFormat) {
		errors = append(errors, fmt.Sprintf("invalid month label format '%s': must contain a month element such as Jan or 01", c.MonthLabelFormat))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.LoginURL != "" {
		if _, err := url.Parse(c.LoginURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid login URL '%s': %v", c.LoginURL, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the sync worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var errors []string
	if c.DataBackend != BackendSQLite {
		errors = append(errors, "sync worker requires DATA_BACKEND=sqlite")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sync worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the sync worker")
	}
	if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// distinguishesMonths reports whether layout renders January and February
// differently.
func distinguishesMonths(layout string) bool {
	jan := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC).Format(layout)
	feb := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC).Format(layout)
	return jan != feb
}
