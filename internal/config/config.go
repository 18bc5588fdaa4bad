// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Ledger backend: memory or sqlite
	DataBackend  string
	SQLiteDBPath string

	// Category catalog; empty means the built-in catalog
	CatalogFile string

	// Default entry count for recent-expense queries
	RecentLimit int

	// AMQP ledger events; empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets backup export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string

	// Backup worker
	BackupBatchSize int
	BackupInterval  time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/voxpense.db"),

		CatalogFile: getEnv("CATALOG_FILE", ""),
		RecentLimit: getEnvInt("RECENT_LIMIT", 5),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "voxpense"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),

		BackupBatchSize: getEnvInt("BACKUP_BATCH_SIZE", 10),
		BackupInterval:  getEnvDuration("BACKUP_INTERVAL", 30*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the loaded configuration; all problems are reported
// at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLITE_DB_PATH cannot be empty with the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend %q: must be memory or sqlite", c.DataBackend))
	}

	if c.RecentLimit < 1 || c.RecentLimit > 50 {
		problems = append(problems, fmt.Sprintf("invalid recent limit %d: must be between 1 and 50", c.RecentLimit))
	}

	if c.AMQPURL != "" {
		u, err := url.Parse(c.AMQPURL)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP_QUEUE cannot be empty when AMQP_URL is set")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleCredentialsFile == "" {
		problems = append(problems, "GOOGLE_CREDENTIALS_FILE is required when GOOGLE_SPREADSHEET_ID is set")
	}

	if c.BackupBatchSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid backup batch size %d: must be at least 1", c.BackupBatchSize))
	}
	if c.BackupInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid backup interval %s: must be at least 1s", c.BackupInterval))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EventsEnabled reports whether ledger events should be published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// ExportEnabled reports whether the Sheets backup exporter is
// configured.
func (c *Config) ExportEnabled() bool {
	return c.GoogleSpreadsheetID != "" && c.GoogleCredentialsFile != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
