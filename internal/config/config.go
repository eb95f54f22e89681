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
)

// Backend names accepted by DATA_BACKEND and SETTINGS_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	SettingsFile  = "file"
	SettingsRedis = "redis"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string
	Timezone string

	// Record store
	DataBackend  string
	SQLiteDBPath string
	PostgresURL  string
	SeedDir      string

	// Device settings
	SettingsBackend string
	SettingsDir     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Auth
	AuthEnabled  bool
	JWTSecret    string
	SessionTTL   time.Duration
	AuthUsers    string
	CookieSecure bool

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenFile     string

	// Limits
	CacheTTL           time.Duration
	ReceiptMaxBytes    int64
	RateLimitPerMinute int
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("LEDGER_TIMEZONE", "Local"),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/cafeledger.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),
		SeedDir:      getEnv("SEED_DIR", ""),

		SettingsBackend: getEnv("SETTINGS_BACKEND", SettingsFile),
		SettingsDir:     getEnv("SETTINGS_DIR", "./data/settings"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),

		AuthEnabled:  getEnvBool("AUTH_ENABLED", false),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		SessionTTL:   getEnvDuration("SESSION_TTL", 12*time.Hour),
		AuthUsers:    getEnv("AUTH_USERS", ""),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cafeledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_mirror"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),

		CacheTTL:           getEnvDuration("CACHE_TTL", 30*time.Second),
		ReceiptMaxBytes:    int64(getEnvInt("RECEIPT_MAX_BYTES", 2<<20)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}
}

// Location resolves Timezone. Calendar days are evaluated in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	validBackends := []string{BackendMemory, BackendSQLite, BackendPostgres}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
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
	case BackendPostgres:
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, fmt.Sprintf("invalid POSTGRES_URL '%s': must be a postgres:// URL", c.PostgresURL))
		}
	}

	validSettings := []string{SettingsFile, SettingsRedis}
	if !slices.Contains(validSettings, c.SettingsBackend) {
		errors = append(errors, fmt.Sprintf("invalid settings backend '%s': must be one of %v", c.SettingsBackend, validSettings))
	}
	if c.SettingsBackend == SettingsRedis && c.RedisAddr == "" {
		errors = append(errors, "REDIS_ADDR is required when using redis settings backend")
	}
	if c.SettingsBackend == SettingsFile && c.SettingsDir == "" {
		errors = append(errors, "SETTINGS_DIR cannot be empty when using file settings backend")
	}

	if c.AuthEnabled {
		if len(c.JWTSecret) < 16 {
			errors = append(errors, "JWT_SECRET must be at least 16 characters when auth is enabled")
		}
		if strings.TrimSpace(c.AuthUsers) == "" {
			errors = append(errors, "AUTH_USERS must list at least one user when auth is enabled")
		}
		if c.SessionTTL < time.Minute {
			errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
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

	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	if c.ReceiptMaxBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid receipt limit %d: must be at least 1024 bytes", c.ReceiptMaxBytes))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateMirror checks the settings the mirror worker needs on top of Validate.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the mirror worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the mirror worker")
	}
	hasOAuth := c.GoogleOAuthClientJSON != "" && c.GoogleOAuthTokenFile != ""
	if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" && !hasOAuth {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_OAUTH_CLIENT_JSON with GOOGLE_OAUTH_TOKEN_FILE must be provided")
	}
	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration invalid:\n- %s", strings.Join(errors, "\n- "))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
