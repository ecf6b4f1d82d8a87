package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"invoicedesk/internal/logger"
)

const (
	defaultDaysUntilDue = 30
	defaultWorksheet    = "Invoices"
)

type Config struct {
	// Stripe Configuration
	StripeSecretKey string

	// Credential store; an empty StorePath means the per-user default
	StorePath       string
	StorePassphrase string

	// Invoice defaults
	DefaultCurrency     string
	DefaultDaysUntilDue int64

	RequestTimeoutSeconds int

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		StripeSecretKey:      strings.TrimSpace(getEnv("STRIPE_SECRET_KEY", "")),
		StorePath:            getEnv("INVOICEDESK_STORE_PATH", ""),
		StorePassphrase:      getEnv("INVOICEDESK_STORE_PASSPHRASE", ""),
		DefaultCurrency:      strings.ToLower(getEnv("DEFAULT_CURRENCY", "gbp")),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", defaultWorksheet),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stderr"),
	}

	days, err := getEnvInt("DEFAULT_DAYS_UNTIL_DUE", defaultDaysUntilDue)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.DefaultDaysUntilDue = int64(days)

	timeout, err := getEnvInt("REQUEST_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.RequestTimeoutSeconds = timeout

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DefaultDaysUntilDue <= 0 {
		return fmt.Errorf("DEFAULT_DAYS_UNTIL_DUE must be positive")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be a three-letter ISO code")
	}
	return nil
}

// RequestTimeout is the deadline applied to each command's remote calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
