package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"STRIPE_SECRET_KEY", "INVOICEDESK_STORE_PATH", "INVOICEDESK_STORE_PASSPHRASE",
	"DEFAULT_CURRENCY", "DEFAULT_DAYS_UNTIL_DUE", "REQUEST_TIMEOUT_SECONDS",
	"GOOGLE_SHEET_URL", "GOOGLE_SHEET_WORKSHEET",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.StripeSecretKey)
	assert.Empty(t, cfg.StorePath)
	assert.Equal(t, "gbp", cfg.DefaultCurrency)
	assert.Equal(t, int64(30), cfg.DefaultDaysUntilDue)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "Invoices", cfg.GoogleSheetWorksheet)
	assert.Equal(t, "info", cfg.GetLoggerConfig().Level)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "creds.json")
	t.Setenv("STRIPE_SECRET_KEY", " sk_test_123 ")
	t.Setenv("INVOICEDESK_STORE_PATH", path)
	t.Setenv("INVOICEDESK_STORE_PASSPHRASE", "hunter2")
	t.Setenv("DEFAULT_CURRENCY", "EUR")
	t.Setenv("DEFAULT_DAYS_UNTIL_DUE", "14")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk_test_123", cfg.StripeSecretKey)
	assert.Equal(t, "eur", cfg.DefaultCurrency)
	assert.Equal(t, int64(14), cfg.DefaultDaysUntilDue)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "json", cfg.GetLoggerConfig().Format)

	assert.Equal(t, path, cfg.StorePath)
	assert.Equal(t, "hunter2", cfg.StorePassphrase)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric days", "DEFAULT_DAYS_UNTIL_DUE", "thirty"},
		{"zero days", "DEFAULT_DAYS_UNTIL_DUE", "0"},
		{"negative timeout", "REQUEST_TIMEOUT_SECONDS", "-1"},
		{"bad currency", "DEFAULT_CURRENCY", "pounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("INVOICEDESK_STORE_PATH", filepath.Join(t.TempDir(), "credentials.json"))
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
