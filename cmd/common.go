package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"invoicedesk/internal/config"
	"invoicedesk/internal/credentials"
	"invoicedesk/internal/customer"
	"invoicedesk/internal/invoice"
	"invoicedesk/internal/ledger"
	"invoicedesk/pkg/services"
)

// Key sources reported by settings show.
const (
	keySourceEnv   = "environment"
	keySourceStore = "credential store"
)

var errNotConnected = errors.New("not connected")

// loadConfig loads the environment configuration for a command.
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, fmt.Errorf("invalid configuration. Please check your .env file: %w", err)
	}
	if cfg.StripeSecretKey != "" {
		if err := ledger.ValidateKey(cfg.StripeSecretKey); err != nil {
			log.Error().Err(err).Msg("Invalid STRIPE_SECRET_KEY")
			return nil, fmt.Errorf("invalid configuration. STRIPE_SECRET_KEY: %w", err)
		}
	}
	return cfg, nil
}

// credentialStore opens the encrypted API key store, at the per-user default
// location unless INVOICEDESK_STORE_PATH is set.
func credentialStore(cfg *config.Config) *credentials.Store {
	path := cfg.StorePath
	if path == "" {
		// Unresolvable only without a home directory; the store then fails on use.
		path, _ = credentials.DefaultPath()
	}
	return credentials.NewStore(path, cfg.StorePassphrase)
}

// createCommandContext creates a context with timeout and signal handling
func createCommandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling request")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// resolveAPIKey returns the ledger API key and where it came from.
// STRIPE_SECRET_KEY wins over the credential store.
func resolveAPIKey(cfg *config.Config) (key, source string, err error) {
	if cfg.StripeSecretKey != "" {
		return cfg.StripeSecretKey, keySourceEnv, nil
	}

	key, ok, err := credentialStore(cfg).Load()
	if err != nil {
		if errors.Is(err, credentials.ErrEncryptionUnavailable) {
			return "", "", fmt.Errorf("%w: no STRIPE_SECRET_KEY set and %w", errNotConnected, err)
		}
		return "", "", err
	}
	if !ok {
		return "", "", errNotConnected
	}
	return key, keySourceStore, nil
}

// connectLedger builds a ledger client from the configured API key.
func connectLedger(cfg *config.Config, log zerolog.Logger) (*ledger.Client, error) {
	key, source, err := resolveAPIKey(cfg)
	if err != nil {
		log.Error().Err(err).Msg("No usable API key")
		return nil, fmt.Errorf("not connected to Stripe. Run 'invoicedesk settings set-key' or set STRIPE_SECRET_KEY: %w", err)
	}

	client, err := ledger.New(key)
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("Failed to create ledger client")
		return nil, fmt.Errorf("invalid Stripe API key from %s: %w", source, err)
	}

	log.Debug().Str("source", source).Msg("Ledger client created")
	return client, nil
}

// handleLedgerError provides user-friendly error messages for failed
// ledger operations. Remote messages are shown as the ledger worded them.
func handleLedgerError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Operation failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("request timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("request was canceled")
	case errors.Is(err, invoice.ErrActionNotPermitted):
		return fmt.Errorf("%v", unwrapInvoiceError(err))
	case errors.Is(err, invoice.ErrUnknownAction):
		return fmt.Errorf("unknown action. Valid actions: %s", strings.Join(actionNames(), ", "))
	case errors.Is(err, credentials.ErrDecrypt):
		return fmt.Errorf("stored API key could not be decrypted. Check INVOICEDESK_STORE_PASSPHRASE or run 'invoicedesk settings set-key' again")
	case errors.Is(err, customer.ErrMissingName):
		return fmt.Errorf("customer name is required (--name)")
	}

	if remote, ok := services.AsRemoteError(err); ok {
		if remote.StatusCode == 401 {
			return fmt.Errorf("Stripe rejected the API key: %s", remote.Error())
		}
		return errors.New(remote.Error())
	}

	switch invoice.KindOf(err) {
	case invoice.KindValidation, invoice.KindPrecondition:
		return fmt.Errorf("%v", unwrapInvoiceError(err))
	}

	return err
}

// unwrapInvoiceError strips the operation prefix from controller errors so
// only the reason is shown.
func unwrapInvoiceError(err error) error {
	var invErr *invoice.Error
	if errors.As(err, &invErr) {
		return invErr.Err
	}
	return err
}

func actionNames() []string {
	names := make([]string, 0, len(invoice.Actions))
	for _, a := range invoice.Actions {
		names = append(names, a.String())
	}
	return names
}

// confirm shows prompt and reads a yes/no answer from the command's input.
// Anything but y or yes declines.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s\nProceed? [y/N]: ", prompt)

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if _, err := os.Stdout.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}

// formatAmount renders minor units as a major-unit amount with currency.
func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%s %s", decimal.New(minor, -2).StringFixed(2), strings.ToUpper(currency))
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
