package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"invoicedesk/internal/config"
	"invoicedesk/internal/credentials"
	"invoicedesk/internal/ledger"
	"invoicedesk/internal/logger"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the Stripe connection",
	Long: `Manage the Stripe API key used by invoicedesk.

The key is stored encrypted at INVOICEDESK_STORE_PATH with a key derived
from INVOICEDESK_STORE_PASSPHRASE. STRIPE_SECRET_KEY, when set, takes
precedence over the stored key.`,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key [api-key]",
	Short: "Verify and store a Stripe secret or restricted API key",
	Example: `  # Store a key passed as argument
  invoicedesk settings set-key sk_test_...

  # Read the key from stdin
  echo "$KEY" | invoicedesk settings set-key`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsSetKey,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured key (masked) and connection status",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to Stripe",
	Args:  cobra.NoArgs,
	RunE:  runSettingsTest,
}

var settingsDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE:  runSettingsDisconnect,
}

// ConnectionStatus is the JSON output of settings show and test.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Source    string `json:"source,omitempty"`
	MaskedKey string `json:"masked_key,omitempty"`
	StorePath string `json:"store_path"`
	Error     string `json:"error,omitempty"`
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd, settingsShowCmd, settingsTestCmd, settingsDisconnectCmd)

	settingsSetKeyCmd.Flags().Bool("no-verify", false, "Store the key without testing it against Stripe")
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("settings")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	noVerify, _ := cmd.Flags().GetBool("no-verify")

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		key, err = readKey(cmd)
		if err != nil {
			return err
		}
	}
	key = strings.TrimSpace(key)

	if err := ledger.ValidateKey(key); err != nil {
		return fmt.Errorf("%v. Use a secret (sk_...) or restricted (rk_...) key", err)
	}

	store := credentialStore(cfg)
	if !store.Available() {
		return credentials.ErrEncryptionUnavailable
	}

	if !noVerify {
		client, err := ledger.New(key)
		if err != nil {
			return err
		}

		ctx, cancel := createCommandContext(commandTimeout(cmd, cfg), log)
		defer cancel()

		if err := client.Ping(ctx); err != nil {
			return handleLedgerError(err, log)
		}
	}

	if err := store.Save(key); err != nil {
		log.Error().Err(err).Str("path", store.Path()).Msg("Failed to store API key")
		return fmt.Errorf("failed to store API key: %w", err)
	}

	log.Info().Str("path", store.Path()).Bool("verified", !noVerify).Msg("API key stored")
	fmt.Printf("API key %s stored in %s\n", credentials.MaskKey(key), store.Path())
	return nil
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("settings")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	status := checkConnection(cmd, cfg, log)
	if jsonOutput(cmd) {
		return printJSON(status, log)
	}

	fmt.Printf("Store:      %s\n", status.StorePath)
	if status.MaskedKey == "" {
		fmt.Println("API key:    not configured")
	} else {
		fmt.Printf("API key:    %s (%s)\n", status.MaskedKey, status.Source)
	}
	if status.Connected {
		fmt.Println("Connection: OK")
	} else {
		fmt.Printf("Connection: failed (%s)\n", status.Error)
	}
	return nil
}

func runSettingsTest(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("settings")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	status := checkConnection(cmd, cfg, log)
	if jsonOutput(cmd) {
		if err := printJSON(status, log); err != nil {
			return err
		}
	}
	if !status.Connected {
		return fmt.Errorf("connection failed: %s", status.Error)
	}
	if !jsonOutput(cmd) {
		fmt.Printf("Connected to Stripe using the key from the %s.\n", status.Source)
	}
	return nil
}

func runSettingsDisconnect(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("settings")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	store := credentialStore(cfg)
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to remove stored API key: %w", err)
	}

	log.Info().Str("path", store.Path()).Msg("Stored API key removed")
	fmt.Println("Stored API key removed.")
	if cfg.StripeSecretKey != "" {
		fmt.Println("Note: STRIPE_SECRET_KEY is still set in the environment.")
	}
	return nil
}

// checkConnection resolves the key and pings the ledger with it.
func checkConnection(cmd *cobra.Command, cfg *config.Config, log zerolog.Logger) ConnectionStatus {
	status := ConnectionStatus{StorePath: credentialStore(cfg).Path()}

	key, source, err := resolveAPIKey(cfg)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Source = source
	status.MaskedKey = credentials.MaskKey(key)

	client, err := ledger.New(key)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	ctx, cancel := createCommandContext(commandTimeout(cmd, cfg), log)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		status.Error = handleLedgerError(err, log).Error()
		return status
	}
	status.Connected = true
	return status
}

func readKey(cmd *cobra.Command) (string, error) {
	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
		fmt.Fprint(cmd.ErrOrStderr(), "Stripe API key: ")
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return line, nil
}
