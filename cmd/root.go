package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"invoicedesk/internal/config"
	"invoicedesk/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoicedesk",
	Short: "invoicedesk - manage Stripe invoices and customers from the command line",
	Long: `invoicedesk is a command-line client for a Stripe account's invoices and
customers. Stripe is the only source of truth: every command reads from or
writes to Stripe, and every state change is confirmed by re-reading the
invoice afterwards.

Connect once with 'invoicedesk settings set-key' (the key is stored
encrypted) or set STRIPE_SECRET_KEY in the environment or a .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("invoicedesk executed without a command")

		fmt.Println("Welcome to invoicedesk!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().Int("timeout", 0, "Request timeout in seconds (default: REQUEST_TIMEOUT_SECONDS)")
}

// commandTimeout returns the --timeout flag, falling back to the configured timeout.
func commandTimeout(cmd *cobra.Command, cfg *config.Config) time.Duration {
	if secs, _ := cmd.Flags().GetInt("timeout"); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return cfg.RequestTimeout()
}

func jsonOutput(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}
