package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"invoicedesk/internal/dashboard"
	"invoicedesk/internal/logger"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show invoice and customer counts",
	Long: `Show the number of invoices (total, paid, open) and customers.

Counts cover the most recent 100 invoices and 100 customers only.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("dashboard")

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	stats, err := dashboard.Load(ctx, client)
	if err != nil {
		return handleLedgerError(err, log)
	}

	if jsonOutput(cmd) {
		return printJSON(stats, log)
	}

	fmt.Printf("Total invoices:  %d\n", stats.TotalInvoices)
	fmt.Printf("Paid invoices:   %d\n", stats.PaidInvoices)
	fmt.Printf("Open invoices:   %d\n", stats.OpenInvoices)
	fmt.Printf("Total customers: %d\n", stats.TotalCustomers)
	if stats.Truncated {
		fmt.Printf("\nCounts cover the most recent %d records only.\n", dashboard.SampleSize)
	}
	return nil
}
