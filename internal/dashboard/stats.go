// Package dashboard computes the overview counts shown on the dashboard.
package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

// SampleSize is how many invoices and customers are loaded. Counts are
// taken over this sample only.
const SampleSize = 100

// Ledger is the part of services.Ledger the dashboard reads.
type Ledger interface {
	ListInvoices(ctx context.Context, params services.InvoiceListParams) (*services.InvoicePage, error)
	ListCustomers(ctx context.Context, params services.CustomerListParams) (*services.CustomerPage, error)
}

// Stats are the dashboard counts.
type Stats struct {
	TotalInvoices  int  `json:"total_invoices"`
	PaidInvoices   int  `json:"paid_invoices"`
	OpenInvoices   int  `json:"open_invoices"`
	TotalCustomers int  `json:"total_customers"`
	Truncated      bool `json:"truncated"`
}

// Load fetches invoices and customers concurrently and counts them.
func Load(ctx context.Context, ledger Ledger) (*Stats, error) {
	const op = "Load"
	log := logger.WithComponent("dashboard")

	var (
		invoices  *services.InvoicePage
		customers *services.CustomerPage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := ledger.ListInvoices(gctx, services.InvoiceListParams{Limit: SampleSize})
		if err != nil {
			return err
		}
		invoices = page
		return nil
	})
	g.Go(func() error {
		page, err := ledger.ListCustomers(gctx, services.CustomerListParams{Limit: SampleSize})
		if err != nil {
			return err
		}
		customers = page
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Error loading dashboard data")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := Count(invoices.Invoices, customers.Customers)
	stats.Truncated = invoices.HasMore || customers.HasMore

	log.Debug().
		Int("invoices", stats.TotalInvoices).
		Int("customers", stats.TotalCustomers).
		Bool("truncated", stats.Truncated).
		Msg("Dashboard loaded")

	return stats, nil
}

// Count computes stats over already loaded invoices and customers.
func Count(invoices []*models.Invoice, customers []*models.Customer) *Stats {
	stats := &Stats{
		TotalInvoices:  len(invoices),
		TotalCustomers: len(customers),
	}
	for _, inv := range invoices {
		switch inv.Status {
		case models.InvoiceStatusPaid:
			stats.PaidInvoices++
		case models.InvoiceStatusOpen:
			stats.OpenInvoices++
		}
	}

	return stats
}
