package invoice

import (
	"context"
	"fmt"
	"strings"

	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

const (
	// DefaultPageSize is used when a listing does not ask for a size.
	DefaultPageSize = 20

	// StatusAll disables the status filter.
	StatusAll = "all"
)

// ListFilter selects a page of invoices.
type ListFilter struct {
	// Status is an invoice status, or "all"/empty for every status.
	Status string

	CustomerID    string
	Size          int64
	StartingAfter string
}

// List returns one page of invoices, newest first.
func List(ctx context.Context, ledger services.Ledger, filter ListFilter) (*services.InvoicePage, error) {
	params := services.InvoiceListParams{
		CustomerID:    strings.TrimSpace(filter.CustomerID),
		Limit:         PageSize(filter.Size),
		StartingAfter: filter.StartingAfter,
	}

	status := strings.ToLower(strings.TrimSpace(filter.Status))
	if status != "" && status != StatusAll {
		if !knownStatus(models.InvoiceStatus(status)) {
			return nil, validationError("List", "", fmt.Errorf("unknown invoice status %q", filter.Status))
		}
		params.Status = models.InvoiceStatus(status)
	}

	page, err := ledger.ListInvoices(ctx, params)
	if err != nil {
		return nil, remoteError("List", "", err)
	}
	return page, nil
}

// Search finds invoices by number or customer id. A blank term lists the
// first page of every status.
func Search(ctx context.Context, ledger services.Ledger, term string) (*services.InvoicePage, error) {
	if strings.TrimSpace(term) == "" {
		return List(ctx, ledger, ListFilter{})
	}

	page, err := ledger.SearchInvoices(ctx, SearchQuery(term))
	if err != nil {
		return nil, remoteError("Search", "", err)
	}
	return page, nil
}

// SearchQuery builds the ledger search query for term.
func SearchQuery(term string) string {
	term = strings.TrimSpace(term)
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `"`, `\"`)
	return fmt.Sprintf(`number:"%s" OR customer:"%s"`, term, term)
}

// PageSize applies the default and the ledger maximum to size.
func PageSize(size int64) int64 {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > services.MaxPageSize:
		return services.MaxPageSize
	}
	return size
}

func knownStatus(s models.InvoiceStatus) bool {
	switch s {
	case models.InvoiceStatusDraft, models.InvoiceStatusOpen, models.InvoiceStatusPaid,
		models.InvoiceStatusVoid, models.InvoiceStatusUncollectible:
		return true
	}
	return false
}
