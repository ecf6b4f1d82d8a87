package invoice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

func TestList_StatusFilter(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addInvoice(&models.Invoice{ID: "in_1", Status: models.InvoiceStatusOpen})
	ledger.addInvoice(&models.Invoice{ID: "in_2", Status: models.InvoiceStatusPaid})
	ledger.addInvoice(&models.Invoice{ID: "in_3", Status: models.InvoiceStatusOpen})

	page, err := invoice.List(context.Background(), ledger, invoice.ListFilter{Status: "open"})
	require.NoError(t, err)
	assert.Len(t, page.Invoices, 2)

	page, err = invoice.List(context.Background(), ledger, invoice.ListFilter{Status: invoice.StatusAll})
	require.NoError(t, err)
	assert.Len(t, page.Invoices, 3)

	_, err = invoice.List(context.Background(), ledger, invoice.ListFilter{Status: "overdue"})
	require.Error(t, err)
	assert.Equal(t, invoice.KindValidation, invoice.KindOf(err))
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, int64(invoice.DefaultPageSize), invoice.PageSize(0))
	assert.Equal(t, int64(35), invoice.PageSize(35))
	assert.Equal(t, int64(services.MaxPageSize), invoice.PageSize(1000))
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, `number:"INV-0001" OR customer:"INV-0001"`, invoice.SearchQuery(" INV-0001 "))
	assert.Equal(t, `number:"a\"b" OR customer:"a\"b"`, invoice.SearchQuery(`a"b`))
}

func TestSearch_BlankTermLists(t *testing.T) {
	ledger := newFakeLedger()

	_, err := invoice.Search(context.Background(), ledger, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ListInvoices"}, ledger.callLog())

	_, err = invoice.Search(context.Background(), ledger, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.called("SearchInvoices"))
}
