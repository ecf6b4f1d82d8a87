package services

import (
	"context"

	"invoicedesk/pkg/models"
)

// Ledger is the remote system of record for invoices, customers and prices.
// Every method is a single remote call; implementations must not retry.
type Ledger interface {
	RetrieveInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, params InvoiceListParams) (*InvoicePage, error)
	SearchInvoices(ctx context.Context, query string) (*InvoicePage, error)
	CreateInvoice(ctx context.Context, params InvoiceCreateParams) (*models.Invoice, error)
	CreateInvoiceItem(ctx context.Context, params InvoiceItemParams) (*models.InvoiceItem, error)
	UpdateInvoice(ctx context.Context, id string, params InvoiceUpdateParams) (*models.Invoice, error)

	// Action mutations. The returned invoice is the ledger's acknowledgement
	// and may lag behind a subsequent RetrieveInvoice.
	FinalizeInvoice(ctx context.Context, id string) (*models.Invoice, error)
	SendInvoice(ctx context.Context, id string) (*models.Invoice, error)
	PayInvoice(ctx context.Context, id string) (*models.Invoice, error)
	VoidInvoice(ctx context.Context, id string) (*models.Invoice, error)
	MarkUncollectible(ctx context.Context, id string) (*models.Invoice, error)

	RetrieveCustomer(ctx context.Context, id string) (*models.Customer, error)
	ListCustomers(ctx context.Context, params CustomerListParams) (*CustomerPage, error)
	CreateCustomer(ctx context.Context, params CustomerCreateParams) (*models.Customer, error)
	SearchCustomers(ctx context.Context, query string) (*CustomerPage, error)

	ListPrices(ctx context.Context, params PriceListParams) ([]*models.Price, error)

	// Ping performs a cheap authenticated read to verify connectivity.
	Ping(ctx context.Context) error
}

// MaxPageSize is the largest page the ledger returns for list calls.
const MaxPageSize = 100

type InvoiceListParams struct {
	Status        models.InvoiceStatus // empty lists every status
	CustomerID    string
	Limit         int64
	StartingAfter string
}

type InvoicePage struct {
	Invoices []*models.Invoice
	HasMore  bool
}

// InvoiceCreateParams describes an invoice shell; line items are attached separately.
type InvoiceCreateParams struct {
	CustomerID       string
	Description      string
	CollectionMethod models.CollectionMethod
	Currency         string
	DaysUntilDue     int64 // zero omits the field
	AutoAdvance      bool
	Metadata         map[string]string
}

// InvoiceUpdateParams carries the fields to change; zero values are left untouched.
type InvoiceUpdateParams struct {
	CollectionMethod models.CollectionMethod
	Description      string
}

// InvoiceItemParams attaches either a catalog price (PriceID) or a custom
// amount (UnitAmountDecimal in minor units plus Currency) to an invoice.
type InvoiceItemParams struct {
	CustomerID        string
	InvoiceID         string
	Description       string
	PriceID           string
	UnitAmountDecimal string
	Currency          string
	Quantity          int64
}

type CustomerListParams struct {
	Limit         int64
	StartingAfter string
}

type CustomerPage struct {
	Customers []*models.Customer
	HasMore   bool
}

type CustomerCreateParams struct {
	Name        string
	Email       string
	Phone       string
	Description string
	Address     *models.Address
	Metadata    map[string]string
}

type PriceListParams struct {
	ActiveOnly bool
	Limit      int64
}
