// Package ledger implements services.Ledger on top of the Stripe API.
package ledger

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

// DefaultHTTPTimeout bounds a single API call when the context carries no deadline.
const DefaultHTTPTimeout = 80 * time.Second

// Client is a Stripe-backed ledger. Calls are never retried.
type Client struct {
	api *client.API
	log zerolog.Logger
}

// New creates a ledger client for the given secret or restricted key.
func New(key string) (*Client, error) {
	log := logger.WithComponent("ledger")
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: DefaultHTTPTimeout},
		LeveledLogger:     leveledLogger{log: log},
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewWithBackend(key, backend)
}

// NewWithBackend creates a ledger client that talks to backend. It is used to
// point the client at a local stand-in.
func NewWithBackend(key string, backend stripe.Backend) (*Client, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	backends := &stripe.Backends{API: backend, Connect: backend, Uploads: backend}

	return &Client{
		api: client.New(strings.TrimSpace(key), backends),
		log: logger.WithComponent("ledger"),
	}, nil
}

func (c *Client) RetrieveInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx

	inv, err := c.api.Invoices.Get(id, params)
	if err != nil {
		return nil, translateError("RetrieveInvoice", err)
	}
	return toInvoice(inv), nil
}

func (c *Client) ListInvoices(ctx context.Context, p services.InvoiceListParams) (*services.InvoicePage, error) {
	params := &stripe.InvoiceListParams{}
	params.Context = ctx
	params.Single = true
	params.Limit = stripe.Int64(clampLimit(p.Limit))
	if p.StartingAfter != "" {
		params.StartingAfter = stripe.String(p.StartingAfter)
	}
	if p.Status != "" {
		params.Status = stripe.String(string(p.Status))
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}

	it := c.api.Invoices.List(params)
	page := &services.InvoicePage{}
	for it.Next() {
		page.Invoices = append(page.Invoices, toInvoice(it.Invoice()))
	}
	if err := it.Err(); err != nil {
		return nil, translateError("ListInvoices", err)
	}

	if meta := it.Meta(); meta != nil {
		page.HasMore = meta.HasMore
	}
	if list := it.InvoiceList(); list != nil && list.LastResponse != nil {
		applySendStamps(page.Invoices, list.LastResponse.RawJSON)
	}

	c.log.Debug().
		Int("count", len(page.Invoices)).
		Bool("has_more", page.HasMore).
		Str("status", string(p.Status)).
		Msg("Listed invoices")

	return page, nil
}

func (c *Client) SearchInvoices(ctx context.Context, query string) (*services.InvoicePage, error) {
	params := &stripe.InvoiceSearchParams{}
	params.Context = ctx
	params.Query = query
	params.Single = true
	params.Limit = stripe.Int64(services.MaxPageSize)

	it := c.api.Invoices.Search(params)
	page := &services.InvoicePage{}
	for it.Next() {
		page.Invoices = append(page.Invoices, toInvoice(it.Invoice()))
	}
	if err := it.Err(); err != nil {
		return nil, translateError("SearchInvoices", err)
	}
	if meta := it.Meta(); meta != nil {
		page.HasMore = meta.HasMore
	}

	return page, nil
}

func (c *Client) CreateInvoice(ctx context.Context, p services.InvoiceCreateParams) (*models.Invoice, error) {
	params := &stripe.InvoiceParams{
		Customer:         stripe.String(p.CustomerID),
		CollectionMethod: stripe.String(string(p.CollectionMethod)),
		AutoAdvance:      stripe.Bool(p.AutoAdvance),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(uuid.NewString())
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.Currency != "" {
		params.Currency = stripe.String(p.Currency)
	}
	if p.DaysUntilDue > 0 {
		params.DaysUntilDue = stripe.Int64(p.DaysUntilDue)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	inv, err := c.api.Invoices.New(params)
	if err != nil {
		return nil, translateError("CreateInvoice", err)
	}

	c.log.Info().
		Str("invoice_id", inv.ID).
		Str("customer_id", p.CustomerID).
		Msg("Created invoice")

	return toInvoice(inv), nil
}

func (c *Client) CreateInvoiceItem(ctx context.Context, p services.InvoiceItemParams) (*models.InvoiceItem, error) {
	params := &stripe.InvoiceItemParams{
		Customer: stripe.String(p.CustomerID),
		Invoice:  stripe.String(p.InvoiceID),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(uuid.NewString())
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.Quantity > 0 {
		params.Quantity = stripe.Int64(p.Quantity)
	}

	if p.PriceID != "" {
		params.Price = stripe.String(p.PriceID)
	} else {
		unit, err := decimal.NewFromString(p.UnitAmountDecimal)
		if err != nil {
			return nil, fmt.Errorf("CreateInvoiceItem: invalid unit amount %q: %w", p.UnitAmountDecimal, err)
		}
		amount, _ := unit.Float64()
		params.UnitAmountDecimal = stripe.Float64(amount)
		params.Currency = stripe.String(p.Currency)
	}

	item, err := c.api.InvoiceItems.New(params)
	if err != nil {
		return nil, translateError("CreateInvoiceItem", err)
	}
	return toInvoiceItem(item), nil
}

func (c *Client) UpdateInvoice(ctx context.Context, id string, p services.InvoiceUpdateParams) (*models.Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	if p.CollectionMethod != "" {
		params.CollectionMethod = stripe.String(string(p.CollectionMethod))
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}

	inv, err := c.api.Invoices.Update(id, params)
	if err != nil {
		return nil, translateError("UpdateInvoice", err)
	}
	return toInvoice(inv), nil
}

func (c *Client) FinalizeInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	params := &stripe.InvoiceFinalizeInvoiceParams{}
	params.Context = ctx

	inv, err := c.api.Invoices.FinalizeInvoice(id, params)
	if err != nil {
		return nil, translateError("FinalizeInvoice", err)
	}
	return toInvoice(inv), nil
}

func (c *Client) SendInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	params := &stripe.InvoiceSendInvoiceParams{}
	params.Context = ctx

	inv, err := c.api.Invoices.SendInvoice(id, params)
	if err != nil {
		return nil, translateError("SendInvoice", err)
	}
	return toInvoice(inv), nil
}

func (c *Client) PayInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	params := &stripe.InvoicePayParams{}
	params.Context = ctx

	inv, err := c.api.Invoices.Pay(id, params)
	if err != nil {
		return nil, translateError("PayInvoice", err)
	}
	return toInvoice(inv), nil
}

func (c *Client) VoidInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	params := &stripe.InvoiceVoidInvoiceParams{}
	params.Context = ctx

	inv, err := c.api.Invoices.VoidInvoice(id, params)
	if err != nil {
		return nil, translateError("VoidInvoice", err)
	}
	return toInvoice(inv), nil
}

func (c *Client) MarkUncollectible(ctx context.Context, id string) (*models.Invoice, error) {
	params := &stripe.InvoiceMarkUncollectibleParams{}
	params.Context = ctx

	inv, err := c.api.Invoices.MarkUncollectible(id, params)
	if err != nil {
		return nil, translateError("MarkUncollectible", err)
	}
	return toInvoice(inv), nil
}

func (c *Client) RetrieveCustomer(ctx context.Context, id string) (*models.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := c.api.Customers.Get(id, params)
	if err != nil {
		return nil, translateError("RetrieveCustomer", err)
	}
	return toCustomer(cust), nil
}

func (c *Client) ListCustomers(ctx context.Context, p services.CustomerListParams) (*services.CustomerPage, error) {
	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Single = true
	params.Limit = stripe.Int64(clampLimit(p.Limit))
	if p.StartingAfter != "" {
		params.StartingAfter = stripe.String(p.StartingAfter)
	}

	it := c.api.Customers.List(params)
	page := &services.CustomerPage{}
	for it.Next() {
		page.Customers = append(page.Customers, toCustomer(it.Customer()))
	}
	if err := it.Err(); err != nil {
		return nil, translateError("ListCustomers", err)
	}
	if meta := it.Meta(); meta != nil {
		page.HasMore = meta.HasMore
	}

	return page, nil
}

func (c *Client) CreateCustomer(ctx context.Context, p services.CustomerCreateParams) (*models.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(uuid.NewString())
	if p.Name != "" {
		params.Name = stripe.String(p.Name)
	}
	if p.Email != "" {
		params.Email = stripe.String(p.Email)
	}
	if p.Phone != "" {
		params.Phone = stripe.String(p.Phone)
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if !p.Address.Empty() {
		params.Address = toAddressParams(p.Address)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return nil, translateError("CreateCustomer", err)
	}

	c.log.Info().Str("customer_id", cust.ID).Msg("Created customer")

	return toCustomer(cust), nil
}

func (c *Client) SearchCustomers(ctx context.Context, query string) (*services.CustomerPage, error) {
	params := &stripe.CustomerSearchParams{}
	params.Context = ctx
	params.Query = query
	params.Single = true
	params.Limit = stripe.Int64(services.MaxPageSize)

	it := c.api.Customers.Search(params)
	page := &services.CustomerPage{}
	for it.Next() {
		page.Customers = append(page.Customers, toCustomer(it.Customer()))
	}
	if err := it.Err(); err != nil {
		return nil, translateError("SearchCustomers", err)
	}
	if meta := it.Meta(); meta != nil {
		page.HasMore = meta.HasMore
	}

	return page, nil
}

func (c *Client) ListPrices(ctx context.Context, p services.PriceListParams) ([]*models.Price, error) {
	params := &stripe.PriceListParams{}
	params.Context = ctx
	params.Single = true
	params.Limit = stripe.Int64(clampLimit(p.Limit))
	if p.ActiveOnly {
		params.Active = stripe.Bool(true)
	}
	params.AddExpand("data.product")

	it := c.api.Prices.List(params)
	var prices []*models.Price
	for it.Next() {
		prices = append(prices, toPrice(it.Price()))
	}
	if err := it.Err(); err != nil {
		return nil, translateError("ListPrices", err)
	}
	return prices, nil
}

// Ping retrieves the account balance, the cheapest authenticated read.
func (c *Client) Ping(ctx context.Context) error {
	params := &stripe.BalanceParams{}
	params.Context = ctx

	if _, err := c.api.Balance.Get(params); err != nil {
		return translateError("Ping", err)
	}
	return nil
}

func toAddressParams(a *models.Address) *stripe.AddressParams {
	params := &stripe.AddressParams{}
	set := func(dst **string, v string) {
		if v != "" {
			*dst = stripe.String(v)
		}
	}
	set(&params.Line1, a.Line1)
	set(&params.Line2, a.Line2)
	set(&params.City, a.City)
	set(&params.State, a.State)
	set(&params.PostalCode, a.PostalCode)
	set(&params.Country, a.Country)
	return params
}

func applySendStamps(invoices []*models.Invoice, raw []byte) {
	stamps := lastSendAtByID(raw)
	if len(stamps) == 0 {
		return
	}
	for _, inv := range invoices {
		if inv != nil && inv.LastSendAt == nil {
			inv.LastSendAt = stamps[inv.ID]
		}
	}
}

func clampLimit(limit int64) int64 {
	if limit <= 0 || limit > services.MaxPageSize {
		return services.MaxPageSize
	}
	return limit
}

// leveledLogger routes SDK log lines to zerolog.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Debugf(format string, v ...interface{}) { l.log.Debug().Msgf(format, v...) }
func (l leveledLogger) Infof(format string, v ...interface{})  { l.log.Debug().Msgf(format, v...) }
func (l leveledLogger) Warnf(format string, v ...interface{})  { l.log.Warn().Msgf(format, v...) }
func (l leveledLogger) Errorf(format string, v ...interface{}) { l.log.Error().Msgf(format, v...) }

var _ services.Ledger = (*Client)(nil)
