package invoice_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

// fakeLedger is an in-memory ledger that applies mutations the way the
// remote service would and records every call.
type fakeLedger struct {
	mu sync.Mutex

	invoices  map[string]*models.Invoice
	customers map[string]*models.Customer
	items     map[string][]*models.InvoiceItem

	calls []string
	errs  map[string]error

	// skipSendTimestamp leaves LastSendAt nil after a successful send.
	skipSendTimestamp bool

	// delay is applied inside every mutation, to widen race windows.
	delay    time.Duration
	inFlight map[string]int
	overlaps int

	seq int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		invoices:  make(map[string]*models.Invoice),
		customers: make(map[string]*models.Customer),
		items:     make(map[string][]*models.InvoiceItem),
		errs:      make(map[string]error),
		inFlight:  make(map[string]int),
	}
}

func (f *fakeLedger) addInvoice(inv *models.Invoice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *inv
	f.invoices[inv.ID] = &cp
}

func (f *fakeLedger) addCustomer(c *models.Customer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.customers[c.ID] = &cp
}

func (f *fakeLedger) failOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

func (f *fakeLedger) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeLedger) called(method string) int {
	n := 0
	for _, c := range f.callLog() {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeLedger) record(method string) error {
	f.calls = append(f.calls, method)
	return f.errs[method]
}

func (f *fakeLedger) RetrieveInvoice(_ context.Context, id string) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RetrieveInvoice"); err != nil {
		return nil, err
	}
	inv, ok := f.invoices[id]
	if !ok {
		return nil, &services.RemoteError{Op: "RetrieveInvoice", StatusCode: 404, Code: "resource_missing",
			Message: fmt.Sprintf("No such invoice: '%s'", id)}
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeLedger) ListInvoices(_ context.Context, params services.InvoiceListParams) (*services.InvoicePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListInvoices"); err != nil {
		return nil, err
	}
	page := &services.InvoicePage{}
	for _, inv := range f.invoices {
		if params.Status != "" && inv.Status != params.Status {
			continue
		}
		cp := *inv
		page.Invoices = append(page.Invoices, &cp)
	}
	return page, nil
}

func (f *fakeLedger) SearchInvoices(_ context.Context, _ string) (*services.InvoicePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SearchInvoices"); err != nil {
		return nil, err
	}
	return &services.InvoicePage{}, nil
}

func (f *fakeLedger) CreateInvoice(_ context.Context, params services.InvoiceCreateParams) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateInvoice"); err != nil {
		return nil, err
	}
	f.seq++
	inv := &models.Invoice{
		ID:               fmt.Sprintf("in_%d", f.seq),
		Status:           models.InvoiceStatusDraft,
		CollectionMethod: params.CollectionMethod,
		CustomerID:       params.CustomerID,
		Currency:         params.Currency,
		Description:      params.Description,
	}
	if c, ok := f.customers[params.CustomerID]; ok {
		inv.CustomerEmail = c.Email
	}
	f.invoices[inv.ID] = inv
	cp := *inv
	return &cp, nil
}

func (f *fakeLedger) CreateInvoiceItem(_ context.Context, params services.InvoiceItemParams) (*models.InvoiceItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateInvoiceItem"); err != nil {
		return nil, err
	}
	inv, ok := f.invoices[params.InvoiceID]
	if !ok {
		return nil, &services.RemoteError{Op: "CreateInvoiceItem", Message: "No such invoice"}
	}

	var unit int64
	if params.PriceID != "" {
		unit = 500
	} else if _, err := fmt.Sscanf(params.UnitAmountDecimal, "%d", &unit); err != nil {
		return nil, &services.RemoteError{Op: "CreateInvoiceItem", Message: "Invalid decimal"}
	}

	f.seq++
	item := &models.InvoiceItem{
		ID:          fmt.Sprintf("ii_%d", f.seq),
		InvoiceID:   params.InvoiceID,
		Description: params.Description,
		Currency:    inv.Currency,
		Quantity:    params.Quantity,
		Amount:      unit * params.Quantity,
	}
	f.items[params.InvoiceID] = append(f.items[params.InvoiceID], item)
	inv.Subtotal += item.Amount
	inv.Total += item.Amount
	inv.AmountDue += item.Amount
	return item, nil
}

func (f *fakeLedger) UpdateInvoice(_ context.Context, id string, params services.InvoiceUpdateParams) (*models.Invoice, error) {
	return f.mutate("UpdateInvoice", id, func(inv *models.Invoice) error {
		if params.CollectionMethod != "" {
			if inv.Status != models.InvoiceStatusDraft {
				return &services.RemoteError{Op: "UpdateInvoice", Message: "Finalized invoices can't be updated in this way"}
			}
			inv.CollectionMethod = params.CollectionMethod
		}
		if params.Description != "" {
			inv.Description = params.Description
		}
		return nil
	})
}

func (f *fakeLedger) FinalizeInvoice(_ context.Context, id string) (*models.Invoice, error) {
	return f.mutate("FinalizeInvoice", id, func(inv *models.Invoice) error {
		inv.Status = models.InvoiceStatusOpen
		return nil
	})
}

func (f *fakeLedger) SendInvoice(_ context.Context, id string) (*models.Invoice, error) {
	return f.mutate("SendInvoice", id, func(inv *models.Invoice) error {
		if inv.Status == models.InvoiceStatusDraft {
			inv.Status = models.InvoiceStatusOpen
		}
		if !f.skipSendTimestamp {
			now := time.Now()
			inv.LastSendAt = &now
		}
		return nil
	})
}

func (f *fakeLedger) PayInvoice(_ context.Context, id string) (*models.Invoice, error) {
	return f.mutate("PayInvoice", id, func(inv *models.Invoice) error {
		inv.Status = models.InvoiceStatusPaid
		inv.AmountPaid = inv.AmountDue
		return nil
	})
}

func (f *fakeLedger) VoidInvoice(_ context.Context, id string) (*models.Invoice, error) {
	return f.mutate("VoidInvoice", id, func(inv *models.Invoice) error {
		inv.Status = models.InvoiceStatusVoid
		return nil
	})
}

func (f *fakeLedger) MarkUncollectible(_ context.Context, id string) (*models.Invoice, error) {
	return f.mutate("MarkUncollectible", id, func(inv *models.Invoice) error {
		inv.Status = models.InvoiceStatusUncollectible
		return nil
	})
}

func (f *fakeLedger) mutate(method, id string, apply func(inv *models.Invoice) error) (*models.Invoice, error) {
	f.mu.Lock()
	if err := f.record(method); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.inFlight[id]++
	if f.inFlight[id] > 1 {
		f.overlaps++
	}
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight[id]--

	inv, ok := f.invoices[id]
	if !ok {
		return nil, &services.RemoteError{Op: method, StatusCode: 404, Message: fmt.Sprintf("No such invoice: '%s'", id)}
	}
	if err := apply(inv); err != nil {
		return nil, err
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeLedger) RetrieveCustomer(_ context.Context, id string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RetrieveCustomer"); err != nil {
		return nil, err
	}
	c, ok := f.customers[id]
	if !ok {
		return nil, &services.RemoteError{Op: "RetrieveCustomer", StatusCode: 404, Message: fmt.Sprintf("No such customer: '%s'", id)}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeLedger) ListCustomers(_ context.Context, _ services.CustomerListParams) (*services.CustomerPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListCustomers"); err != nil {
		return nil, err
	}
	page := &services.CustomerPage{}
	for _, c := range f.customers {
		cp := *c
		page.Customers = append(page.Customers, &cp)
	}
	return page, nil
}

func (f *fakeLedger) CreateCustomer(_ context.Context, params services.CustomerCreateParams) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateCustomer"); err != nil {
		return nil, err
	}
	f.seq++
	c := &models.Customer{ID: fmt.Sprintf("cus_%d", f.seq), Name: params.Name, Email: params.Email}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeLedger) SearchCustomers(_ context.Context, _ string) (*services.CustomerPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SearchCustomers"); err != nil {
		return nil, err
	}
	return &services.CustomerPage{}, nil
}

func (f *fakeLedger) ListPrices(_ context.Context, _ services.PriceListParams) ([]*models.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListPrices"); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeLedger) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("Ping")
}

var _ services.Ledger = (*fakeLedger)(nil)

// recordingLedger captures the parameters of create calls.
type recordingLedger struct {
	*fakeLedger

	createParams *services.InvoiceCreateParams
	itemParams   []services.InvoiceItemParams

	// failUnitAmount makes custom items with this minor-unit amount fail.
	failUnitAmount string
}

func (r *recordingLedger) CreateInvoice(ctx context.Context, params services.InvoiceCreateParams) (*models.Invoice, error) {
	r.createParams = &params
	return r.fakeLedger.CreateInvoice(ctx, params)
}

func (r *recordingLedger) CreateInvoiceItem(ctx context.Context, params services.InvoiceItemParams) (*models.InvoiceItem, error) {
	r.itemParams = append(r.itemParams, params)
	if r.failUnitAmount != "" && params.UnitAmountDecimal == r.failUnitAmount {
		return nil, &services.RemoteError{Op: "CreateInvoiceItem", StatusCode: 400, Message: "Invalid request"}
	}
	return r.fakeLedger.CreateInvoiceItem(ctx, params)
}
