package models

import "time"

// InvoiceStatus mirrors the ledger's invoice status values.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusVoid          InvoiceStatus = "void"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
)

// Terminal reports whether no further transition can be requested from the status.
func (s InvoiceStatus) Terminal() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusVoid, InvoiceStatusUncollectible:
		return true
	}
	return false
}

// CollectionMethod decides whether the ledger charges the customer or emails the invoice.
type CollectionMethod string

const (
	CollectionChargeAutomatically CollectionMethod = "charge_automatically"
	CollectionSendInvoice         CollectionMethod = "send_invoice"
)

// Valid reports whether m is one of the two known collection methods.
func (m CollectionMethod) Valid() bool {
	return m == CollectionChargeAutomatically || m == CollectionSendInvoice
}

type Invoice struct {
	// Core identifiers
	ID     string // Ledger identifier, stable for the invoice's lifetime
	Number string // Human-readable number, assigned on finalization

	Status           InvoiceStatus
	CollectionMethod CollectionMethod

	// Customer reference and the email cached on the invoice (may be stale)
	CustomerID    string
	CustomerName  string
	CustomerEmail string

	// LastSendAt is set once the ledger has recorded an email dispatch.
	LastSendAt *time.Time

	// Amounts in minor units, display only
	Currency   string
	Subtotal   int64
	Total      int64
	AmountDue  int64
	AmountPaid int64

	Description      string
	HostedInvoiceURL string
	Created          time.Time
	DueDate          *time.Time

	Lines []InvoiceLine
}

// InvoiceLine is a read-only line of a retrieved invoice.
type InvoiceLine struct {
	ID          string
	Description string
	Quantity    int64
	Amount      int64
	Currency    string
}

// InvoiceItem is a pending item attached to a draft invoice.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Description string
	Currency    string
	Quantity    int64
	Amount      int64
}
