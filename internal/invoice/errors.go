package invoice

import (
	"errors"
	"fmt"
)

// Kind classifies a controller failure so callers can present it distinctly.
type Kind string

const (
	// KindValidation failures are detected locally before any remote call.
	KindValidation Kind = "validation"

	// KindPrecondition failures come from the send preflight, before the
	// remote send mutation is attempted.
	KindPrecondition Kind = "precondition"

	// KindRemote failures are reported by the ledger; the upstream message
	// is kept intact in the wrapped services.RemoteError.
	KindRemote Kind = "remote"
)

// Validation errors
var (
	// ErrMissingInvoiceID is returned when an action is requested without an invoice id.
	ErrMissingInvoiceID = errors.New("invoice id is required")

	// ErrUnknownAction is returned for an action name outside the known set.
	ErrUnknownAction = errors.New("unknown invoice action")

	// ErrActionNotPermitted is returned when the invoice's current status has
	// no transition for the requested action.
	ErrActionNotPermitted = errors.New("action not permitted for invoice status")

	// ErrMissingCustomer is returned when an invoice is created without a customer.
	ErrMissingCustomer = errors.New("a customer is required to create an invoice")

	// ErrInvalidCollectionMethod is returned for a collection method other than
	// charge_automatically or send_invoice.
	ErrInvalidCollectionMethod = errors.New("invalid collection method")

	// ErrMissingCurrency is returned when no currency is given and no selected
	// price fixes one.
	ErrMissingCurrency = errors.New("invoice currency is required")

	// ErrMixedCurrency is returned when selected prices disagree in currency.
	ErrMixedCurrency = errors.New("selected prices have mixed currencies; choose prices with the same currency")
)

// Send preflight errors
var (
	ErrNoCustomerAttached = errors.New("invoice has no customer attached")

	ErrNoCustomerEmail = errors.New("customer has no email; add an email to the customer before sending")

	ErrWrongCollectionMethod = errors.New("invoice is not configured for email (collection_method is charge_automatically); " +
		"duplicate the invoice as a draft and set collection method to send_invoice")
)

// Error wraps controller failures with the operation, kind and invoice involved.
type Error struct {
	// Op is the operation that failed (e.g. "RequestAction", "SendWithChecks", "refresh").
	Op string

	Kind Kind

	// InvoiceID is the invoice the operation ran against, if known.
	InvoiceID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.InvoiceID != "" {
		return fmt.Sprintf("invoice %s: %s failed: %v", e.InvoiceID, e.Op, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func validationError(op, invoiceID string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, InvoiceID: invoiceID, Err: err}
}

func preconditionError(op, invoiceID string, err error) *Error {
	return &Error{Op: op, Kind: KindPrecondition, InvoiceID: invoiceID, Err: err}
}

// remoteError wraps a ledger failure unless it already carries a kind.
func remoteError(op, invoiceID string, err error) error {
	if err == nil {
		return nil
	}

	var invErr *Error
	if errors.As(err, &invErr) {
		return err
	}

	return &Error{Op: op, Kind: KindRemote, InvoiceID: invoiceID, Err: err}
}

// KindOf returns the kind of a controller error, or "" for foreign errors.
func KindOf(err error) Kind {
	var invErr *Error
	if errors.As(err, &invErr) {
		return invErr.Kind
	}
	return ""
}
