// Package invoice implements the invoice action controller and the invoice
// creation workflow on top of a remote ledger.
//
// The ledger (see services.Ledger) is the sole source of truth. The
// controller keeps at most a disposable cached copy of each invoice it has
// touched and replaces it only from an authoritative re-read.
//
// Action protocol:
//   - Validate the requested action against the invoice's current status
//     (see Permitted). Terminal statuses accept nothing.
//   - Mutate: call the ledger mutation. The response is an acknowledgement
//     only and is never used to compute the new status.
//   - Refresh: re-read the invoice. The ledger is eventually consistent, so
//     an acknowledged mutation is not guaranteed to be visible yet.
//
// Sending runs a preflight first (SendWithChecks): a customer and a
// deliverable email must exist and the collection method must be
// send_invoice. Drafts are switched to send_invoice; finalized invoices are
// rejected since the ledger does not allow changing the method after
// finalization.
//
// No call is ever retried. Remote failures carry the ledger's message
// unmodified (services.RemoteError).
package invoice

import (
	"invoicedesk/pkg/models"
)

// ActionResult is the outcome of a successful RequestAction.
type ActionResult struct {
	Action Action

	// Ack is the ledger's response to the mutation. It is kept for
	// diagnostics and may not reflect the final state.
	Ack *models.Invoice

	// Invoice is the re-read, authoritative invoice. It is nil only when the
	// refresh after a successful mutation failed.
	Invoice *models.Invoice

	// Sent is set for ActionSend; see SendResult.
	Sent bool
}

// SendResult is the outcome of SendWithChecks.
type SendResult struct {
	// Sent reports whether the ledger recorded a send timestamp. It does not
	// prove delivery, and a successful send may still report false while the
	// ledger dispatches asynchronously.
	Sent bool

	// Ack is the ledger's response to the send mutation.
	Ack *models.Invoice

	// Invoice is the invoice re-read after sending.
	Invoice *models.Invoice

	// CollectionMethodUpdated is set when the preflight switched a draft to send_invoice.
	CollectionMethodUpdated bool

	// Email is the address the preflight resolved.
	Email string
}
