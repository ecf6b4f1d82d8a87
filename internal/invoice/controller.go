package invoice

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

// Controller validates and executes invoice actions against a ledger.
// It is safe for concurrent use; actions on the same invoice are serialized.
type Controller struct {
	ledger services.Ledger
	log    zerolog.Logger

	mu    sync.RWMutex
	cache map[string]*models.Invoice

	locks keyedMutex
}

// NewController creates a controller bound to the given ledger.
func NewController(ledger services.Ledger) *Controller {
	return &Controller{
		ledger: ledger,
		log:    logger.WithComponent("invoice-controller"),
		cache:  make(map[string]*models.Invoice),
	}
}

// Cached returns a copy of the controller's view of an invoice, if any.
func (c *Controller) Cached(invoiceID string) (*models.Invoice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	inv, ok := c.cache[invoiceID]
	if !ok {
		return nil, false
	}
	cp := *inv
	return &cp, true
}

// Load re-reads an invoice from the ledger and replaces the cached copy.
func (c *Controller) Load(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	const op = "Load"

	if strings.TrimSpace(invoiceID) == "" {
		return nil, validationError(op, "", ErrMissingInvoiceID)
	}

	unlock := c.locks.lock(invoiceID)
	defer unlock()

	inv, err := c.refresh(ctx, invoiceID)
	if err != nil {
		c.forget(invoiceID)
		return nil, remoteError(op, invoiceID, err)
	}
	return inv, nil
}

// RequestAction runs action against the invoice and returns the refreshed
// invoice. The action is checked against the invoice's current status first;
// a rejected action makes no remote call.
func (c *Controller) RequestAction(ctx context.Context, invoiceID string, action Action) (*ActionResult, error) {
	const op = "RequestAction"

	if strings.TrimSpace(invoiceID) == "" {
		return nil, validationError(op, "", ErrMissingInvoiceID)
	}
	if !action.Valid() {
		return nil, validationError(op, invoiceID, fmt.Errorf("%w: %s", ErrUnknownAction, action))
	}

	unlock := c.locks.lock(invoiceID)
	defer unlock()

	log := c.log.With().
		Str("invoice_id", invoiceID).
		Str("action", action.String()).
		Logger()

	current, err := c.current(ctx, invoiceID)
	if err != nil {
		c.forget(invoiceID)
		return nil, remoteError("retrieve", invoiceID, err)
	}

	if !action.AllowedFrom(current.Status) {
		log.Warn().
			Str("status", string(current.Status)).
			Msg("Action not permitted for invoice status")
		return nil, validationError(op, invoiceID,
			fmt.Errorf("%w: cannot %s an invoice in status %q", ErrActionNotPermitted, action, current.Status))
	}

	log.Info().
		Str("status", string(current.Status)).
		Msg("Requesting invoice action")

	if action == ActionSend {
		sent, err := c.sendWithChecks(ctx, invoiceID)
		if err != nil {
			if KindOf(err) == KindRemote {
				c.forget(invoiceID)
			}
			if sent != nil {
				// Sent but not re-read.
				return &ActionResult{Action: action, Ack: sent.Ack}, err
			}
			return nil, err
		}
		return &ActionResult{
			Action:  action,
			Ack:     sent.Ack,
			Invoice: sent.Invoice,
			Sent:    sent.Sent,
		}, nil
	}

	ack, err := c.mutate(ctx, invoiceID, action)
	if err != nil {
		log.Error().Err(err).Msg("Invoice action failed")
		c.forget(invoiceID)
		return nil, remoteError(action.String(), invoiceID, err)
	}

	result := &ActionResult{Action: action, Ack: ack}

	refreshed, err := c.refresh(ctx, invoiceID)
	if err != nil {
		log.Error().Err(err).Msg("Invoice action succeeded but refresh failed")
		c.forget(invoiceID)
		return result, remoteError("refresh", invoiceID, err)
	}
	result.Invoice = refreshed

	log.Info().
		Str("status", string(refreshed.Status)).
		Msg("Invoice action completed")

	return result, nil
}

// SendWithChecks runs the send preflight and sends the invoice. It always
// re-reads the invoice instead of trusting a cached copy.
func (c *Controller) SendWithChecks(ctx context.Context, invoiceID string) (*SendResult, error) {
	const op = "SendWithChecks"

	if strings.TrimSpace(invoiceID) == "" {
		return nil, validationError(op, "", ErrMissingInvoiceID)
	}

	unlock := c.locks.lock(invoiceID)
	defer unlock()

	result, err := c.sendWithChecks(ctx, invoiceID)
	if err != nil && KindOf(err) == KindRemote {
		c.forget(invoiceID)
	}
	return result, err
}

func (c *Controller) sendWithChecks(ctx context.Context, invoiceID string) (*SendResult, error) {
	const op = "SendWithChecks"

	log := c.log.With().Str("invoice_id", invoiceID).Logger()

	inv, err := c.ledger.RetrieveInvoice(ctx, invoiceID)
	if err != nil {
		return nil, remoteError(op, invoiceID, err)
	}

	// Drafts stay sendable here; the collection method switch below needs them.
	if inv.Status.Terminal() {
		log.Warn().Str("status", string(inv.Status)).Msg("Cannot send an invoice in a terminal status")
		return nil, validationError(op, invoiceID,
			fmt.Errorf("%w: cannot send an invoice in status %q", ErrActionNotPermitted, inv.Status))
	}

	if inv.CustomerID == "" {
		return nil, preconditionError(op, invoiceID, ErrNoCustomerAttached)
	}

	email := strings.TrimSpace(inv.CustomerEmail)
	if email == "" {
		cust, err := c.ledger.RetrieveCustomer(ctx, inv.CustomerID)
		if err != nil {
			return nil, remoteError(op, invoiceID, err)
		}
		if cust != nil {
			email = strings.TrimSpace(cust.Email)
		}
	}
	if email == "" {
		return nil, preconditionError(op, invoiceID, ErrNoCustomerEmail)
	}

	result := &SendResult{Email: email}

	if inv.CollectionMethod != models.CollectionSendInvoice {
		if inv.Status != models.InvoiceStatusDraft {
			log.Warn().
				Str("status", string(inv.Status)).
				Str("collection_method", string(inv.CollectionMethod)).
				Msg("Invoice cannot be emailed with its collection method")
			return nil, preconditionError(op, invoiceID, ErrWrongCollectionMethod)
		}

		log.Info().Msg("Switching draft invoice to send_invoice collection")
		if _, err := c.ledger.UpdateInvoice(ctx, invoiceID, services.InvoiceUpdateParams{
			CollectionMethod: models.CollectionSendInvoice,
		}); err != nil {
			return nil, remoteError(op, invoiceID, err)
		}
		result.CollectionMethodUpdated = true
	}

	ack, err := c.ledger.SendInvoice(ctx, invoiceID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to send invoice")
		return nil, remoteError(op, invoiceID, err)
	}
	result.Ack = ack

	updated, err := c.refresh(ctx, invoiceID)
	if err != nil {
		return result, remoteError("refresh", invoiceID, err)
	}
	result.Invoice = updated
	result.Sent = updated.LastSendAt != nil

	if !result.Sent {
		log.Warn().
			Str("email", email).
			Msg("Send succeeded but the ledger recorded no send time; check account email settings")
	} else {
		log.Info().
			Str("email", email).
			Time("last_send_at", *updated.LastSendAt).
			Msg("Invoice sent")
	}

	return result, nil
}

func (c *Controller) mutate(ctx context.Context, invoiceID string, action Action) (*models.Invoice, error) {
	switch action {
	case ActionFinalize:
		return c.ledger.FinalizeInvoice(ctx, invoiceID)
	case ActionPay:
		return c.ledger.PayInvoice(ctx, invoiceID)
	case ActionVoid:
		return c.ledger.VoidInvoice(ctx, invoiceID)
	case ActionMarkUncollectible:
		return c.ledger.MarkUncollectible(ctx, invoiceID)
	case ActionSend:
		return c.ledger.SendInvoice(ctx, invoiceID)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
}

// current returns the cached invoice or loads it.
func (c *Controller) current(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	if inv, ok := c.Cached(invoiceID); ok {
		return inv, nil
	}
	return c.refresh(ctx, invoiceID)
}

// refresh re-reads the invoice and replaces the cached copy.
func (c *Controller) refresh(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	inv, err := c.ledger.RetrieveInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	cp := *inv
	c.mu.Lock()
	c.cache[invoiceID] = &cp
	c.mu.Unlock()

	return inv, nil
}

func (c *Controller) forget(invoiceID string) {
	c.mu.Lock()
	delete(c.cache, invoiceID)
	c.mu.Unlock()
}

// keyedMutex hands out one mutex per key and drops it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
