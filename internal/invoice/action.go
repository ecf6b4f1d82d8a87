package invoice

import (
	"fmt"
	"strings"

	"invoicedesk/pkg/models"
)

// Action is a state transition the controller can request from the ledger.
type Action int

const (
	ActionFinalize Action = iota + 1
	ActionSend
	ActionPay
	ActionVoid
	ActionMarkUncollectible
)

// Actions lists every action in display order.
var Actions = []Action{ActionFinalize, ActionSend, ActionPay, ActionVoid, ActionMarkUncollectible}

func (a Action) String() string {
	switch a {
	case ActionFinalize:
		return "finalize"
	case ActionSend:
		return "send"
	case ActionPay:
		return "pay"
	case ActionVoid:
		return "void"
	case ActionMarkUncollectible:
		return "uncollectible"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Valid reports whether a is one of the declared actions.
func (a Action) Valid() bool {
	return a >= ActionFinalize && a <= ActionMarkUncollectible
}

// Description is the confirmation text shown before the action runs.
func (a Action) Description() string {
	switch a {
	case ActionFinalize:
		return "Finalize this invoice. This cannot be undone and makes the invoice ready for payment."
	case ActionSend:
		return "Send this invoice to the customer. An email with payment instructions will be sent."
	case ActionPay:
		return "Mark this invoice as paid. This records the payment and updates the invoice status."
	case ActionVoid:
		return "Void this invoice. This cannot be undone and cancels the invoice."
	case ActionMarkUncollectible:
		return "Mark this invoice as uncollectible, indicating payment is unlikely to be received."
	}
	return ""
}

// ParseAction maps a user-supplied name to an Action.
func ParseAction(name string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "finalize":
		return ActionFinalize, nil
	case "send":
		return ActionSend, nil
	case "pay", "mark-paid":
		return ActionPay, nil
	case "void":
		return ActionVoid, nil
	case "uncollectible", "mark-uncollectible":
		return ActionMarkUncollectible, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Permitted returns the actions the controller accepts for an invoice in status.
// Unknown statuses permit nothing.
func Permitted(status models.InvoiceStatus) []Action {
	switch status {
	case models.InvoiceStatusDraft:
		return []Action{ActionFinalize, ActionVoid}
	case models.InvoiceStatusOpen:
		return []Action{ActionSend, ActionPay, ActionVoid, ActionMarkUncollectible}
	case models.InvoiceStatusPaid, models.InvoiceStatusVoid, models.InvoiceStatusUncollectible:
		return nil
	}
	return nil
}

// AllowedFrom reports whether a is a permitted transition out of status.
func (a Action) AllowedFrom(status models.InvoiceStatus) bool {
	for _, permitted := range Permitted(status) {
		if permitted == a {
			return true
		}
	}
	return false
}
