package invoice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

// DefaultDaysUntilDue applies to send_invoice invoices created without a due period.
const DefaultDaysUntilDue = 30

// LineItemMode selects how a line item is priced.
type LineItemMode int

const (
	// LineItemCustom is a free-text item with an ad-hoc decimal amount.
	LineItemCustom LineItemMode = iota
	// LineItemPrice references a catalog price with its own currency.
	LineItemPrice
)

func (m LineItemMode) String() string {
	if m == LineItemPrice {
		return "price"
	}
	return "custom"
}

// LineItem is a line requested during invoice creation.
type LineItem struct {
	Mode        LineItemMode
	Description string

	// Amount is the unit amount in major units as typed by the user
	// (custom mode only), e.g. "10.00".
	Amount string

	// Quantity defaults to 1 when not positive.
	Quantity int64

	// Price is the selected catalog price (price mode only).
	Price *models.Price
}

// CreateRequest describes an invoice to create.
type CreateRequest struct {
	CustomerID       string
	Description      string
	CollectionMethod models.CollectionMethod

	// Currency is used unless a selected price fixes the currency.
	Currency     string
	DaysUntilDue int64
	Metadata     map[string]string
	LineItems    []LineItem
}

// ItemFailure records a line item that could not be attached.
type ItemFailure struct {
	Index int
	Item  LineItem
	Err   error
}

// CreateResult is the outcome of Create. The invoice exists even when some
// items failed; nothing is rolled back.
type CreateResult struct {
	// Invoice is the invoice re-read after all items were processed.
	Invoice *models.Invoice

	// Currency is the resolved invoice currency.
	Currency string

	Items    []*models.InvoiceItem
	Skipped  []int
	Failures []ItemFailure
}

// Creator runs the invoice creation workflow.
type Creator struct {
	ledger services.Ledger
	log    zerolog.Logger
}

// NewCreator creates an invoice creation workflow bound to the ledger.
func NewCreator(ledger services.Ledger) *Creator {
	return &Creator{
		ledger: ledger,
		log:    logger.WithComponent("invoice-create"),
	}
}

// Create creates the invoice shell, then attaches each line item separately.
// Validation failures abort before anything is created. A failing item is
// logged and recorded in the result; the invoice may end up with fewer items
// than requested.
func (c *Creator) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	const op = "Create"

	currency, err := resolveRequest(&req)
	if err != nil {
		return nil, validationError(op, "", err)
	}

	params := services.InvoiceCreateParams{
		CustomerID:       req.CustomerID,
		Description:      strings.TrimSpace(req.Description),
		CollectionMethod: req.CollectionMethod,
		Currency:         currency,
		AutoAdvance:      true,
		Metadata:         req.Metadata,
	}
	if req.CollectionMethod == models.CollectionSendInvoice {
		params.DaysUntilDue = req.DaysUntilDue
		if params.DaysUntilDue <= 0 {
			params.DaysUntilDue = DefaultDaysUntilDue
		}
	}

	c.log.Info().
		Str("customer_id", req.CustomerID).
		Str("currency", currency).
		Str("collection_method", string(req.CollectionMethod)).
		Int("line_items", len(req.LineItems)).
		Msg("Creating invoice")

	shell, err := c.ledger.CreateInvoice(ctx, params)
	if err != nil {
		return nil, remoteError(op, "", err)
	}

	result := &CreateResult{Currency: currency}
	log := c.log.With().Str("invoice_id", shell.ID).Logger()

	for i, item := range req.LineItems {
		itemParams, ok, err := buildItemParams(req.CustomerID, shell.ID, currency, item)
		if err != nil {
			log.Error().Err(err).Int("index", i).Str("mode", item.Mode.String()).Msg("Invoice item rejected")
			result.Failures = append(result.Failures, ItemFailure{Index: i, Item: item, Err: err})
			continue
		}
		if !ok {
			log.Debug().Int("index", i).Str("mode", item.Mode.String()).Msg("Skipping empty invoice item")
			result.Skipped = append(result.Skipped, i)
			continue
		}

		created, err := c.ledger.CreateInvoiceItem(ctx, itemParams)
		if err != nil {
			log.Error().Err(err).Int("index", i).Msg("Error creating invoice item")
			result.Failures = append(result.Failures, ItemFailure{Index: i, Item: item, Err: err})
			continue
		}
		result.Items = append(result.Items, created)
	}

	refreshed, err := c.ledger.RetrieveInvoice(ctx, shell.ID)
	if err != nil {
		// The shell exists; hand back what the ledger acknowledged.
		log.Warn().Err(err).Msg("Could not re-read created invoice")
		result.Invoice = shell
		return result, remoteError("refresh", shell.ID, err)
	}
	result.Invoice = refreshed

	log.Info().
		Int("items", len(result.Items)).
		Int("skipped", len(result.Skipped)).
		Int("failed", len(result.Failures)).
		Int64("total", refreshed.Total).
		Msg("Invoice created")

	return result, nil
}

// resolveRequest validates the request and returns the invoice currency.
func resolveRequest(req *CreateRequest) (string, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		return "", ErrMissingCustomer
	}

	if req.CollectionMethod == "" {
		req.CollectionMethod = models.CollectionSendInvoice
	}
	if !req.CollectionMethod.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCollectionMethod, req.CollectionMethod)
	}

	currency, err := ResolveCurrency(req.LineItems, req.Currency)
	if err != nil {
		return "", err
	}
	if currency == "" {
		return "", ErrMissingCurrency
	}
	return currency, nil
}

// ResolveCurrency returns the currency of the first selected price, or
// fallback when no price is selected. Prices that disagree fail with
// ErrMixedCurrency.
func ResolveCurrency(items []LineItem, fallback string) (string, error) {
	var priceCurrency string
	for _, item := range items {
		if item.Mode != LineItemPrice || item.Price == nil || item.Price.Currency == "" {
			continue
		}
		cur := normalizeCurrency(item.Price.Currency)
		if priceCurrency == "" {
			priceCurrency = cur
			continue
		}
		if cur != priceCurrency {
			return "", fmt.Errorf("%w (%s, %s)", ErrMixedCurrency, priceCurrency, cur)
		}
	}

	if priceCurrency != "" {
		return priceCurrency, nil
	}
	return normalizeCurrency(fallback), nil
}

// buildItemParams converts a line item into ledger parameters. ok is false
// when the item should be skipped.
func buildItemParams(customerID, invoiceID, currency string, item LineItem) (params services.InvoiceItemParams, ok bool, err error) {
	params = services.InvoiceItemParams{
		CustomerID:  customerID,
		InvoiceID:   invoiceID,
		Description: strings.TrimSpace(item.Description),
		Quantity:    item.Quantity,
	}
	if params.Quantity <= 0 {
		params.Quantity = 1
	}

	switch item.Mode {
	case LineItemPrice:
		if item.Price == nil || item.Price.ID == "" {
			return params, false, nil
		}
		if item.Price.Currency != "" && normalizeCurrency(item.Price.Currency) != currency {
			return params, false, fmt.Errorf("price currency (%s) does not match invoice currency (%s)",
				normalizeCurrency(item.Price.Currency), currency)
		}
		params.PriceID = item.Price.ID
		return params, true, nil

	default:
		minor, err := ToMinorUnits(item.Amount)
		if err != nil || minor <= 0 {
			return params, false, nil
		}
		params.UnitAmountDecimal = fmt.Sprintf("%d", minor)
		params.Currency = currency
		return params, true, nil
	}
}

// errInvalidAmount is returned by ToMinorUnits for unparsable input or
// amounts whose minor units do not fit an int64.
var errInvalidAmount = errors.New("invalid amount")

// ToMinorUnits converts a decimal major-unit amount to minor units,
// rounding half away from zero: "19.999" -> 2000, "1.005" -> 101.
func ToMinorUnits(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, errInvalidAmount
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", errInvalidAmount, amount, err)
	}

	minor := d.Shift(2).Round(0)
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(minMinorUnits) {
		return 0, fmt.Errorf("%w %q: out of range", errInvalidAmount, amount)
	}
	return minor.IntPart(), nil
}

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

func normalizeCurrency(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}
