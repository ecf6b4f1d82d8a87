package ledger

import (
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v74"
	"invoicedesk/pkg/models"
)

func toInvoice(inv *stripe.Invoice) *models.Invoice {
	if inv == nil {
		return nil
	}

	out := &models.Invoice{
		ID:               inv.ID,
		Number:           inv.Number,
		Status:           models.InvoiceStatus(inv.Status),
		CollectionMethod: models.CollectionMethod(inv.CollectionMethod),
		CustomerEmail:    inv.CustomerEmail,
		CustomerName:     inv.CustomerName,
		Currency:         string(inv.Currency),
		Subtotal:         inv.Subtotal,
		Total:            inv.Total,
		AmountDue:        inv.AmountDue,
		AmountPaid:       inv.AmountPaid,
		Description:      inv.Description,
		HostedInvoiceURL: inv.HostedInvoiceURL,
		Created:          unixTime(inv.Created),
		DueDate:          unixTimePtr(inv.DueDate),
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}

	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line == nil {
				continue
			}
			out.Lines = append(out.Lines, models.InvoiceLine{
				ID:          line.ID,
				Description: line.Description,
				Quantity:    line.Quantity,
				Amount:      line.Amount,
				Currency:    string(line.Currency),
			})
		}
	}

	if inv.LastResponse != nil {
		out.LastSendAt = lastSendAt(inv.LastResponse.RawJSON)
	}

	return out
}

func toInvoiceItem(item *stripe.InvoiceItem) *models.InvoiceItem {
	if item == nil {
		return nil
	}

	out := &models.InvoiceItem{
		ID:          item.ID,
		Description: item.Description,
		Currency:    string(item.Currency),
		Quantity:    item.Quantity,
		Amount:      item.Amount,
	}
	if item.Invoice != nil {
		out.InvoiceID = item.Invoice.ID
	}
	return out
}

func toCustomer(c *stripe.Customer) *models.Customer {
	if c == nil {
		return nil
	}

	out := &models.Customer{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Description: c.Description,
		Balance:     c.Balance,
		Created:     unixTime(c.Created),
	}
	if c.Address != nil {
		addr := &models.Address{
			Line1:      c.Address.Line1,
			Line2:      c.Address.Line2,
			City:       c.Address.City,
			State:      c.Address.State,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		}
		if !addr.Empty() {
			out.Address = addr
		}
	}
	return out
}

func toPrice(p *stripe.Price) *models.Price {
	if p == nil {
		return nil
	}

	out := &models.Price{
		ID:         p.ID,
		Currency:   string(p.Currency),
		UnitAmount: p.UnitAmount,
		Nickname:   p.Nickname,
		Active:     p.Active,
	}
	if p.Product != nil {
		out.ProductName = p.Product.Name
	}
	return out
}

// sendStamp holds the fields the typed SDK structs do not expose.
type sendStamp struct {
	ID         string `json:"id"`
	LastSendAt *int64 `json:"last_send_at"`
}

// lastSendAt reads last_send_at from a raw invoice response.
func lastSendAt(raw []byte) *time.Time {
	if len(raw) == 0 {
		return nil
	}

	var stamp sendStamp
	if err := json.Unmarshal(raw, &stamp); err != nil || stamp.LastSendAt == nil {
		return nil
	}
	return unixTimePtr(*stamp.LastSendAt)
}

// lastSendAtByID reads last_send_at for every invoice in a raw list or
// search page.
func lastSendAtByID(raw []byte) map[string]*time.Time {
	if len(raw) == 0 {
		return nil
	}

	var page struct {
		Data []sendStamp `json:"data"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil
	}

	stamps := make(map[string]*time.Time, len(page.Data))
	for _, s := range page.Data {
		if s.LastSendAt != nil {
			stamps[s.ID] = unixTimePtr(*s.LastSendAt)
		}
	}
	return stamps
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixTimePtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
