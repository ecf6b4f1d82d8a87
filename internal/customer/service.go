// Package customer implements the customer workflows: cleaned creation,
// paged listing and search.
package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

// DefaultPageSize is used when a page size is not given.
const DefaultPageSize = 20

var (
	ErrMissingName       = errors.New("customer name is required")
	ErrMissingCustomerID = errors.New("customer id is required")
)

// Ledger is the part of services.Ledger the customer workflows use.
type Ledger interface {
	RetrieveCustomer(ctx context.Context, id string) (*models.Customer, error)
	ListCustomers(ctx context.Context, params services.CustomerListParams) (*services.CustomerPage, error)
	CreateCustomer(ctx context.Context, params services.CustomerCreateParams) (*models.Customer, error)
	SearchCustomers(ctx context.Context, query string) (*services.CustomerPage, error)
}

// Page selects a page of customers.
type Page struct {
	Size          int64
	StartingAfter string
}

// CreateRequest holds the raw form input for a new customer.
type CreateRequest struct {
	Name        string
	Email       string
	Phone       string
	Description string
	Address     models.Address
	Metadata    map[string]string
}

// Service runs customer workflows against a ledger.
type Service struct {
	ledger Ledger
	log    zerolog.Logger
}

func NewService(ledger Ledger) *Service {
	return &Service{
		ledger: ledger,
		log:    logger.WithComponent("customer"),
	}
}

// Create trims every field, drops empty ones and creates the customer. The
// address is only sent when at least one of its fields is set.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Customer, error) {
	params, err := CleanCreateRequest(req)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("name", params.Name).
		Bool("has_email", params.Email != "").
		Bool("has_address", params.Address != nil).
		Msg("Creating customer")

	cust, err := s.ledger.CreateCustomer(ctx, params)
	if err != nil {
		s.log.Error().Err(err).Msg("Error creating customer")
		return nil, err
	}
	return cust, nil
}

// CleanCreateRequest converts form input into ledger parameters.
func CleanCreateRequest(req CreateRequest) (services.CustomerCreateParams, error) {
	params := services.CustomerCreateParams{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Description: strings.TrimSpace(req.Description),
		Metadata:    req.Metadata,
	}
	if params.Name == "" {
		return params, ErrMissingName
	}

	addr := &models.Address{
		Line1:      strings.TrimSpace(req.Address.Line1),
		Line2:      strings.TrimSpace(req.Address.Line2),
		City:       strings.TrimSpace(req.Address.City),
		State:      strings.TrimSpace(req.Address.State),
		PostalCode: strings.TrimSpace(req.Address.PostalCode),
		Country:    strings.TrimSpace(req.Address.Country),
	}
	if !addr.Empty() {
		params.Address = addr
	}

	return params, nil
}

// Get retrieves one customer.
func (s *Service) Get(ctx context.Context, id string) (*models.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingCustomerID
	}
	return s.ledger.RetrieveCustomer(ctx, id)
}

// List returns one page of customers, newest first.
func (s *Service) List(ctx context.Context, page Page) (*services.CustomerPage, error) {
	return s.ledger.ListCustomers(ctx, services.CustomerListParams{
		Limit:         PageSize(page.Size),
		StartingAfter: page.StartingAfter,
	})
}

// Search finds customers by name or email. A blank term lists the first page.
func (s *Service) Search(ctx context.Context, term string) (*services.CustomerPage, error) {
	if strings.TrimSpace(term) == "" {
		return s.List(ctx, Page{})
	}

	query := SearchQuery(term)
	s.log.Debug().Str("query", query).Msg("Searching customers")
	return s.ledger.SearchCustomers(ctx, query)
}

// SearchQuery builds the ledger search query for term.
func SearchQuery(term string) string {
	q := QuoteTerm(term)
	return fmt.Sprintf("name:%s OR email:%s", q, q)
}

// QuoteTerm quotes term for a search query, escaping embedded quotes and
// backslashes.
func QuoteTerm(term string) string {
	term = strings.TrimSpace(term)
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `"`, `\"`)
	return `"` + term + `"`
}

// PageSize applies the default and the ledger maximum to size.
func PageSize(size int64) int64 {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > services.MaxPageSize:
		return services.MaxPageSize
	}
	return size
}

// Label renders a customer for pickers and tables: "name (email)",
// "name (id)", or the id alone.
func Label(c *models.Customer) string {
	if c == nil {
		return ""
	}
	if c.Name == "" {
		return c.ID
	}
	if c.Email != "" {
		return fmt.Sprintf("%s (%s)", c.Name, c.Email)
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}
