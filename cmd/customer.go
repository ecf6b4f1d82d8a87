package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"invoicedesk/internal/customer"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "List, search and create customers",
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers, newest first",
	Args:  cobra.NoArgs,
	RunE:  runCustomerList,
}

var customerSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search customers by name or email",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCustomerSearch,
}

var customerShowCmd = &cobra.Command{
	Use:   "show <customer-id>",
	Short: "Show a customer",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomerShow,
}

var customerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a customer",
	Example: `  invoicedesk customer create --name "Acme Ltd" --email billing@acme.test --country GB`,
	Args:    cobra.NoArgs,
	RunE:    runCustomerCreate,
}

// CustomerOutput is the JSON shape of a customer.
type CustomerOutput struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Description string          `json:"description,omitempty"`
	Address     *models.Address `json:"address,omitempty"`
	Balance     int64           `json:"balance"`
	Created     time.Time       `json:"created"`
}

// CustomerListOutput is the JSON shape of a page of customers.
type CustomerListOutput struct {
	Customers []CustomerOutput `json:"customers"`
	HasMore   bool             `json:"has_more"`
}

func init() {
	rootCmd.AddCommand(customerCmd)
	customerCmd.AddCommand(customerListCmd, customerSearchCmd, customerShowCmd, customerCreateCmd)

	customerListCmd.Flags().Int64("limit", customer.DefaultPageSize, "Page size (max 100)")
	customerListCmd.Flags().String("starting-after", "", "Customer id to continue listing after")

	customerCreateCmd.Flags().String("name", "", "Customer name [REQUIRED]")
	customerCreateCmd.Flags().String("email", "", "Billing email address")
	customerCreateCmd.Flags().String("phone", "", "Phone number")
	customerCreateCmd.Flags().String("description", "", "Internal description")
	customerCreateCmd.Flags().String("line1", "", "Address line 1")
	customerCreateCmd.Flags().String("line2", "", "Address line 2")
	customerCreateCmd.Flags().String("city", "", "City")
	customerCreateCmd.Flags().String("state", "", "State or region")
	customerCreateCmd.Flags().String("postal-code", "", "Postal code")
	customerCreateCmd.Flags().String("country", "", "Two-letter country code")
}

func runCustomerList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customer")

	limit, _ := cmd.Flags().GetInt64("limit")
	startingAfter, _ := cmd.Flags().GetString("starting-after")

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	page, err := customer.NewService(client).List(ctx, customer.Page{Size: limit, StartingAfter: startingAfter})
	if err != nil {
		return handleLedgerError(err, log)
	}
	return outputCustomerPage(cmd, page, log)
}

func runCustomerSearch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customer")

	var term string
	if len(args) == 1 {
		term = args[0]
	}

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	page, err := customer.NewService(client).Search(ctx, term)
	if err != nil {
		return handleLedgerError(err, log)
	}
	return outputCustomerPage(cmd, page, log)
}

func runCustomerShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customer")

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	cust, err := customer.NewService(client).Get(ctx, args[0])
	if err != nil {
		return handleLedgerError(err, log)
	}

	if jsonOutput(cmd) {
		return printJSON(toCustomerOutput(cust), log)
	}
	printCustomerDetail(cust)
	return nil
}

func runCustomerCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customer")

	flag := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	req := customer.CreateRequest{
		Name:        flag("name"),
		Email:       flag("email"),
		Phone:       flag("phone"),
		Description: flag("description"),
		Address: models.Address{
			Line1:      flag("line1"),
			Line2:      flag("line2"),
			City:       flag("city"),
			State:      flag("state"),
			PostalCode: flag("postal-code"),
			Country:    flag("country"),
		},
		Metadata: map[string]string{"source": "invoicedesk"},
	}

	// Rejected locally before connecting.
	if _, err := customer.CleanCreateRequest(req); err != nil {
		return handleLedgerError(err, log)
	}

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	cust, err := customer.NewService(client).Create(ctx, req)
	if err != nil {
		return handleLedgerError(err, log)
	}

	if jsonOutput(cmd) {
		return printJSON(toCustomerOutput(cust), log)
	}
	fmt.Printf("Created customer %s\n", customer.Label(cust))
	fmt.Printf("ID: %s\n", cust.ID)
	return nil
}

func toCustomerOutput(c *models.Customer) CustomerOutput {
	return CustomerOutput{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Description: c.Description,
		Address:     c.Address,
		Balance:     c.Balance,
		Created:     c.Created,
	}
}

func outputCustomerPage(cmd *cobra.Command, page *services.CustomerPage, log zerolog.Logger) error {
	if jsonOutput(cmd) {
		out := CustomerListOutput{Customers: []CustomerOutput{}, HasMore: page.HasMore}
		for _, c := range page.Customers {
			out.Customers = append(out.Customers, toCustomerOutput(c))
		}
		return printJSON(out, log)
	}

	if len(page.Customers) == 0 {
		fmt.Println("No customers found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
	for _, c := range page.Customers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, orDash(c.Name), orDash(c.Email), c.Created.Local().Format("2006-01-02"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if page.HasMore {
		last := page.Customers[len(page.Customers)-1]
		fmt.Printf("\nMore customers available: --starting-after %s\n", last.ID)
	}
	return nil
}

func printCustomerDetail(c *models.Customer) {
	fmt.Printf("Customer:    %s\n", customer.Label(c))
	fmt.Printf("ID:          %s\n", c.ID)
	fmt.Printf("Email:       %s\n", orDash(c.Email))
	fmt.Printf("Phone:       %s\n", orDash(c.Phone))
	if c.Description != "" {
		fmt.Printf("Description: %s\n", c.Description)
	}
	if !c.Address.Empty() {
		a := c.Address
		fmt.Printf("Address:     %s %s, %s %s %s %s\n", a.Line1, a.Line2, a.PostalCode, a.City, a.State, a.Country)
	}
	fmt.Printf("Balance:     %d (minor units)\n", c.Balance)
	fmt.Printf("Created:     %s\n", formatTime(&c.Created))
}
