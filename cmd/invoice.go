package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"invoicedesk/internal/invoice"
	"invoicedesk/internal/ledger"
	"invoicedesk/internal/logger"
	"invoicedesk/internal/sheets"
	"invoicedesk/pkg/models"
	"invoicedesk/pkg/services"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "List, create and act on invoices",
	Long: `Work with the invoices of the connected Stripe account.

Actions follow the invoice status:
  draft          finalize, void
  open           send, pay, void, uncollectible
  paid, void,
  uncollectible  none

After every action the invoice is re-read from Stripe and the refreshed
status is shown; the action response itself is never trusted.`,
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices, newest first",
	Example: `  invoicedesk invoice list --status open
  invoicedesk invoice list --customer cus_123 --limit 50`,
	Args: cobra.NoArgs,
	RunE: runInvoiceList,
}

var invoiceSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search invoices by number or customer id",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInvoiceSearch,
}

var invoiceShowCmd = &cobra.Command{
	Use:   "show <invoice-id>",
	Short: "Show an invoice with its lines and permitted actions",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceShow,
}

var invoiceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an invoice with custom or catalog line items",
	Long: `Create an invoice for a customer, then attach each line item.

Custom items are given as "description:amount[:quantity]" with the amount in
major units (e.g. "Consulting:150.00:3"). Catalog prices are given as
"price_id[:quantity]"; a selected price fixes the invoice currency.

Items with an empty or non-positive amount are skipped. An item the ledger
rejects is reported, but the invoice is kept with the remaining items.`,
	Example: `  invoicedesk invoice create --customer cus_123 --item "Consulting:150:3"
  invoicedesk invoice create --customer cus_123 --price price_abc:2 --days-until-due 14`,
	Args: cobra.NoArgs,
	RunE: runInvoiceCreate,
}

var invoiceActionCmd = &cobra.Command{
	Use:   "action <invoice-id> <action>",
	Short: "Run an action (finalize, send, pay, void, uncollectible) on an invoice",
	Example: `  invoicedesk invoice action in_123 finalize
  invoicedesk invoice action in_123 uncollectible`,
	Args: cobra.ExactArgs(2),
	RunE: runInvoiceAction,
}

var invoiceSendCmd = &cobra.Command{
	Use:   "send <invoice-id>",
	Short: "Email an invoice to its customer after checking it can be sent",
	Long: `Check that the invoice has a customer with an email address and uses
send_invoice collection, then ask Stripe to email it.

Draft invoices using charge_automatically are switched to send_invoice
first. Finalized invoices with charge_automatically cannot be emailed.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoiceSend,
}

var invoiceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Append invoices to a Google Sheet",
	Long: `List invoices and append one row per invoice to a Google Sheets
worksheet, creating it with a header row when missing.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  invoicedesk invoice export --sheet-url https://docs.google.com/spreadsheets/d/abc/edit --status paid`,
	Args:    cobra.NoArgs,
	RunE:    runInvoiceExport,
}

// InvoiceOutput is the JSON shape of an invoice.
type InvoiceOutput struct {
	ID               string              `json:"id"`
	Number           string              `json:"number,omitempty"`
	Status           string              `json:"status"`
	CollectionMethod string              `json:"collection_method"`
	CustomerID       string              `json:"customer_id"`
	CustomerName     string              `json:"customer_name,omitempty"`
	CustomerEmail    string              `json:"customer_email,omitempty"`
	Currency         string              `json:"currency"`
	Total            int64               `json:"total"`
	AmountDue        int64               `json:"amount_due"`
	AmountPaid       int64               `json:"amount_paid"`
	Description      string              `json:"description,omitempty"`
	HostedInvoiceURL string              `json:"hosted_invoice_url,omitempty"`
	Created          time.Time           `json:"created"`
	DueDate          *time.Time          `json:"due_date,omitempty"`
	LastSendAt       *time.Time          `json:"last_send_at,omitempty"`
	Lines            []InvoiceLineOutput `json:"lines,omitempty"`
	Actions          []string            `json:"actions"`
}

type InvoiceLineOutput struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	Amount      int64  `json:"amount"`
}

// InvoiceListOutput is the JSON shape of a page of invoices.
type InvoiceListOutput struct {
	Invoices []InvoiceOutput `json:"invoices"`
	HasMore  bool            `json:"has_more"`
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceListCmd, invoiceSearchCmd, invoiceShowCmd, invoiceCreateCmd,
		invoiceActionCmd, invoiceSendCmd, invoiceExportCmd)

	invoiceListCmd.Flags().String("status", invoice.StatusAll, "Filter by status (all, draft, open, paid, void, uncollectible)")
	invoiceListCmd.Flags().String("customer", "", "Only invoices of this customer id")
	invoiceListCmd.Flags().Int64("limit", invoice.DefaultPageSize, "Page size (max 100)")
	invoiceListCmd.Flags().String("starting-after", "", "Invoice id to continue listing after")

	invoiceActionCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	invoiceSendCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	invoiceCreateCmd.Flags().String("customer", "", "Customer id [REQUIRED]")
	invoiceCreateCmd.Flags().String("currency", "", "Invoice currency (default: DEFAULT_CURRENCY)")
	invoiceCreateCmd.Flags().String("collection-method", string(models.CollectionSendInvoice), "send_invoice or charge_automatically")
	invoiceCreateCmd.Flags().Int64("days-until-due", 0, "Days until due for send_invoice (default: DEFAULT_DAYS_UNTIL_DUE)")
	invoiceCreateCmd.Flags().String("description", "", "Invoice memo")
	invoiceCreateCmd.Flags().StringArray("item", nil, `Custom line item "description:amount[:quantity]" (repeatable)`)
	invoiceCreateCmd.Flags().StringArray("price", nil, `Catalog price "price_id[:quantity]" (repeatable)`)
	invoiceCreateCmd.MarkFlagRequired("customer")

	invoiceExportCmd.Flags().String("sheet-url", "", "Google Sheets URL (default: GOOGLE_SHEET_URL)")
	invoiceExportCmd.Flags().String("worksheet", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	invoiceExportCmd.Flags().String("status", invoice.StatusAll, "Only export invoices in this status")
	invoiceExportCmd.Flags().Int64("limit", services.MaxPageSize, "Number of invoices to export (max 100)")
}

func runInvoiceList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	status, _ := cmd.Flags().GetString("status")
	customerID, _ := cmd.Flags().GetString("customer")
	limit, _ := cmd.Flags().GetInt64("limit")
	startingAfter, _ := cmd.Flags().GetString("starting-after")

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	page, err := invoice.List(ctx, client, invoice.ListFilter{
		Status:        status,
		CustomerID:    customerID,
		Size:          limit,
		StartingAfter: startingAfter,
	})
	if err != nil {
		return handleLedgerError(err, log)
	}

	return outputInvoicePage(cmd, page, log)
}

func runInvoiceSearch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	var term string
	if len(args) == 1 {
		term = args[0]
	}

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	page, err := invoice.Search(ctx, client, term)
	if err != nil {
		return handleLedgerError(err, log)
	}

	return outputInvoicePage(cmd, page, log)
}

func runInvoiceShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	inv, err := invoice.NewController(client).Load(ctx, args[0])
	if err != nil {
		return handleLedgerError(err, log)
	}

	if jsonOutput(cmd) {
		return printJSON(toInvoiceOutput(inv), log)
	}
	printInvoiceDetail(inv)
	return nil
}

func runInvoiceCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	customerID, _ := cmd.Flags().GetString("customer")
	currency, _ := cmd.Flags().GetString("currency")
	method, _ := cmd.Flags().GetString("collection-method")
	days, _ := cmd.Flags().GetInt64("days-until-due")
	description, _ := cmd.Flags().GetString("description")
	itemFlags, _ := cmd.Flags().GetStringArray("item")
	priceFlags, _ := cmd.Flags().GetStringArray("price")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	items := make([]invoice.LineItem, 0, len(itemFlags)+len(priceFlags))
	for _, value := range itemFlags {
		item, err := parseItemFlag(value)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	priceRefs := make([]priceRef, 0, len(priceFlags))
	for _, value := range priceFlags {
		ref, err := parsePriceFlag(value)
		if err != nil {
			return err
		}
		priceRefs = append(priceRefs, ref)
	}

	if currency == "" {
		currency = cfg.DefaultCurrency
	}
	if days <= 0 {
		days = cfg.DefaultDaysUntilDue
	}

	client, err := connectLedger(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := createCommandContext(commandTimeout(cmd, cfg), log)
	defer cancel()

	if len(priceRefs) > 0 {
		priced, err := resolvePrices(ctx, client, priceRefs)
		if err != nil {
			return handleLedgerError(err, log)
		}
		items = append(items, priced...)
	}

	result, err := invoice.NewCreator(client).Create(ctx, invoice.CreateRequest{
		CustomerID:       customerID,
		Description:      description,
		CollectionMethod: models.CollectionMethod(method),
		Currency:         currency,
		DaysUntilDue:     days,
		Metadata:         map[string]string{"source": "invoicedesk"},
		LineItems:        items,
	})
	if err != nil && (result == nil || result.Invoice == nil) {
		return handleLedgerError(err, log)
	}

	if jsonOutput(cmd) {
		if err := printJSON(toInvoiceOutput(result.Invoice), log); err != nil {
			return err
		}
	} else {
		fmt.Printf("Created invoice %s (%s), total %s\n",
			result.Invoice.ID, result.Invoice.Status, formatAmount(result.Invoice.Total, result.Currency))
		fmt.Printf("Attached %d item(s)", len(result.Items))
		if len(result.Skipped) > 0 {
			fmt.Printf(", skipped %d empty item(s)", len(result.Skipped))
		}
		fmt.Println()
		for _, failure := range result.Failures {
			fmt.Fprintf(os.Stderr, "Item %d (%s) failed: %v\n",
				failure.Index+1, orDash(failure.Item.Description), handleLedgerError(failure.Err, log))
		}
	}

	if err != nil {
		// Created but not re-read; what is shown is the creation response.
		return fmt.Errorf("invoice %s was created but could not be re-read: %v", result.Invoice.ID, handleLedgerError(err, log))
	}
	if len(result.Failures) > 0 {
		return fmt.Errorf("%d of %d line item(s) could not be added to invoice %s",
			len(result.Failures), len(items), result.Invoice.ID)
	}
	return nil
}

func runInvoiceAction(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	action, err := invoice.ParseAction(args[1])
	if err != nil {
		return handleLedgerError(err, log)
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		ok, err := confirm(cmd, action.Description())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Canceled.")
			return nil
		}
	}

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := invoice.NewController(client).RequestAction(ctx, args[0], action)
	if err != nil {
		if result != nil {
			fmt.Fprintf(os.Stderr, "The %s request was accepted, but the invoice could not be re-read.\n", action)
		}
		return handleLedgerError(err, log)
	}

	if jsonOutput(cmd) {
		return printJSON(toInvoiceOutput(result.Invoice), log)
	}

	fmt.Printf("Invoice %s is now %s (%s)\n", result.Invoice.ID, result.Invoice.Status, action)
	if action == invoice.ActionSend && !result.Sent {
		fmt.Println("Stripe has not recorded a send time yet. Check the account's customer email settings if no email arrives.")
	}
	return nil
}

func runInvoiceSend(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		ok, err := confirm(cmd, invoice.ActionSend.Description())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Canceled.")
			return nil
		}
	}

	ctx, client, cancel, err := setupLedger(cmd, log)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := invoice.NewController(client).SendWithChecks(ctx, args[0])
	if err != nil {
		if result != nil {
			fmt.Fprintf(os.Stderr, "Send request was accepted for %s, but the invoice could not be re-read.\n", result.Email)
		}
		return handleLedgerError(err, log)
	}

	if jsonOutput(cmd) {
		return printJSON(struct {
			Invoice                 InvoiceOutput `json:"invoice"`
			Email                   string        `json:"email"`
			Sent                    bool          `json:"sent"`
			CollectionMethodUpdated bool          `json:"collection_method_updated"`
		}{toInvoiceOutput(result.Invoice), result.Email, result.Sent, result.CollectionMethodUpdated}, log)
	}

	if result.CollectionMethodUpdated {
		fmt.Println("Collection method switched to send_invoice.")
	}
	if result.Sent {
		fmt.Printf("Invoice %s sent to %s at %s\n", result.Invoice.ID, result.Email, formatTime(result.Invoice.LastSendAt))
	} else {
		fmt.Printf("Send requested for invoice %s to %s, but Stripe has not recorded a send time yet.\n", result.Invoice.ID, result.Email)
		fmt.Println("Check the account's customer email settings if no email arrives.")
	}
	return nil
}

func runInvoiceExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice-export")

	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt64("limit")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if sheetURL == "" {
		sheetURL = cfg.GoogleSheetURL
	}
	if sheetURL == "" {
		return fmt.Errorf("no sheet given. Use --sheet-url or set GOOGLE_SHEET_URL")
	}
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}

	client, err := connectLedger(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := createCommandContext(commandTimeout(cmd, cfg), log)
	defer cancel()

	page, err := invoice.List(ctx, client, invoice.ListFilter{Status: status, Size: limit})
	if err != nil {
		return handleLedgerError(err, log)
	}

	sheetsService, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Google Sheets service")
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}

	written, err := sheetsService.AppendInvoices(ctx, page.Invoices, worksheet)
	if err != nil {
		return fmt.Errorf("failed to export invoices: %w", err)
	}

	fmt.Printf("Exported %d invoice(s) to worksheet %q\n", written, worksheet)
	if page.HasMore {
		fmt.Printf("More invoices exist beyond the first %d; raise --limit or narrow --status.\n", len(page.Invoices))
	}
	return nil
}

// setupLedger loads configuration, connects to the ledger and creates the
// command context.
func setupLedger(cmd *cobra.Command, log zerolog.Logger) (context.Context, *ledger.Client, context.CancelFunc, error) {
	cfg, err := loadConfig(log)
	if err != nil {
		return nil, nil, nil, err
	}

	client, err := connectLedger(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := createCommandContext(commandTimeout(cmd, cfg), log)
	return ctx, client, cancel, nil
}

type priceRef struct {
	ID       string
	Quantity int64
}

// parseItemFlag parses "description:amount[:quantity]". The description may
// itself contain colons; the last segment is a quantity only when it is an
// integer and the segment before it is a decimal amount.
func parseItemFlag(value string) (invoice.LineItem, error) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return invoice.LineItem{}, fmt.Errorf("invalid --item %q: expected description:amount[:quantity]", value)
	}

	item := invoice.LineItem{Mode: invoice.LineItemCustom, Quantity: 1}
	if len(parts) >= 3 && isDecimal(parts[len(parts)-2]) {
		if qty, err := strconv.ParseInt(strings.TrimSpace(parts[len(parts)-1]), 10, 64); err == nil {
			if qty <= 0 {
				return invoice.LineItem{}, fmt.Errorf("invalid --item %q: quantity must be positive", value)
			}
			item.Quantity = qty
			parts = parts[:len(parts)-1]
		}
	}

	item.Amount = strings.TrimSpace(parts[len(parts)-1])
	item.Description = strings.TrimSpace(strings.Join(parts[:len(parts)-1], ":"))
	return item, nil
}

func isDecimal(s string) bool {
	_, err := decimal.NewFromString(strings.TrimSpace(s))
	return err == nil
}

// parsePriceFlag parses "price_id[:quantity]".
func parsePriceFlag(value string) (priceRef, error) {
	id, qtyStr, hasQty := strings.Cut(strings.TrimSpace(value), ":")
	ref := priceRef{ID: strings.TrimSpace(id), Quantity: 1}
	if ref.ID == "" {
		return priceRef{}, fmt.Errorf("invalid --price %q: expected price_id[:quantity]", value)
	}
	if hasQty {
		qty, err := strconv.ParseInt(strings.TrimSpace(qtyStr), 10, 64)
		if err != nil || qty <= 0 {
			return priceRef{}, fmt.Errorf("invalid --price %q: quantity must be a positive integer", value)
		}
		ref.Quantity = qty
	}
	return ref, nil
}

type priceLister interface {
	ListPrices(ctx context.Context, params services.PriceListParams) ([]*models.Price, error)
}

// resolvePrices looks the referenced prices up among the active catalog prices.
func resolvePrices(ctx context.Context, catalog priceLister, refs []priceRef) ([]invoice.LineItem, error) {
	prices, err := catalog.ListPrices(ctx, services.PriceListParams{ActiveOnly: true, Limit: services.MaxPageSize})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Price, len(prices))
	for _, p := range prices {
		byID[p.ID] = p
	}

	items := make([]invoice.LineItem, 0, len(refs))
	for _, ref := range refs {
		price, ok := byID[ref.ID]
		if !ok {
			return nil, fmt.Errorf("price %s not found among active prices", ref.ID)
		}
		items = append(items, invoice.LineItem{
			Mode:        invoice.LineItemPrice,
			Description: priceLabel(price),
			Quantity:    ref.Quantity,
			Price:       price,
		})
	}
	return items, nil
}

func priceLabel(p *models.Price) string {
	switch {
	case p.ProductName != "" && p.Nickname != "":
		return p.ProductName + " - " + p.Nickname
	case p.ProductName != "":
		return p.ProductName
	case p.Nickname != "":
		return p.Nickname
	}
	return p.ID
}

func toInvoiceOutput(inv *models.Invoice) InvoiceOutput {
	out := InvoiceOutput{
		ID:               inv.ID,
		Number:           inv.Number,
		Status:           string(inv.Status),
		CollectionMethod: string(inv.CollectionMethod),
		CustomerID:       inv.CustomerID,
		CustomerName:     inv.CustomerName,
		CustomerEmail:    inv.CustomerEmail,
		Currency:         inv.Currency,
		Total:            inv.Total,
		AmountDue:        inv.AmountDue,
		AmountPaid:       inv.AmountPaid,
		Description:      inv.Description,
		HostedInvoiceURL: inv.HostedInvoiceURL,
		Created:          inv.Created,
		DueDate:          inv.DueDate,
		LastSendAt:       inv.LastSendAt,
		Actions:          []string{},
	}
	for _, line := range inv.Lines {
		out.Lines = append(out.Lines, InvoiceLineOutput{
			Description: line.Description,
			Quantity:    line.Quantity,
			Amount:      line.Amount,
		})
	}
	for _, a := range invoice.Permitted(inv.Status) {
		out.Actions = append(out.Actions, a.String())
	}
	return out
}

func outputInvoicePage(cmd *cobra.Command, page *services.InvoicePage, log zerolog.Logger) error {
	if jsonOutput(cmd) {
		out := InvoiceListOutput{Invoices: []InvoiceOutput{}, HasMore: page.HasMore}
		for _, inv := range page.Invoices {
			out.Invoices = append(out.Invoices, toInvoiceOutput(inv))
		}
		return printJSON(out, log)
	}

	if len(page.Invoices) == 0 {
		fmt.Println("No invoices found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tCUSTOMER\tSTATUS\tTOTAL\tCREATED")
	for _, inv := range page.Invoices {
		customer := inv.CustomerName
		if customer == "" {
			customer = inv.CustomerEmail
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.ID, orDash(inv.Number), orDash(customer), inv.Status,
			formatAmount(inv.Total, inv.Currency), inv.Created.Local().Format("2006-01-02"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if page.HasMore {
		last := page.Invoices[len(page.Invoices)-1]
		fmt.Printf("\nMore invoices available: --starting-after %s\n", last.ID)
	}
	return nil
}

func printInvoiceDetail(inv *models.Invoice) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Invoice %s  %s\n", inv.ID, orDash(inv.Number))
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Status:            %s\n", inv.Status)
	fmt.Printf("Collection method: %s\n", inv.CollectionMethod)
	fmt.Printf("Customer:          %s %s\n", orDash(inv.CustomerName), orDash(inv.CustomerEmail))
	fmt.Printf("Customer ID:       %s\n", orDash(inv.CustomerID))
	fmt.Printf("Created:           %s\n", formatTime(&inv.Created))
	fmt.Printf("Due:               %s\n", formatTime(inv.DueDate))
	fmt.Printf("Last sent:         %s\n", formatTime(inv.LastSendAt))
	if inv.Description != "" {
		fmt.Printf("Memo:              %s\n", inv.Description)
	}

	if len(inv.Lines) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DESCRIPTION\tQTY\tAMOUNT")
		for _, line := range inv.Lines {
			fmt.Fprintf(w, "%s\t%d\t%s\n", orDash(line.Description), line.Quantity, formatAmount(line.Amount, inv.Currency))
		}
		w.Flush()
	}

	fmt.Println()
	fmt.Printf("Total:      %s\n", formatAmount(inv.Total, inv.Currency))
	fmt.Printf("Amount due: %s\n", formatAmount(inv.AmountDue, inv.Currency))
	if inv.HostedInvoiceURL != "" {
		fmt.Printf("Hosted:     %s\n", inv.HostedInvoiceURL)
	}

	var actions []string
	for _, a := range invoice.Permitted(inv.Status) {
		actions = append(actions, a.String())
	}
	if len(actions) == 0 {
		fmt.Println("Actions:    none")
	} else {
		fmt.Printf("Actions:    %s\n", strings.Join(actions, ", "))
	}
}
