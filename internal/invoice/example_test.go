package invoice_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"invoicedesk/internal/invoice"
	"invoicedesk/internal/ledger"
	"invoicedesk/pkg/models"
)

// Example demonstrates running an action against a live ledger.
func Example() {
	// Load .env file (using godotenv in main)
	// This should be done in your main() function:
	//
	// if err := godotenv.Load(); err != nil {
	//     log.Printf("Warning: Could not load .env file: %v", err)
	// }

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := ledger.New(os.Getenv("STRIPE_SECRET_KEY"))
	if err != nil {
		log.Fatal(err)
	}

	controller := invoice.NewController(client)

	result, err := controller.RequestAction(ctx, "in_1234567890", invoice.ActionFinalize)
	if err != nil {
		switch invoice.KindOf(err) {
		case invoice.KindValidation:
			log.Fatalf("Action rejected: %v", err)
		case invoice.KindRemote:
			if result != nil {
				log.Printf("Finalized, but the invoice could not be re-read: %v", err)
				return
			}
		}
		log.Fatal(err)
	}

	fmt.Printf("Invoice %s is now %s\n", result.Invoice.Number, result.Invoice.Status)
}

// ExampleController_SendWithChecks shows how preflight failures are told apart
// from ledger failures.
func ExampleController_SendWithChecks() {
	ctx := context.Background()

	client, err := ledger.New(os.Getenv("STRIPE_SECRET_KEY"))
	if err != nil {
		log.Fatal(err)
	}

	result, err := invoice.NewController(client).SendWithChecks(ctx, "in_1234567890")
	switch {
	case errors.Is(err, invoice.ErrNoCustomerEmail):
		fmt.Println("Add an email address to the customer first")
		return
	case errors.Is(err, invoice.ErrWrongCollectionMethod):
		fmt.Println(err)
		return
	case err != nil:
		log.Fatal(err)
	}

	if !result.Sent {
		fmt.Println("Send requested; no send time recorded yet")
		return
	}
	fmt.Printf("Invoice emailed to %s\n", result.Email)
}

// ExampleCreator_Create creates an invoice with one custom and one catalog item.
func ExampleCreator_Create() {
	ctx := context.Background()

	client, err := ledger.New(os.Getenv("STRIPE_SECRET_KEY"))
	if err != nil {
		log.Fatal(err)
	}

	result, err := invoice.NewCreator(client).Create(ctx, invoice.CreateRequest{
		CustomerID:       "cus_1234567890",
		Description:      "October consulting",
		CollectionMethod: models.CollectionSendInvoice,
		Currency:         "gbp",
		LineItems: []invoice.LineItem{
			{Mode: invoice.LineItemCustom, Description: "Consulting", Amount: "450.00", Quantity: 3},
			{Mode: invoice.LineItemPrice, Price: &models.Price{ID: "price_1234567890", Currency: "gbp"}},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, failure := range result.Failures {
		fmt.Printf("Line %d was not attached: %v\n", failure.Index+1, failure.Err)
	}
	fmt.Printf("Created %s with %d items\n", result.Invoice.ID, len(result.Items))
}

func ExamplePermitted() {
	for _, status := range []models.InvoiceStatus{
		models.InvoiceStatusDraft,
		models.InvoiceStatusOpen,
		models.InvoiceStatusPaid,
	} {
		fmt.Println(status, invoice.Permitted(status))
	}
	// Output:
	// draft [finalize void]
	// open [send pay void uncollectible]
	// paid []
}

func ExampleToMinorUnits() {
	for _, amount := range []string{"10", "19.999", "1.005"} {
		minor, _ := invoice.ToMinorUnits(amount)
		fmt.Println(amount, minor)
	}
	// Output:
	// 10 1000
	// 19.999 2000
	// 1.005 101
}
