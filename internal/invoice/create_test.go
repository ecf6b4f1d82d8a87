package invoice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"10.00", 1000},
		{"10", 1000},
		{"19.999", 2000},
		{"19.994", 1999},
		{"1.005", 101},
		{"0.015", 2},
		{"0.004", 0},
		{" 42.5 ", 4250},
		{"-3.255", -326},
		{"92233720368547758.07", 9223372036854775807},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := invoice.ToMinorUnits(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "abc", "1,50", "1e20", "92233720368547758.08", "-92233720368547758.09"} {
		_, err := invoice.ToMinorUnits(bad)
		assert.Error(t, err, "amount %q", bad)
	}
}

func TestResolveCurrency(t *testing.T) {
	usd := &models.Price{ID: "price_usd", Currency: "usd"}
	usd2 := &models.Price{ID: "price_usd2", Currency: "USD"}
	eur := &models.Price{ID: "price_eur", Currency: "eur"}

	got, err := invoice.ResolveCurrency(nil, "GBP")
	require.NoError(t, err)
	assert.Equal(t, "gbp", got)

	got, err = invoice.ResolveCurrency([]invoice.LineItem{
		{Mode: invoice.LineItemCustom, Amount: "5"},
		{Mode: invoice.LineItemPrice, Price: usd},
		{Mode: invoice.LineItemPrice, Price: usd2},
		{Mode: invoice.LineItemPrice},
	}, "gbp")
	require.NoError(t, err)
	assert.Equal(t, "usd", got, "price currency wins over the requested one")

	_, err = invoice.ResolveCurrency([]invoice.LineItem{
		{Mode: invoice.LineItemPrice, Price: usd},
		{Mode: invoice.LineItemPrice, Price: eur},
	}, "usd")
	assert.ErrorIs(t, err, invoice.ErrMixedCurrency)
}

func TestCreate_CustomItemEndToEnd(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addCustomer(&models.Customer{ID: "cus_1", Email: "billing@example.com"})

	result, err := invoice.NewCreator(ledger).Create(context.Background(), invoice.CreateRequest{
		CustomerID:       "cus_1",
		CollectionMethod: models.CollectionSendInvoice,
		Currency:         "usd",
		LineItems: []invoice.LineItem{
			{Mode: invoice.LineItemCustom, Description: "Consulting", Amount: "10.00", Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "usd", result.Currency)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(2), result.Items[0].Quantity)
	assert.Equal(t, int64(2000), result.Invoice.Total)
	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{"CreateInvoice", "CreateInvoiceItem", "RetrieveInvoice"}, ledger.callLog())
}

func TestCreate_ItemParams(t *testing.T) {
	ledger := &recordingLedger{fakeLedger: newFakeLedger()}

	_, err := invoice.NewCreator(ledger).Create(context.Background(), invoice.CreateRequest{
		CustomerID:       "cus_1",
		CollectionMethod: models.CollectionSendInvoice,
		Currency:         "usd",
		LineItems: []invoice.LineItem{
			{Mode: invoice.LineItemCustom, Amount: "10.00", Quantity: 2},
			{Mode: invoice.LineItemCustom, Amount: "19.999"},
		},
	})
	require.NoError(t, err)

	require.Len(t, ledger.itemParams, 2)
	first := ledger.itemParams[0]
	assert.Equal(t, "1000", first.UnitAmountDecimal)
	assert.Equal(t, int64(2), first.Quantity)
	assert.Equal(t, "usd", first.Currency)
	assert.Equal(t, "cus_1", first.CustomerID)
	assert.Empty(t, first.PriceID)

	second := ledger.itemParams[1]
	assert.Equal(t, "2000", second.UnitAmountDecimal)
	assert.Equal(t, int64(1), second.Quantity, "quantity defaults to 1")

	require.NotNil(t, ledger.createParams)
	assert.Equal(t, int64(invoice.DefaultDaysUntilDue), ledger.createParams.DaysUntilDue)
	assert.True(t, ledger.createParams.AutoAdvance)
}

func TestCreate_ChargeAutomaticallyOmitsDueDays(t *testing.T) {
	ledger := &recordingLedger{fakeLedger: newFakeLedger()}

	_, err := invoice.NewCreator(ledger).Create(context.Background(), invoice.CreateRequest{
		CustomerID:       "cus_1",
		CollectionMethod: models.CollectionChargeAutomatically,
		Currency:         "eur",
		DaysUntilDue:     14,
	})
	require.NoError(t, err)
	assert.Zero(t, ledger.createParams.DaysUntilDue)
}

func TestCreate_MixedCurrencyFailsBeforeShell(t *testing.T) {
	ledger := newFakeLedger()

	_, err := invoice.NewCreator(ledger).Create(context.Background(), invoice.CreateRequest{
		CustomerID: "cus_1",
		Currency:   "usd",
		LineItems: []invoice.LineItem{
			{Mode: invoice.LineItemPrice, Price: &models.Price{ID: "price_a", Currency: "usd"}},
			{Mode: invoice.LineItemPrice, Price: &models.Price{ID: "price_b", Currency: "eur"}},
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, invoice.ErrMixedCurrency)
	assert.Equal(t, invoice.KindValidation, invoice.KindOf(err))
	assert.Empty(t, ledger.callLog(), "nothing reaches the ledger")
}

func TestCreate_Validation(t *testing.T) {
	creator := invoice.NewCreator(newFakeLedger())

	_, err := creator.Create(context.Background(), invoice.CreateRequest{Currency: "usd"})
	assert.ErrorIs(t, err, invoice.ErrMissingCustomer)

	_, err = creator.Create(context.Background(), invoice.CreateRequest{CustomerID: "cus_1", Currency: "usd", CollectionMethod: "cash"})
	assert.ErrorIs(t, err, invoice.ErrInvalidCollectionMethod)

	_, err = creator.Create(context.Background(), invoice.CreateRequest{CustomerID: "cus_1"})
	assert.ErrorIs(t, err, invoice.ErrMissingCurrency)
}

func TestCreate_SkipsAndPartialFailures(t *testing.T) {
	ledger := &recordingLedger{fakeLedger: newFakeLedger(), failUnitAmount: "500"}

	result, err := invoice.NewCreator(ledger).Create(context.Background(), invoice.CreateRequest{
		CustomerID: "cus_1",
		Currency:   "usd",
		LineItems: []invoice.LineItem{
			{Mode: invoice.LineItemPrice},                          // no price selected
			{Mode: invoice.LineItemCustom, Amount: "0"},            // non-positive
			{Mode: invoice.LineItemCustom, Amount: "5.00"},         // rejected by the ledger
			{Mode: invoice.LineItemCustom, Amount: "not a number"}, // unparsable
			{Mode: invoice.LineItemCustom, Amount: "7.50"},
			{Mode: invoice.LineItemPrice, Price: &models.Price{ID: "price_1", Currency: "usd"}, Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 3}, result.Skipped)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)
	require.Len(t, result.Items, 2)
	assert.Equal(t, int64(750+500*3), result.Invoice.Total)

	require.Len(t, ledger.itemParams, 3)
	assert.Equal(t, "price_1", ledger.itemParams[2].PriceID)
	assert.Empty(t, ledger.itemParams[2].Currency)
}

func TestCreate_PriceCurrencyOverridesAndConflicts(t *testing.T) {
	ledger := &recordingLedger{fakeLedger: newFakeLedger()}

	result, err := invoice.NewCreator(ledger).Create(context.Background(), invoice.CreateRequest{
		CustomerID: "cus_1",
		Currency:   "gbp",
		LineItems: []invoice.LineItem{
			{Mode: invoice.LineItemPrice, Price: &models.Price{ID: "price_usd", Currency: "usd"}},
			{Mode: invoice.LineItemCustom, Amount: "1.00"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "usd", result.Currency)
	assert.Equal(t, "usd", ledger.createParams.Currency)
	require.Len(t, ledger.itemParams, 2)
	assert.Equal(t, "usd", ledger.itemParams[1].Currency)
}

func TestCreate_ShellFailureIsRemote(t *testing.T) {
	ledger := newFakeLedger()
	ledger.failOn("CreateInvoice", errors.New("No such customer: 'cus_x'"))

	_, err := invoice.NewCreator(ledger).Create(context.Background(), invoice.CreateRequest{
		CustomerID: "cus_x",
		Currency:   "usd",
		LineItems:  []invoice.LineItem{{Amount: "1"}},
	})

	require.Error(t, err)
	assert.Equal(t, invoice.KindRemote, invoice.KindOf(err))
	assert.Zero(t, ledger.called("CreateInvoiceItem"))
}
