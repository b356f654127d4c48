package tool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ai/support-router/internal/store"
)

const testInvoiceID = "660e8400-e29b-41d4-a716-446655440001"

func newBillingStore(t *testing.T) *store.Store {
	t.Helper()
	s := newOrderStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &store.User{ID: "u1", Email: "u1@example.com", Name: "U"}))
	require.NoError(t, s.CreateInvoice(ctx, &store.Invoice{
		ID:      testInvoiceID,
		UserID:  "u1",
		OrderID: shippedOrderID,
		Amount:  199.99,
		Status:  "PAID",
		DueDate: time.Now().AddDate(0, 0, 14),
	}))
	return s
}

func TestGetInvoiceByInvoiceID(t *testing.T) {
	tl := findTool(t, BillingTools(newBillingStore(t), nil), "getInvoice")

	out := execute[InvoiceToolResult](t, tl, `{"invoiceId":"`+testInvoiceID+`"}`)

	assert.True(t, out.Found)
	assert.Equal(t, testInvoiceID, out.InvoiceID)
	assert.Equal(t, 199.99, out.Amount)
	assert.Equal(t, "PAID", out.Status)
}

func TestGetInvoiceByOrderID(t *testing.T) {
	tl := findTool(t, BillingTools(newBillingStore(t), nil), "getInvoice")

	out := execute[InvoiceToolResult](t, tl, `{"orderId":"`+shippedOrderID+`"}`)

	assert.True(t, out.Found)
	assert.Equal(t, testInvoiceID, out.InvoiceID)
}

func TestGetInvoiceInvoiceIDTakesPrecedence(t *testing.T) {
	tl := findTool(t, BillingTools(newBillingStore(t), nil), "getInvoice")

	// Wrong order ID alongside a valid invoice ID still resolves.
	out := execute[InvoiceToolResult](t, tl, `{"invoiceId":"`+testInvoiceID+`","orderId":"`+deliveredOrderID+`"}`)

	assert.True(t, out.Found)
	assert.Equal(t, testInvoiceID, out.InvoiceID)
}

func TestGetInvoiceRequiresSomeID(t *testing.T) {
	tl := findTool(t, BillingTools(newBillingStore(t), nil), "getInvoice")

	out := execute[InvoiceToolResult](t, tl, `{}`)

	assert.False(t, out.Found)
	assert.Contains(t, out.Error, "No Invoice or Order ID provided")
}

func TestProcessRefundLogsRequest(t *testing.T) {
	tl := findTool(t, BillingTools(newBillingStore(t), nil), "processRefund")

	out := execute[RefundToolResult](t, tl, `{"orderId":"`+shippedOrderID+`","reason":"too late"}`)

	assert.True(t, out.Success)
	assert.Equal(t, "too late", out.Reason)
	assert.Contains(t, out.Message, "3-5 business days")
}

func TestProcessRefundRequiresOrderID(t *testing.T) {
	tl := findTool(t, BillingTools(newBillingStore(t), nil), "processRefund")

	out := execute[RefundToolResult](t, tl, `{"reason":"too late"}`)

	assert.False(t, out.Success)
}

func TestCheckRefundStatusSampled(t *testing.T) {
	sampler := func(n int) int { return 2 } // APPROVED
	tl := findTool(t, BillingTools(newBillingStore(t), sampler), "checkRefundStatus")

	out := execute[RefundStatusResult](t, tl, `{"orderId":"`+shippedOrderID+`"}`)

	assert.True(t, out.Found)
	assert.Equal(t, "APPROVED", out.Status)
	assert.Equal(t, 199.99, out.Amount)
	assert.Contains(t, out.Message, "approved")
}

func TestCheckRefundStatusUnknownOrder(t *testing.T) {
	tl := findTool(t, BillingTools(newBillingStore(t), nil), "checkRefundStatus")

	out := execute[RefundStatusResult](t, tl, `{"orderId":"550e8400-e29b-41d4-a716-446655440099"}`)

	assert.False(t, out.Found)
	assert.Contains(t, out.Error, "non-existent order")
}

func TestGetSubscriptionSampledPlan(t *testing.T) {
	sampler := func(n int) int { return 1 } // PREMIUM
	tl := findTool(t, BillingTools(newBillingStore(t), sampler), "getSubscription")

	out := execute[SubscriptionResult](t, tl, `{"userId":"u1"}`)

	assert.True(t, out.Found)
	assert.Equal(t, "PREMIUM", out.Plan)
	assert.Equal(t, 19.99, out.Amount)
	assert.Equal(t, "ACTIVE", out.Status)
	assert.Contains(t, out.SubscriptionID, "SUB-")
}

func TestGetSubscriptionUnknownUser(t *testing.T) {
	tl := findTool(t, BillingTools(newBillingStore(t), nil), "getSubscription")

	out := execute[SubscriptionResult](t, tl, `{"userId":"nobody"}`)

	assert.False(t, out.Found)
	assert.Contains(t, out.Error, "non-existent user")
}
