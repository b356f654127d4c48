package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/helpdesk-ai/support-router/internal/store"
)

// InvoiceToolResult is the result of a getInvoice call.
type InvoiceToolResult struct {
	Found     bool    `json:"found"`
	InvoiceID string  `json:"invoiceId,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Status    string  `json:"status,omitempty"`
	DueDate   string  `json:"dueDate,omitempty"`
	OrderID   string  `json:"orderId,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// RefundToolResult is the result of a processRefund call.
type RefundToolResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// RefundStatusResult is the result of a checkRefundStatus call.
type RefundStatusResult struct {
	Found               bool    `json:"found"`
	OrderID             string  `json:"orderId"`
	Status              string  `json:"status,omitempty"`
	Amount              float64 `json:"amount,omitempty"`
	ProcessedDate       string  `json:"processedDate,omitempty"`
	EstimatedCompletion string  `json:"estimatedCompletion,omitempty"`
	Message             string  `json:"message"`
	Error               string  `json:"error,omitempty"`
}

// SubscriptionResult is the result of a getSubscription call.
type SubscriptionResult struct {
	Found          bool    `json:"found"`
	UserID         string  `json:"userId"`
	SubscriptionID string  `json:"subscriptionId,omitempty"`
	Plan           string  `json:"plan,omitempty"`
	Status         string  `json:"status,omitempty"`
	RenewalDate    string  `json:"renewalDate,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	Message        string  `json:"message"`
	Error          string  `json:"error,omitempty"`
}

var refundStatuses = []string{"PENDING", "PROCESSING", "APPROVED", "COMPLETED"}

var refundStatusMessages = map[string]string{
	"PENDING":    "Your refund request is pending review. Expected processing time: 2-3 business days.",
	"PROCESSING": "Your refund is being processed. Expected completion: 3-5 business days.",
	"APPROVED":   "Your refund has been approved and will be credited within 2 business days.",
	"COMPLETED":  "Your refund has been completed and credited to your original payment method.",
}

var subscriptionPlans = []string{"BASIC", "PREMIUM", "ENTERPRISE"}

var subscriptionAmounts = map[string]float64{
	"BASIC":      9.99,
	"PREMIUM":    19.99,
	"ENTERPRISE": 49.99,
}

// BillingTools returns the toolset for the billing persona. The sampler
// stands in for the refund/subscription subsystems (see Sampler).
func BillingTools(s *store.Store, sample Sampler) []Tool {
	if sample == nil {
		sample = DefaultSampler
	}
	return []Tool{
		{
			Name:        "getInvoice",
			Description: "Get invoice details using the invoice UUID or the associated Order UUID. The invoice ID takes precedence when both are given.",
			Parameters: objectSchema(map[string]any{
				"invoiceId": stringProp("The Invoice UUID string"),
				"orderId":   stringProp("The associated Order UUID string"),
			}),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				var in struct {
					InvoiceID string `json:"invoiceId"`
					OrderID   string `json:"orderId"`
				}
				_ = json.Unmarshal(args, &in)

				if missingID(in.InvoiceID) && missingID(in.OrderID) {
					return InvoiceToolResult{
						Found: false,
						Error: "No Invoice or Order ID provided. Please ask the user for one.",
					}
				}

				var invoice *store.Invoice
				var err error
				if !missingID(in.InvoiceID) {
					invoice, err = s.GetInvoice(ctx, in.InvoiceID)
				} else {
					invoice, err = s.GetInvoiceByOrder(ctx, in.OrderID)
				}

				if errors.Is(err, store.ErrNotFound) {
					return InvoiceToolResult{
						Found:   false,
						OrderID: in.OrderID,
						Error:   "Invoice not found for this order.",
					}
				}
				if err != nil {
					return InvoiceToolResult{
						Found:   false,
						OrderID: in.OrderID,
						Error:   "Error accessing billing database.",
					}
				}

				return InvoiceToolResult{
					Found:     true,
					InvoiceID: invoice.ID,
					Amount:    invoice.Amount,
					Status:    invoice.Status,
					DueDate:   invoice.DueDate.Format(time.RFC3339),
					OrderID:   invoice.OrderID,
				}
			},
		},
		{
			Name:        "processRefund",
			Description: "Process a refund for an order",
			Parameters: objectSchema(map[string]any{
				"orderId": stringProp("The Order UUID to refund"),
				"reason":  stringProp("The customer's reason for the refund"),
			}, "orderId", "reason"),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				var in struct {
					OrderID string `json:"orderId"`
					Reason  string `json:"reason"`
				}
				_ = json.Unmarshal(args, &in)

				if missingID(in.OrderID) {
					return RefundToolResult{
						Success: false,
						OrderID: in.OrderID,
						Message: "No Order ID provided.",
						Error:   "Please provide a valid Order ID.",
					}
				}

				return RefundToolResult{
					Success: true,
					OrderID: in.OrderID,
					Reason:  in.Reason,
					Message: "Refund request has been logged and will be processed within 3-5 business days.",
				}
			},
		},
		{
			Name:        "checkRefundStatus",
			Description: "Check the status of an existing refund request for an order",
			Parameters: objectSchema(map[string]any{
				"orderId": stringProp("The Order UUID for the refund"),
			}, "orderId"),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				var in struct {
					OrderID string `json:"orderId"`
				}
				_ = json.Unmarshal(args, &in)

				if missingID(in.OrderID) {
					return RefundStatusResult{
						Found:   false,
						OrderID: in.OrderID,
						Message: "No Order ID provided.",
						Error:   "Please provide a valid Order ID.",
					}
				}

				order, err := s.GetOrder(ctx, in.OrderID)
				if errors.Is(err, store.ErrNotFound) {
					return RefundStatusResult{
						Found:   false,
						OrderID: in.OrderID,
						Message: "Order not found.",
						Error:   "Cannot check refund status for non-existent order.",
					}
				}
				if err != nil {
					return RefundStatusResult{
						Found:   false,
						OrderID: in.OrderID,
						Message: "Error checking refund status.",
						Error:   "An error occurred while retrieving refund information.",
					}
				}

				status := refundStatuses[sample(len(refundStatuses))]
				now := time.Now()
				return RefundStatusResult{
					Found:               true,
					OrderID:             in.OrderID,
					Status:              status,
					Amount:              order.TotalAmount,
					ProcessedDate:       now.Format(time.RFC3339),
					EstimatedCompletion: now.AddDate(0, 0, 3).Format(time.RFC3339),
					Message:             refundStatusMessages[status],
				}
			},
		},
		{
			Name:        "getSubscription",
			Description: "Get subscription details for a user",
			Parameters: objectSchema(map[string]any{
				"userId": stringProp("The User ID"),
			}, "userId"),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				var in struct {
					UserID string `json:"userId"`
				}
				_ = json.Unmarshal(args, &in)

				if missingID(in.UserID) {
					return SubscriptionResult{
						Found:   false,
						UserID:  in.UserID,
						Message: "No User ID provided.",
						Error:   "Please provide a valid User ID.",
					}
				}

				_, err := s.GetUser(ctx, in.UserID)
				if errors.Is(err, store.ErrNotFound) {
					return SubscriptionResult{
						Found:   false,
						UserID:  in.UserID,
						Message: "User not found.",
						Error:   "Cannot retrieve subscription for non-existent user.",
					}
				}
				if err != nil {
					return SubscriptionResult{
						Found:   false,
						UserID:  in.UserID,
						Message: "Error retrieving subscription.",
						Error:   "An error occurred while fetching subscription details.",
					}
				}

				plan := subscriptionPlans[sample(len(subscriptionPlans))]
				renewal := time.Now().AddDate(0, 0, 30)
				return SubscriptionResult{
					Found:          true,
					UserID:         in.UserID,
					SubscriptionID: fmt.Sprintf("SUB-%d", time.Now().UnixMilli()),
					Plan:           plan,
					Status:         "ACTIVE",
					RenewalDate:    renewal.Format(time.RFC3339),
					Amount:         subscriptionAmounts[plan],
					Message:        fmt.Sprintf("Active %s subscription. Next renewal: %s", plan, renewal.Format("2006-01-02")),
				}
			},
		},
	}
}
