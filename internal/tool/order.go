package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/helpdesk-ai/support-router/internal/store"
)

// TrackOrderResult is the result of a trackOrder call.
type TrackOrderResult struct {
	Found        bool   `json:"found"`
	Status       string `json:"status,omitempty"`
	DeliveryDate string `json:"deliveryDate,omitempty"`
	OrderID      string `json:"orderId"`
	Error        string `json:"error,omitempty"`
}

// CancelOrderResult is the result of a cancelOrder call.
type CancelOrderResult struct {
	Success        bool   `json:"success"`
	OrderID        string `json:"orderId"`
	CancellationID string `json:"cancellationId,omitempty"`
	Message        string `json:"message"`
	Error          string `json:"error,omitempty"`
}

// UpdateAddressResult is the result of an updateDeliveryAddress call.
type UpdateAddressResult struct {
	Success    bool   `json:"success"`
	OrderID    string `json:"orderId"`
	NewAddress string `json:"newAddress"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
}

// minAddressLength is the shortest address accepted for delivery updates.
const minAddressLength = 10

// OrderTools returns the toolset for the order-tracking persona.
func OrderTools(s *store.Store) []Tool {
	return []Tool{
		{
			Name:        "trackOrder",
			Description: "Get tracking status of an order using its exact UUID (e.g., 123e4567-e89b-12d3-a456-426614174000)",
			Parameters: objectSchema(map[string]any{
				"orderId": stringProp("The full Order UUID string"),
			}, "orderId"),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				var in struct {
					OrderID string `json:"orderId"`
				}
				_ = json.Unmarshal(args, &in)

				if missingID(in.OrderID) {
					return TrackOrderResult{
						Found:   false,
						OrderID: in.OrderID,
						Error:   "No Order ID provided. Please ask the user for the Order ID.",
					}
				}

				order, err := s.GetOrder(ctx, in.OrderID)
				if errors.Is(err, store.ErrNotFound) {
					return TrackOrderResult{
						Found:   false,
						OrderID: in.OrderID,
						Error:   "Order not found in database. Please check the ID and try again.",
					}
				}
				if err != nil {
					return TrackOrderResult{
						Found:   false,
						OrderID: in.OrderID,
						Error:   "Error accessing order database. Check if the Order ID is a valid UUID.",
					}
				}

				result := TrackOrderResult{
					Found:   true,
					Status:  order.Status,
					OrderID: order.ID,
				}
				if order.DeliveryDate != nil {
					result.DeliveryDate = order.DeliveryDate.Format(time.RFC3339)
				}
				return result
			},
		},
		{
			Name:        "cancelOrder",
			Description: "Cancel an existing order. Returns cancellation confirmation.",
			Parameters: objectSchema(map[string]any{
				"orderId": stringProp("The Order UUID to cancel"),
			}, "orderId"),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				var in struct {
					OrderID string `json:"orderId"`
				}
				_ = json.Unmarshal(args, &in)

				if missingID(in.OrderID) {
					return CancelOrderResult{
						Success: false,
						OrderID: in.OrderID,
						Message: "No Order ID provided.",
						Error:   "Please provide a valid Order ID.",
					}
				}

				order, err := s.GetOrder(ctx, in.OrderID)
				if errors.Is(err, store.ErrNotFound) {
					return CancelOrderResult{
						Success: false,
						OrderID: in.OrderID,
						Message: "Order not found.",
						Error:   "Cannot cancel an order that doesn't exist.",
					}
				}
				if err != nil {
					return CancelOrderResult{
						Success: false,
						OrderID: in.OrderID,
						Message: "Error cancelling order.",
						Error:   "An error occurred while processing the cancellation.",
					}
				}

				if order.Status == store.OrderStatusDelivered {
					return CancelOrderResult{
						Success: false,
						OrderID: in.OrderID,
						Message: "Cannot cancel delivered order.",
						Error:   "This order has already been delivered. Please request a refund instead.",
					}
				}

				cancellationID := fmt.Sprintf("CXL-%d", time.Now().UnixMilli())
				return CancelOrderResult{
					Success:        true,
					OrderID:        in.OrderID,
					CancellationID: cancellationID,
					Message: fmt.Sprintf(
						"Order %s has been successfully cancelled. Cancellation ID: %s. Refund will be processed within 5-7 business days.",
						in.OrderID, cancellationID),
				}
			},
		},
		{
			Name:        "updateDeliveryAddress",
			Description: "Update the delivery address for an order that hasn't shipped yet.",
			Parameters: objectSchema(map[string]any{
				"orderId":    stringProp("The Order UUID"),
				"newAddress": stringProp("The new delivery address"),
			}, "orderId", "newAddress"),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				var in struct {
					OrderID    string `json:"orderId"`
					NewAddress string `json:"newAddress"`
				}
				_ = json.Unmarshal(args, &in)

				if missingID(in.OrderID) {
					return UpdateAddressResult{
						Success:    false,
						OrderID:    in.OrderID,
						NewAddress: in.NewAddress,
						Message:    "No Order ID provided.",
						Error:      "Please provide a valid Order ID.",
					}
				}

				if len(strings.TrimSpace(in.NewAddress)) < minAddressLength {
					return UpdateAddressResult{
						Success:    false,
						OrderID:    in.OrderID,
						NewAddress: in.NewAddress,
						Message:    "Invalid address.",
						Error:      "Please provide a complete delivery address.",
					}
				}

				order, err := s.GetOrder(ctx, in.OrderID)
				if errors.Is(err, store.ErrNotFound) {
					return UpdateAddressResult{
						Success:    false,
						OrderID:    in.OrderID,
						NewAddress: in.NewAddress,
						Message:    "Order not found.",
						Error:      "Cannot update address for non-existent order.",
					}
				}
				if err != nil {
					return UpdateAddressResult{
						Success:    false,
						OrderID:    in.OrderID,
						NewAddress: in.NewAddress,
						Message:    "Error updating address.",
						Error:      "An error occurred while updating the delivery address.",
					}
				}

				if order.Status == store.OrderStatusShipped || order.Status == store.OrderStatusDelivered {
					return UpdateAddressResult{
						Success:    false,
						OrderID:    in.OrderID,
						NewAddress: in.NewAddress,
						Message:    "Cannot update address.",
						Error: fmt.Sprintf("Order is already %s. Address changes are not possible.",
							strings.ToLower(order.Status)),
					}
				}

				return UpdateAddressResult{
					Success:    true,
					OrderID:    in.OrderID,
					NewAddress: in.NewAddress,
					Message: fmt.Sprintf(
						"Delivery address updated successfully to: %s. The change will be reflected in your next shipment update.",
						in.NewAddress),
				}
			},
		},
	}
}
