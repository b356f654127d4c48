package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/store"
)

// KnowledgeBaseResult is the result of a searchKnowledgeBase call.
type KnowledgeBaseResult struct {
	Found      bool   `json:"found"`
	Query      string `json:"query"`
	Suggestion string `json:"suggestion"`
}

// HistoryMessage is a truncated message in a history result.
type HistoryMessage struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Intent  *string `json:"intent"`
}

// ConversationHistoryResult is the result of a getConversationHistory call.
type ConversationHistoryResult struct {
	Found        bool             `json:"found"`
	MessageCount int              `json:"messageCount,omitempty"`
	Messages     []HistoryMessage `json:"messages,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// OrderIDResult is the result of a getLastOrderId call.
type OrderIDResult struct {
	Found   bool   `json:"found"`
	OrderID string `json:"orderId,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// historyContentLimit caps per-message content in history results.
const historyContentLimit = 200

// lastOrderScanDepth is how many recent messages getLastOrderId inspects.
const lastOrderScanDepth = 10

// SupportTools returns the toolset for the general-support persona, bound
// to the current conversation.
func SupportTools(s *store.Store, conversationID string) []Tool {
	return []Tool{
		{
			Name:        "searchKnowledgeBase",
			Description: "Search help docs",
			Parameters: objectSchema(map[string]any{
				"query": stringProp("The search query"),
			}, "query"),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				var in struct {
					Query string `json:"query"`
				}
				_ = json.Unmarshal(args, &in)

				// No knowledge base is wired up yet; always defer to a human.
				return KnowledgeBaseResult{
					Found:      false,
					Query:      in.Query,
					Suggestion: "Please contact live support for personalized assistance.",
				}
			},
		},
		{
			Name:        "getConversationHistory",
			Description: "Get the full conversation history for context",
			Parameters: objectSchema(map[string]any{
				"conversationId": stringProp("The conversation ID"),
			}),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				id := boundConversationID(args, conversationID)

				messages, err := s.GetMessagesByConversation(ctx, id)
				if err != nil {
					return ConversationHistoryResult{
						Found: false,
						Error: "Failed to retrieve conversation history",
					}
				}

				out := make([]HistoryMessage, 0, len(messages))
				for _, m := range messages {
					content := m.Content
					if len(content) > historyContentLimit {
						content = content[:historyContentLimit]
					}
					out = append(out, HistoryMessage{
						Role:    m.Role,
						Content: content,
						Intent:  m.Intent,
					})
				}
				return ConversationHistoryResult{
					Found:        true,
					MessageCount: len(out),
					Messages:     out,
				}
			},
		},
		{
			Name:        "getLastOrderId",
			Description: "Extract the last mentioned Order ID from conversation history",
			Parameters: objectSchema(map[string]any{
				"conversationId": stringProp("The conversation ID"),
			}),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				id := boundConversationID(args, conversationID)

				orderID, err := lastOrderID(ctx, s, id)
				if err != nil {
					return OrderIDResult{
						Found:   false,
						Message: "Failed to extract Order ID",
						Error:   "Failed to extract Order ID",
					}
				}
				if orderID == "" {
					return OrderIDResult{
						Found:   false,
						Message: "No Order ID found in conversation history",
					}
				}
				return OrderIDResult{
					Found:   true,
					OrderID: orderID,
					Message: fmt.Sprintf("Last mentioned Order ID: %s", orderID),
				}
			},
		},
		{
			Name:        "getLastInvoice",
			Description: "Get the invoice for the last mentioned order in conversation",
			Parameters: objectSchema(map[string]any{
				"conversationId": stringProp("The conversation ID"),
			}),
			Execute: func(ctx context.Context, args json.RawMessage) any {
				id := boundConversationID(args, conversationID)

				orderID, err := lastOrderID(ctx, s, id)
				if err != nil {
					return InvoiceToolResult{
						Found: false,
						Error: "Failed to retrieve invoice",
					}
				}
				if orderID == "" {
					return InvoiceToolResult{
						Found: false,
						Error: "No invoice found for recent orders in conversation",
					}
				}

				invoice, err := s.GetInvoiceByOrder(ctx, orderID)
				if errors.Is(err, store.ErrNotFound) {
					return InvoiceToolResult{
						Found:   false,
						OrderID: orderID,
						Error:   "No invoice found for recent orders in conversation",
					}
				}
				if err != nil {
					return InvoiceToolResult{
						Found: false,
						Error: "Failed to retrieve invoice",
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
	}
}

// boundConversationID resolves the conversation id from arguments, falling
// back to the conversation the toolset is bound to.
func boundConversationID(args json.RawMessage, fallback string) string {
	var in struct {
		ConversationID string `json:"conversationId"`
	}
	_ = json.Unmarshal(args, &in)
	if missingID(in.ConversationID) {
		return fallback
	}
	return in.ConversationID
}

// lastOrderID scans the most recent messages, newest first, for a
// UUID-shaped token.
func lastOrderID(ctx context.Context, s *store.Store, conversationID string) (string, error) {
	messages, err := s.GetMessagesByConversation(ctx, conversationID)
	if err != nil {
		return "", err
	}

	scanned := 0
	for i := len(messages) - 1; i >= 0 && scanned < lastOrderScanDepth; i-- {
		scanned++
		if id := model.ExtractUUID(messages[i].Content); id != "" {
			return id, nil
		}
	}
	return "", nil
}
