package agent

import (
	"fmt"

	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/store"
	"github.com/helpdesk-ai/support-router/internal/tool"
)

const orderAgentPrompt = `You are an order management specialist for an e-commerce support desk.

You help customers track orders, cancel orders, and update delivery addresses.

Rules:
- Orders are identified by a full UUID (e.g. 123e4567-e89b-12d3-a456-426614174000). If the customer has not given one, ask for it; never guess or invent an ID.
- Use trackOrder to look up order status and delivery dates.
- Use cancelOrder to cancel an order. Delivered orders cannot be cancelled; suggest a refund instead.
- Use updateDeliveryAddress to change a delivery address. Shipped and delivered orders cannot be changed.
- Relay tool results faithfully. If a tool reports an error, explain it to the customer in plain language.
- Be concise and friendly.`

const billingAgentPrompt = `You are a billing specialist for an e-commerce support desk.

You help customers with invoices, refunds, and subscriptions.

Rules:
- Invoices and orders are identified by full UUIDs. If the customer has not given one, ask for it; never guess or invent an ID.
- Use getInvoice to look up invoice details by invoice ID or order ID.
- Use processRefund to submit a refund request; it needs the order ID and the customer's reason.
- Use checkRefundStatus to check on an existing refund.
- Use getSubscription to look up a customer's subscription plan.
- Relay tool results faithfully. If a tool reports an error, explain it to the customer in plain language.
- Be concise and friendly.`

const supportAgentPromptFmt = `You are a general customer support agent for an e-commerce support desk.

You handle questions that are not clearly about a specific order or a billing matter.

The current conversation ID is %s.

Rules:
- Use searchKnowledgeBase to look for help articles before answering product questions.
- Use getConversationHistory when you need earlier context from this conversation.
- Use getLastOrderId to recover an order ID the customer mentioned earlier.
- Use getLastInvoice to find the invoice for the customer's most recent mentioned order.
- If the customer's issue is really about an order or billing, help as far as your tools allow and ask for the details a specialist would need.
- Be concise and friendly.`

// clarificationInstructionFmt is appended to the support prompt when the
// confidence gate overrode the routing decision.
const clarificationInstructionFmt = `

The routing layer was not confident about what the customer needs. Work the following clarifying question naturally into your reply: %q`

// AgentProfile is a selected persona: its system prompt and toolset.
type AgentProfile struct {
	Intent model.Intent
	System string
	Tools  []tool.Tool
}

// toolByName returns the named tool from the profile's toolset.
func (p AgentProfile) toolByName(name string) (tool.Tool, bool) {
	for _, t := range p.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return tool.Tool{}, false
}

// Selector maps a routed intent to an agent persona. Unknown intents fall
// through to the support persona.
type Selector struct {
	store  *store.Store
	sample tool.Sampler
}

// NewSelector creates a selector whose toolsets read from the given store.
func NewSelector(s *store.Store, sample tool.Sampler) *Selector {
	return &Selector{store: s, sample: sample}
}

// Select returns the persona for an intent, with its toolset bound to the
// conversation.
func (s *Selector) Select(intent model.Intent, conversationID string) AgentProfile {
	switch intent {
	case model.IntentOrder:
		return AgentProfile{
			Intent: model.IntentOrder,
			System: orderAgentPrompt,
			Tools:  tool.OrderTools(s.store),
		}
	case model.IntentBilling:
		return AgentProfile{
			Intent: model.IntentBilling,
			System: billingAgentPrompt,
			Tools:  tool.BillingTools(s.store, s.sample),
		}
	default:
		return AgentProfile{
			Intent: model.IntentSupport,
			System: fmt.Sprintf(supportAgentPromptFmt, conversationID),
			Tools:  tool.SupportTools(s.store, conversationID),
		}
	}
}

// Capability describes one agent persona for the capabilities endpoint.
type Capability struct {
	Type        model.Intent `json:"type"`
	Description string       `json:"description"`
	Tools       []string     `json:"tools"`
}

// Capabilities lists every persona and its toolset.
func Capabilities() []Capability {
	return []Capability{
		{
			Type:        model.IntentOrder,
			Description: "Order tracking, cancellations, and delivery address changes",
			Tools:       []string{"trackOrder", "cancelOrder", "updateDeliveryAddress"},
		},
		{
			Type:        model.IntentBilling,
			Description: "Invoices, refunds, and subscriptions",
			Tools:       []string{"getInvoice", "processRefund", "checkRefundStatus", "getSubscription"},
		},
		{
			Type:        model.IntentSupport,
			Description: "General questions and anything that fits neither specialist",
			Tools:       []string{"searchKnowledgeBase", "getConversationHistory", "getLastOrderId", "getLastInvoice"},
		},
	}
}
