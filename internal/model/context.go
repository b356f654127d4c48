package model

import "regexp"

// uuidPattern matches 8-4-4-4-12 hex UUID-shaped tokens.
var uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// ExtractUUID returns the first UUID-shaped token in text, or "" when none
// is present.
func ExtractUUID(text string) string {
	return uuidPattern.FindString(text)
}

// Intent is the routing category for a user turn.
type Intent string

const (
	IntentOrder   Intent = "ORDER"
	IntentBilling Intent = "BILLING"
	IntentSupport Intent = "SUPPORT"
)

// ParseIntent maps a raw string to an intent. Anything unrecognized
// resolves to SUPPORT.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentOrder:
		return IntentOrder
	case IntentBilling:
		return IntentBilling
	default:
		return IntentSupport
	}
}

// IssueType is the inferred issue category of a conversation.
type IssueType string

const (
	IssueOrder   IssueType = "ORDER"
	IssueBilling IssueType = "BILLING"
)

// ConversationContext is the compact situational summary computed per
// routing call. Ephemeral; derived from conversation history.
type ConversationContext struct {
	// LastMessages holds the last 5 turns formatted as "role: text".
	LastMessages []string
	// LastOrderID is the most recently mentioned UUID-shaped token, if any.
	LastOrderID string
	// LastIssueType is the inferred issue category, empty when neither
	// billing nor order keywords appear.
	LastIssueType IssueType
}

// RoutingDecision is the classifier output for a single turn. The
// confidence gate may overwrite Intent after classification.
type RoutingDecision struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}
