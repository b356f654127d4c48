// Package agent implements the intent-routing and dispatch core: context
// building, classification, the confidence gate, persona selection, the
// bounded generation loop and conversation compaction.
package agent

import (
	"fmt"
	"strings"

	"github.com/helpdesk-ai/support-router/internal/model"
)

// contextTurns is how many recent turns the context carries verbatim.
const contextTurns = 5

// BuildContext derives the compact situational summary for a routing call.
// Pure function of the (oldest-first) message slice.
func BuildContext(messages []model.ChatMessage) model.ConversationContext {
	var convCtx model.ConversationContext

	start := len(messages) - contextTurns
	if start < 0 {
		start = 0
	}
	for _, m := range messages[start:] {
		convCtx.LastMessages = append(convCtx.LastMessages, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}

	// Newest-first scan; the first UUID-shaped token wins.
	for i := len(messages) - 1; i >= 0; i-- {
		if id := model.ExtractUUID(messages[i].Content); id != "" {
			convCtx.LastOrderID = id
			break
		}
	}

	texts := make([]string, 0, len(messages))
	for _, m := range messages {
		texts = append(texts, m.Content)
	}
	transcript := strings.ToUpper(strings.Join(texts, " "))

	// Billing keywords take priority when both categories appear.
	switch {
	case strings.Contains(transcript, "REFUND") || strings.Contains(transcript, "BILLING"):
		convCtx.LastIssueType = model.IssueBilling
	case strings.Contains(transcript, "ORDER") || strings.Contains(transcript, "TRACK"):
		convCtx.LastIssueType = model.IssueOrder
	}

	return convCtx
}
