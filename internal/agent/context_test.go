package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helpdesk-ai/support-router/internal/model"
)

func TestBuildContextLastMessages(t *testing.T) {
	messages := []model.ChatMessage{
		{Role: model.RoleUser, Content: "one"},
		{Role: model.RoleAssistant, Content: "two"},
		{Role: model.RoleUser, Content: "three"},
		{Role: model.RoleAssistant, Content: "four"},
		{Role: model.RoleUser, Content: "five"},
		{Role: model.RoleAssistant, Content: "six"},
		{Role: model.RoleUser, Content: "seven"},
	}

	convCtx := BuildContext(messages)

	assert.Equal(t, []string{
		"user: three",
		"assistant: four",
		"user: five",
		"assistant: six",
		"user: seven",
	}, convCtx.LastMessages)
}

func TestBuildContextExtractsNewestOrderID(t *testing.T) {
	messages := []model.ChatMessage{
		{Role: model.RoleUser, Content: "my order 550e8400-e29b-41d4-a716-446655440001 is late"},
		{Role: model.RoleAssistant, Content: "Let me check."},
		{Role: model.RoleUser, Content: "actually I meant 550E8400-E29B-41D4-A716-446655440002"},
	}

	convCtx := BuildContext(messages)

	assert.Equal(t, "550E8400-E29B-41D4-A716-446655440002", convCtx.LastOrderID)
}

func TestBuildContextNoOrderID(t *testing.T) {
	messages := []model.ChatMessage{
		{Role: model.RoleUser, Content: "hello there"},
	}

	convCtx := BuildContext(messages)

	assert.Empty(t, convCtx.LastOrderID)
}

func TestBuildContextBillingTakesPriority(t *testing.T) {
	messages := []model.ChatMessage{
		{Role: model.RoleUser, Content: "Where is my order?"},
		{Role: model.RoleAssistant, Content: "checking..."},
		{Role: model.RoleUser, Content: "REFUND please"},
	}

	convCtx := BuildContext(messages)

	assert.Equal(t, model.IssueBilling, convCtx.LastIssueType)
}

func TestBuildContextOrderIssueType(t *testing.T) {
	messages := []model.ChatMessage{
		{Role: model.RoleUser, Content: "please track my package"},
	}

	convCtx := BuildContext(messages)

	assert.Equal(t, model.IssueOrder, convCtx.LastIssueType)
}

func TestBuildContextNoIssueType(t *testing.T) {
	messages := []model.ChatMessage{
		{Role: model.RoleUser, Content: "how do I change my password?"},
	}

	convCtx := BuildContext(messages)

	assert.Empty(t, convCtx.LastIssueType)
}
