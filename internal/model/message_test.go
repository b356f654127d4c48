package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRequest(t *testing.T, body string) ChatRequest {
	t.Helper()
	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestIncomingContentString(t *testing.T) {
	req := decodeRequest(t, `{"conversationId":"c1","messages":[{"role":"user","content":"hello"}]}`)

	require.Len(t, req.Messages, 1)
	assert.Equal(t, "hello", req.Messages[0].Normalize().Content)
}

func TestIncomingContentPartsArray(t *testing.T) {
	req := decodeRequest(t, `{"messages":[{"role":"user","content":[
		{"type":"text","text":"first"},
		{"type":"image","text":"ignored"},
		{"type":"text","text":"second"}
	]}]}`)

	assert.Equal(t, "first\nsecond", req.Messages[0].Normalize().Content)
}

func TestIncomingContentObjectWithParts(t *testing.T) {
	req := decodeRequest(t, `{"messages":[{"role":"user","content":{"parts":[{"type":"text","text":"wrapped"}]}}]}`)

	assert.Equal(t, "wrapped", req.Messages[0].Normalize().Content)
}

func TestIncomingContentObjectWithText(t *testing.T) {
	req := decodeRequest(t, `{"messages":[{"role":"user","content":{"text":"plain"}}]}`)

	assert.Equal(t, "plain", req.Messages[0].Normalize().Content)
}

func TestIncomingContentUnknownShapeIsEmpty(t *testing.T) {
	req := decodeRequest(t, `{"messages":[{"role":"user","content":42}]}`)

	assert.Empty(t, req.Messages[0].Normalize().Content)
}

func TestNormalizeDefaultsRoleToUser(t *testing.T) {
	req := decodeRequest(t, `{"messages":[{"content":"hi"}]}`)

	assert.Equal(t, RoleUser, req.Messages[0].Normalize().Role)
}

func TestExtractUUID(t *testing.T) {
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440001",
		ExtractUUID("my order 550e8400-e29b-41d4-a716-446655440001 is late"))
	assert.Equal(t, "550E8400-E29B-41D4-A716-446655440001",
		ExtractUUID("id 550E8400-E29B-41D4-A716-446655440001"))
	assert.Empty(t, ExtractUUID("no id here"))
	assert.Empty(t, ExtractUUID("550e8400-e29b-41d4-a716"))
}

func TestParseIntent(t *testing.T) {
	assert.Equal(t, IntentOrder, ParseIntent("ORDER"))
	assert.Equal(t, IntentBilling, ParseIntent("BILLING"))
	assert.Equal(t, IntentSupport, ParseIntent("SUPPORT"))
	assert.Equal(t, IntentSupport, ParseIntent("anything else"))
}

func TestParseCompactionSummary(t *testing.T) {
	blob := `{"totalMessages":20,"dateRange":{"start":"2026-01-01T00:00:00Z","end":"2026-01-02T00:00:00Z"},"topics":["order"],"keyPoints":["hi"]}`
	summary, ok := ParseCompactionSummary(&blob)
	require.True(t, ok)
	assert.Equal(t, 20, summary.TotalMessages)

	routing := `{"lastIntent":"ORDER","lastConfidence":0.9}`
	_, ok = ParseCompactionSummary(&routing)
	assert.False(t, ok)

	_, ok = ParseCompactionSummary(nil)
	assert.False(t, ok)
}
