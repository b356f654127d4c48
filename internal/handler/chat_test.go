package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ai/support-router/internal/agent"
	"github.com/helpdesk-ai/support-router/internal/llm"
	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/service"
	"github.com/helpdesk-ai/support-router/internal/store"
	"github.com/helpdesk-ai/support-router/pkg/logger"
)

type scriptedClient struct {
	classifierOutput string
	tokens           []string
	calls            int
}

func (c *scriptedClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.calls++
	return &llm.CompletionResponse{Content: c.classifierOutput}, nil
}

func (c *scriptedClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	c.calls++
	var full strings.Builder
	for i, token := range c.tokens {
		if err := cb(token, i); err != nil {
			return nil, err
		}
		full.WriteString(token)
	}
	return &llm.CompletionResponse{Content: full.String()}, nil
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Models() []string { return []string{"scripted"} }

func newChatHandler(t *testing.T, client llm.Client) (*ChatHandler, *service.ChatService, string) {
	t.Helper()
	s := store.New(store.NewMemoryDriver())
	svc := service.NewChatService(s, logger.NewNop())

	conv, err := svc.CreateConversation(context.Background(), store.MockUserID)
	require.NoError(t, err)

	router := agent.NewRouter(s, client, agent.RouterOptions{Logger: logger.NewNop()})
	return NewChatHandler(svc, router, logger.NewNop()), svc, conv.ID
}

func postChat(h *ChatHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestChatStreamsTokensAndIntentHeader(t *testing.T) {
	client := &scriptedClient{
		classifierOutput: `{"intent":"ORDER","confidence":0.9,"reason":"delivery question"}`,
		tokens:           []string{"On ", "its ", "way."},
	}
	h, svc, convID := newChatHandler(t, client)

	rec := postChat(h, `{"conversationId":"`+convID+`","messages":[{"role":"user","content":"where is my order?"}]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ORDER", rec.Header().Get("X-Intent"))
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: token")
	assert.Contains(t, body, `"token":"On "`)
	assert.Contains(t, body, "event: status")
	assert.Contains(t, body, `"type":"agent_thinking"`)
	assert.Contains(t, body, "event: message_complete")
	assert.Contains(t, body, "event: done")

	// Both turns persisted; the assistant message carries the intent.
	history, err := svc.History(context.Background(), convID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
	assert.Equal(t, "On its way.", history[1].Content)
	require.NotNil(t, history[1].Intent)
	assert.Equal(t, "ORDER", *history[1].Intent)
}

func TestChatRejectsUnknownConversationBeforeModelCall(t *testing.T) {
	client := &scriptedClient{classifierOutput: `{"intent":"ORDER","confidence":0.9,"reason":"x"}`}
	h, _, _ := newChatHandler(t, client)

	rec := postChat(h, `{"conversationId":"550e8400-e29b-41d4-a716-446655440099","messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, client.calls)
}

func TestChatRejectsInvalidConversationID(t *testing.T) {
	h, _, _ := newChatHandler(t, &scriptedClient{})

	rec := postChat(h, `{"conversationId":"not-a-uuid","messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	h, _, convID := newChatHandler(t, &scriptedClient{})

	rec := postChat(h, `{"conversationId":"`+convID+`","messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postChat(h, `{"conversationId":"`+convID+`","messages":[{"role":"user","content":"   "}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatAcceptsPartsContent(t *testing.T) {
	client := &scriptedClient{
		classifierOutput: `{"intent":"SUPPORT","confidence":0.9,"reason":"general"}`,
		tokens:           []string{"Hello!"},
	}
	h, _, convID := newChatHandler(t, client)

	rec := postChat(h, `{"conversationId":"`+convID+`","messages":[{"role":"user","content":[{"type":"text","text":"hi there"}]}]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SUPPORT", rec.Header().Get("X-Intent"))
}
