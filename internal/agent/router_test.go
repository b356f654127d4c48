package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ai/support-router/internal/llm"
	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/store"
	"github.com/helpdesk-ai/support-router/pkg/logger"
)

const testOrderID = "550e8400-e29b-41d4-a716-446655440001"

type capturePublisher struct {
	events []*model.ConversationEvent
}

func (p *capturePublisher) PublishEvent(ctx context.Context, event *model.ConversationEvent) {
	p.events = append(p.events, event)
}

func (p *capturePublisher) types() []model.EventType {
	out := make([]model.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(store.NewMemoryDriver())
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &store.User{ID: "u1", Email: "u1@example.com", Name: "U"}))
	now := time.Now()
	require.NoError(t, s.CreateConversation(ctx, &store.Conversation{
		ID: "c1", UserID: "u1", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.CreateOrder(ctx, &store.Order{
		ID:          testOrderID,
		UserID:      "u1",
		Status:      store.OrderStatusShipped,
		Items:       `[{"name":"Widget","qty":1}]`,
		TotalAmount: 42.50,
		CreatedAt:   now,
	}))
	return s
}

func classifierOutput(intent string, confidence float64) string {
	data, _ := json.Marshal(map[string]any{
		"intent":     intent,
		"confidence": confidence,
		"reason":     "test",
	})
	return string(data)
}

func TestRouteRejectsEmptyInput(t *testing.T) {
	r := NewRouter(newTestStore(t), &fakeClient{}, RouterOptions{Logger: logger.NewNop()})

	_, err := r.Route(context.Background(), "c1", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Route(context.Background(), "c1", []model.ChatMessage{
		{Role: model.RoleUser, Content: "   "},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRoutePersistsRoutingSummary(t *testing.T) {
	s := newTestStore(t)
	client := &fakeClient{
		completeFn: func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: classifierOutput("ORDER", 0.9)}, nil
		},
	}
	r := NewRouter(s, client, RouterOptions{Logger: logger.NewNop()})

	run, err := r.Route(context.Background(), "c1", []model.ChatMessage{
		{Role: model.RoleUser, Content: "track my order " + testOrderID},
	})
	require.NoError(t, err)
	assert.Equal(t, model.IntentOrder, run.Intent())

	conv, err := s.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, conv.Summary)

	var summary model.RoutingSummary
	require.NoError(t, json.Unmarshal([]byte(*conv.Summary), &summary))
	assert.Equal(t, "ORDER", summary.LastIntent)
	assert.Equal(t, 0.9, summary.LastConfidence)
	assert.Equal(t, testOrderID, summary.LastOrderID)
}

func TestStreamRunsToolLoop(t *testing.T) {
	s := newTestStore(t)
	events := &capturePublisher{}

	client := &fakeClient{
		completeFn: func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: classifierOutput("ORDER", 0.95)}, nil
		},
	}
	client.streamFn = func(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
		if len(client.streamCalls) == 1 {
			return &llm.CompletionResponse{
				ToolCalls: []llm.ToolCall{{
					ID:        "call_1",
					Name:      "trackOrder",
					Arguments: `{"orderId":"` + testOrderID + `"}`,
				}},
			}, nil
		}
		for i, token := range []string{"Your order ", "is shipped."} {
			if err := cb(token, i); err != nil {
				return nil, err
			}
		}
		return &llm.CompletionResponse{Content: "Your order is shipped."}, nil
	}

	r := NewRouter(s, client, RouterOptions{Events: events, Logger: logger.NewNop()})
	run, err := r.Route(context.Background(), "c1", []model.ChatMessage{
		{Role: model.RoleUser, Content: "track order " + testOrderID},
	})
	require.NoError(t, err)

	var tokens []string
	var finishText string
	finishCalls := 0
	err = run.Stream(context.Background(),
		func(token string, index int) error {
			tokens = append(tokens, token)
			assert.Equal(t, len(tokens)-1, index)
			return nil
		},
		func(ctx context.Context, finalText string) error {
			finishCalls++
			finishText = finalText
			return nil
		},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Your order ", "is shipped."}, tokens)
	assert.Equal(t, 1, finishCalls)
	assert.Equal(t, "Your order is shipped.", finishText)

	// The second request carries the assistant tool call and its result.
	require.Len(t, client.streamCalls, 2)
	history := client.streamCalls[1].Messages
	require.GreaterOrEqual(t, len(history), 3)
	assistant := history[len(history)-2]
	toolMsg := history[len(history)-1]
	assert.Equal(t, llm.RoleAssistant, assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "trackOrder", assistant.ToolCalls[0].Name)
	assert.Equal(t, llm.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, `"found":true`)
	assert.Contains(t, toolMsg.Content, store.OrderStatusShipped)

	assert.Equal(t, []model.EventType{
		model.EventTypeToolRunning,
		model.EventTypeGenerating,
		model.EventTypeThinking,
	}, events.types())
}

func TestStreamLowConfidenceFallsBackToClarification(t *testing.T) {
	s := newTestStore(t)
	client := &fakeClient{
		completeFn: func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: classifierOutput("ORDER", 0.4)}, nil
		},
		streamFn: func(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
			// The model produced nothing at all.
			return &llm.CompletionResponse{}, nil
		},
	}

	r := NewRouter(s, client, RouterOptions{Sampler: fixedSampler(0), Logger: logger.NewNop()})
	run, err := r.Route(context.Background(), "c1", []model.ChatMessage{
		{Role: model.RoleUser, Content: "hmm"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.IntentSupport, run.Intent())
	assert.Equal(t, clarificationQuestions[0], run.Clarification)
	// The support persona is told to work the question in.
	assert.Contains(t, run.profile.System, clarificationQuestions[0])

	var tokens []string
	var finishText string
	err = run.Stream(context.Background(),
		func(token string, index int) error {
			tokens = append(tokens, token)
			return nil
		},
		func(ctx context.Context, finalText string) error {
			finishText = finalText
			return nil
		},
	)
	require.NoError(t, err)

	assert.Equal(t, clarificationQuestions[0], finishText)
	assert.Equal(t, []string{clarificationQuestions[0]}, tokens)
}

func TestStreamStopsAtStepBudget(t *testing.T) {
	s := newTestStore(t)
	client := &fakeClient{
		completeFn: func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: classifierOutput("ORDER", 0.95)}, nil
		},
		streamFn: func(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
			// The model keeps asking for tools forever.
			return &llm.CompletionResponse{
				ToolCalls: []llm.ToolCall{{
					ID:        "call_x",
					Name:      "trackOrder",
					Arguments: `{"orderId":"` + testOrderID + `"}`,
				}},
			}, nil
		},
	}

	r := NewRouter(s, client, RouterOptions{Logger: logger.NewNop()})
	run, err := r.Route(context.Background(), "c1", []model.ChatMessage{
		{Role: model.RoleUser, Content: "track order " + testOrderID},
	})
	require.NoError(t, err)

	finishCalls := 0
	var finishText string
	err = run.Stream(context.Background(),
		func(token string, index int) error { return nil },
		func(ctx context.Context, finalText string) error {
			finishCalls++
			finishText = finalText
			return nil
		},
	)
	require.NoError(t, err)

	assert.Len(t, client.streamCalls, maxGenerationSteps)
	assert.Equal(t, 1, finishCalls)
	assert.Equal(t, fallbackResponse, finishText)
}

func TestStreamUnknownToolReportedToModel(t *testing.T) {
	s := newTestStore(t)
	client := &fakeClient{
		completeFn: func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: classifierOutput("ORDER", 0.95)}, nil
		},
	}
	client.streamFn = func(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
		if len(client.streamCalls) == 1 {
			return &llm.CompletionResponse{
				ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "launchRocket", Arguments: `{}`}},
			}, nil
		}
		require.NoError(t, cb("ok", 0))
		return &llm.CompletionResponse{Content: "ok"}, nil
	}

	r := NewRouter(s, client, RouterOptions{Logger: logger.NewNop()})
	run, err := r.Route(context.Background(), "c1", []model.ChatMessage{
		{Role: model.RoleUser, Content: "track my order please"},
	})
	require.NoError(t, err)

	err = run.Stream(context.Background(),
		func(token string, index int) error { return nil },
		func(ctx context.Context, finalText string) error { return nil },
	)
	require.NoError(t, err)

	require.Len(t, client.streamCalls, 2)
	history := client.streamCalls[1].Messages
	toolMsg := history[len(history)-1]
	assert.Contains(t, toolMsg.Content, "Unknown tool: launchRocket")
}
