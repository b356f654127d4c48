package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdesk-ai/support-router/internal/llm"
	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/store"
	"github.com/helpdesk-ai/support-router/internal/tool"
	"github.com/helpdesk-ai/support-router/pkg/logger"
	"github.com/helpdesk-ai/support-router/pkg/metrics"
)

// ErrInvalidInput marks request payloads the router refuses to route.
var ErrInvalidInput = errors.New("invalid input")

// maxGenerationSteps bounds the tool loop. A run that still wants tools at
// the limit is cut off with whatever text it has produced.
const maxGenerationSteps = 5

// fallbackResponse covers the rare run that ends with no text at all.
const fallbackResponse = "I'm sorry, I wasn't able to put together a response. Could you rephrase your question?"

// EventPublisher receives conversation lifecycle events. Implementations
// must not block the generation loop.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *model.ConversationEvent)
}

// TokenFunc receives each streamed text token with its running index.
type TokenFunc func(token string, index int) error

// FinishFunc is called exactly once per successful run with the final
// response text.
type FinishFunc func(ctx context.Context, finalText string) error

// RouterOptions configures a Router.
type RouterOptions struct {
	// RouterModel is the small model used for classification.
	RouterModel string
	// AgentModel is the model used for agent generation.
	AgentModel string
	// Events receives lifecycle events; nil disables publishing.
	Events EventPublisher
	// Sampler drives clarification selection and the mock billing
	// subsystems; nil uses the default random sampler.
	Sampler tool.Sampler
	Logger  *logger.Logger
}

// Router runs the full pipeline for a user turn: compaction, context
// building, classification, the confidence gate, persona selection, and
// finally the streamed generation loop.
type Router struct {
	store      *store.Store
	client     llm.Client
	classifier *Classifier
	selector   *Selector
	compactor  *Compactor
	events     EventPublisher
	sample     tool.Sampler
	agentModel string
	logger     *logger.Logger
}

// NewRouter wires a router from its collaborators.
func NewRouter(s *store.Store, client llm.Client, opts RouterOptions) *Router {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	sample := opts.Sampler
	if sample == nil {
		sample = tool.DefaultSampler
	}
	return &Router{
		store:      s,
		client:     client,
		classifier: NewClassifier(client, opts.RouterModel, log),
		selector:   NewSelector(s, sample),
		compactor:  NewCompactor(s, log),
		events:     opts.Events,
		sample:     sample,
		agentModel: opts.AgentModel,
		logger:     log,
	}
}

// Run is a routed turn ready to stream. Intent is final once Route returns,
// so callers can surface it before the first token.
type Run struct {
	ConversationID string
	Decision       model.RoutingDecision
	Clarification  string

	// OnStatus, when set, receives per-step status events in addition to
	// the router's event publisher. Used by the SSE layer.
	OnStatus func(eventType model.EventType, metadata map[string]any)

	router  *Router
	profile AgentProfile
	history []llm.ChatMessage
}

func (run *Run) status(ctx context.Context, eventType model.EventType, reason string, metadata map[string]any) {
	run.router.publish(ctx, run.ConversationID, eventType, reason, metadata)
	if run.OnStatus != nil {
		run.OnStatus(eventType, metadata)
	}
}

// Intent is the final routed intent for this run.
func (r *Run) Intent() model.Intent {
	return r.profile.Intent
}

// Route classifies the latest user turn and selects a persona. It performs
// no generation; the returned Run carries everything Stream needs.
func (r *Router) Route(ctx context.Context, conversationID string, messages []model.ChatMessage) (*Run, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", ErrInvalidInput)
	}
	userText := strings.TrimSpace(messages[len(messages)-1].Content)
	if userText == "" {
		return nil, fmt.Errorf("%w: message text must not be empty", ErrInvalidInput)
	}

	log := r.logger.WithConversation(conversationID)

	// Compaction failures never block routing.
	if result, err := r.compactor.Compact(ctx, conversationID); err != nil {
		log.Warn("compaction failed", zap.Error(err))
	} else if result.Compacted {
		r.publish(ctx, conversationID, model.EventTypeCompacted, "", map[string]any{
			"summarized": result.SummarizedCount,
			"kept":       result.KeptCount,
		})
	}

	convCtx := BuildContext(messages)
	decision := r.classifier.Classify(ctx, userText, convCtx)
	decision, clarification := ApplyConfidenceGate(decision, r.sample)
	metrics.RecordRoutingDecision(string(decision.Intent))

	log.Info("routing decision",
		zap.String("intent", string(decision.Intent)),
		zap.Float64("confidence", decision.Confidence),
		zap.String("reason", decision.Reason))

	// Summary persistence is best effort; a write failure must not lose
	// the turn.
	r.persistRoutingSummary(ctx, conversationID, decision, convCtx, log)

	profile := r.selector.Select(decision.Intent, conversationID)
	if clarification != "" && profile.Intent == model.IntentSupport {
		profile.System += fmt.Sprintf(clarificationInstructionFmt, clarification)
	}

	history := make([]llm.ChatMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	return &Run{
		ConversationID: conversationID,
		Decision:       decision,
		Clarification:  clarification,
		router:         r,
		profile:        profile,
		history:        history,
	}, nil
}

func (r *Router) persistRoutingSummary(ctx context.Context, conversationID string, decision model.RoutingDecision, convCtx model.ConversationContext, log *logger.Logger) {
	summary := model.RoutingSummary{
		LastOrderID:    convCtx.LastOrderID,
		LastIssueType:  string(convCtx.LastIssueType),
		LastIntent:     string(decision.Intent),
		LastConfidence: decision.Confidence,
	}
	blob, err := json.Marshal(summary)
	if err != nil {
		log.Warn("encode routing summary failed", zap.Error(err))
		return
	}
	if err := r.store.UpdateConversationSummary(ctx, conversationID, string(blob)); err != nil {
		log.Warn("persist routing summary failed", zap.Error(err))
	}
}

func (r *Router) publish(ctx context.Context, conversationID string, eventType model.EventType, reason string, metadata map[string]any) {
	if r.events == nil {
		return
	}
	r.events.PublishEvent(ctx, &model.ConversationEvent{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Type:           eventType,
		Reason:         reason,
		Metadata:       metadata,
		CreatedAt:      time.Now(),
	})
}

// Stream executes the bounded generation loop, delivering text tokens as
// they arrive. Tool calls within a step run concurrently; the loop waits
// for every result before continuing. onFinish is called exactly once with
// the final text, which is guaranteed non-empty.
func (run *Run) Stream(ctx context.Context, onToken TokenFunc, onFinish FinishFunc) error {
	r := run.router
	log := r.logger.WithConversation(run.ConversationID)
	start := time.Now()

	defs := make([]llm.ToolDefinition, 0, len(run.profile.Tools))
	for _, t := range run.profile.Tools {
		defs = append(defs, t.Definition())
	}

	var finalText strings.Builder
	tokenIndex := 0
	tokensIn, tokensOut := 0, 0
	history := run.history

	for step := 0; step < maxGenerationSteps; step++ {
		resp, err := r.client.CompleteStream(ctx, &llm.CompletionRequest{
			Model:    r.agentModel,
			System:   run.profile.System,
			Messages: history,
			Tools:    defs,
		}, func(token string, _ int) error {
			finalText.WriteString(token)
			err := onToken(token, tokenIndex)
			tokenIndex++
			return err
		})
		if err != nil {
			metrics.RecordLLMStream(r.agentModel, "error", time.Since(start).Seconds(), tokensIn, tokensOut)
			run.status(ctx, model.EventTypeError, err.Error(), nil)
			return fmt.Errorf("generation step %d: %w", step+1, err)
		}
		tokensIn += resp.TokensIn
		tokensOut += resp.TokensOut

		if len(resp.ToolCalls) == 0 {
			run.status(ctx, model.EventTypeThinking, "", nil)
			break
		}

		names := make([]string, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			names = append(names, tc.Name)
		}
		log.Info("executing tools", zap.Int("step", step+1), zap.Strings("tools", names))
		run.status(ctx, model.EventTypeToolRunning, "", map[string]any{"tools": names})

		history = append(history, llm.ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		history = append(history, run.executeTools(ctx, resp.ToolCalls)...)

		run.status(ctx, model.EventTypeGenerating, "", nil)
	}

	text := finalText.String()
	if strings.TrimSpace(text) == "" {
		// Every run must end with something the user can act on.
		text = run.Clarification
		if text == "" {
			text = fallbackResponse
		}
		if err := onToken(text, tokenIndex); err != nil {
			return fmt.Errorf("deliver fallback text: %w", err)
		}
	}

	metrics.RecordLLMStream(r.agentModel, "success", time.Since(start).Seconds(), tokensIn, tokensOut)

	if err := onFinish(ctx, text); err != nil {
		log.Error("finish callback failed", zap.Error(err))
	}
	return nil
}

// executeTools runs every requested tool concurrently and returns the tool
// result messages in request order.
func (run *Run) executeTools(ctx context.Context, calls []llm.ToolCall) []llm.ChatMessage {
	results := make([]string, len(calls))

	var wg sync.WaitGroup
	for i, tc := range calls {
		wg.Add(1)
		go func(i int, tc llm.ToolCall) {
			defer wg.Done()
			t, ok := run.profile.toolByName(tc.Name)
			if !ok {
				data, _ := json.Marshal(map[string]any{
					"success": false,
					"error":   fmt.Sprintf("Unknown tool: %s", tc.Name),
				})
				results[i] = string(data)
				return
			}
			results[i] = tool.Run(ctx, t, json.RawMessage(tc.Arguments))
		}(i, tc)
	}
	wg.Wait()

	messages := make([]llm.ChatMessage, 0, len(calls))
	for i, tc := range calls {
		messages = append(messages, llm.ChatMessage{
			Role:       llm.RoleTool,
			Content:    results[i],
			ToolCallID: tc.ID,
			Name:       tc.Name,
		})
	}
	return messages
}
