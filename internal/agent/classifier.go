package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdesk-ai/support-router/internal/llm"
	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/pkg/logger"
	"github.com/helpdesk-ai/support-router/pkg/metrics"
)

const classifierSystemPrompt = `You are an intent classifier for a customer support system.
Classify the user's message into exactly one of these intents:

- ORDER: questions about order status, tracking, delivery, cancellation, or address changes
- BILLING: questions about invoices, payments, refunds, charges, or subscriptions
- SUPPORT: general questions, product help, or anything that fits neither category

Respond with a single JSON object and nothing else:
{"intent": "ORDER" | "BILLING" | "SUPPORT", "confidence": <number between 0 and 1>, "reason": "<one short sentence>"}`

// classifierMaxTokens bounds the classification response. The expected
// output is a single small JSON object.
const classifierMaxTokens = 256

// fallbackDecision is returned whenever classification fails for any
// reason. The low confidence deliberately lands below the gate threshold.
func fallbackDecision() model.RoutingDecision {
	return model.RoutingDecision{
		Intent:     model.IntentSupport,
		Confidence: 0.3,
		Reason:     "Router error, defaulting to support",
	}
}

// classifierRecentTurns is how many context turns the prompt includes.
const classifierRecentTurns = 3

// Classifier assigns an intent to each user turn using a small model call.
type Classifier struct {
	client llm.Client
	model  string
	logger *logger.Logger
}

// NewClassifier creates a classifier backed by the given client and model.
func NewClassifier(client llm.Client, modelName string, log *logger.Logger) *Classifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &Classifier{client: client, model: modelName, logger: log}
}

// Classify returns a routing decision for the latest user message. It never
// fails: provider errors, malformed output and schema violations all
// collapse to the fixed SUPPORT fallback.
func (c *Classifier) Classify(ctx context.Context, userText string, convCtx model.ConversationContext) model.RoutingDecision {
	prompt := buildClassifierPrompt(userText, convCtx)

	resp, err := c.client.Complete(ctx, &llm.CompletionRequest{
		Model:       c.model,
		System:      classifierSystemPrompt,
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   classifierMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		c.logger.Warn("classifier call failed, using fallback", zap.Error(err))
		metrics.ClassifierFallbacksTotal.Inc()
		return fallbackDecision()
	}

	decision, err := parseDecision(resp.Content)
	if err != nil {
		c.logger.Warn("classifier output rejected, using fallback",
			zap.Error(err),
			zap.String("output", resp.Content))
		metrics.ClassifierFallbacksTotal.Inc()
		return fallbackDecision()
	}
	return decision
}

func buildClassifierPrompt(userText string, convCtx model.ConversationContext) string {
	var b strings.Builder

	if convCtx.LastOrderID != "" {
		fmt.Fprintf(&b, "Last mentioned Order ID: %s\n", convCtx.LastOrderID)
	}
	if convCtx.LastIssueType != "" {
		fmt.Fprintf(&b, "Previous issue type: %s\n", convCtx.LastIssueType)
	}
	if len(convCtx.LastMessages) > 1 {
		recent := convCtx.LastMessages
		if len(recent) > classifierRecentTurns {
			recent = recent[len(recent)-classifierRecentTurns:]
		}
		b.WriteString("Recent conversation:\n")
		for _, m := range recent {
			b.WriteString(m)
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "\nCurrent user message: %s", userText)
	return b.String()
}

// parseDecision validates the raw classifier output against the expected
// schema. All three fields must be present, the intent must be one of the
// known values and confidence must be within [0, 1].
func parseDecision(raw string) (model.RoutingDecision, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var out struct {
		Intent     *string  `json:"intent"`
		Confidence *float64 `json:"confidence"`
		Reason     *string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return model.RoutingDecision{}, fmt.Errorf("parse classifier output: %w", err)
	}
	if out.Intent == nil || out.Confidence == nil || out.Reason == nil {
		return model.RoutingDecision{}, fmt.Errorf("classifier output missing fields")
	}

	intent := model.Intent(*out.Intent)
	switch intent {
	case model.IntentOrder, model.IntentBilling, model.IntentSupport:
	default:
		return model.RoutingDecision{}, fmt.Errorf("unknown intent %q", *out.Intent)
	}
	if *out.Confidence < 0 || *out.Confidence > 1 {
		return model.RoutingDecision{}, fmt.Errorf("confidence %v out of range", *out.Confidence)
	}

	return model.RoutingDecision{
		Intent:     intent,
		Confidence: *out.Confidence,
		Reason:     *out.Reason,
	}, nil
}
