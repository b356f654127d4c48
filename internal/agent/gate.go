package agent

import (
	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/tool"
	"github.com/helpdesk-ai/support-router/pkg/metrics"
)

// ConfidenceThreshold is the minimum classifier confidence required to
// honor a specialist intent.
const ConfidenceThreshold = 0.6

var clarificationQuestions = []string{
	"Could you tell me a bit more about what you need help with? Is it about an order, billing, or something else?",
	"I want to make sure I help you with the right thing. Are you asking about an order, a payment, or general support?",
	"Just to clarify, is your question about tracking an order, a billing issue, or something else entirely?",
}

// ApplyConfidenceGate overrides low-confidence decisions to SUPPORT and
// picks a clarification question for the agent to work into its reply. The
// original intent and confidence are preserved on the decision for
// observability; only Intent changes.
func ApplyConfidenceGate(decision model.RoutingDecision, sample tool.Sampler) (model.RoutingDecision, string) {
	if decision.Confidence >= ConfidenceThreshold {
		return decision, ""
	}
	if sample == nil {
		sample = tool.DefaultSampler
	}

	metrics.LowConfidenceOverridesTotal.Inc()
	decision.Intent = model.IntentSupport
	return decision, clarificationQuestions[sample(len(clarificationQuestions))]
}
