package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helpdesk-ai/support-router/internal/model"
)

func TestGatePassesConfidentDecisions(t *testing.T) {
	decision := model.RoutingDecision{Intent: model.IntentOrder, Confidence: 0.9, Reason: "clear"}

	out, clarification := ApplyConfidenceGate(decision, fixedSampler(0))

	assert.Equal(t, decision, out)
	assert.Empty(t, clarification)
}

func TestGateThresholdIsExclusive(t *testing.T) {
	decision := model.RoutingDecision{Intent: model.IntentBilling, Confidence: 0.6, Reason: "borderline"}

	out, clarification := ApplyConfidenceGate(decision, fixedSampler(0))

	assert.Equal(t, model.IntentBilling, out.Intent)
	assert.Empty(t, clarification)
}

func TestGateOverridesLowConfidence(t *testing.T) {
	decision := model.RoutingDecision{Intent: model.IntentOrder, Confidence: 0.4, Reason: "unsure"}

	out, clarification := ApplyConfidenceGate(decision, fixedSampler(1))

	assert.Equal(t, model.IntentSupport, out.Intent)
	// Confidence and reason survive for observability.
	assert.Equal(t, 0.4, out.Confidence)
	assert.Equal(t, "unsure", out.Reason)
	assert.Equal(t, clarificationQuestions[1], clarification)
}

func TestGateClarificationComesFromFixedSet(t *testing.T) {
	decision := model.RoutingDecision{Intent: model.IntentBilling, Confidence: 0.1}

	_, clarification := ApplyConfidenceGate(decision, nil)

	assert.Contains(t, clarificationQuestions, clarification)
}
