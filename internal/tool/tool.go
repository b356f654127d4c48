// Package tool implements the domain tools callable by agent personas.
// Every tool returns a structured result object; failures are encoded in
// the result shape and never propagate as errors into the generation loop.
package tool

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/helpdesk-ai/support-router/internal/llm"
	"github.com/helpdesk-ai/support-router/pkg/metrics"
)

// Tool is a single callable domain function.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON-schema object describing the arguments.
	Parameters map[string]any
	// Execute runs the tool. It must return a result value, never panic
	// outward; data-layer failures are encoded in the result.
	Execute func(ctx context.Context, args json.RawMessage) any
}

// Definition converts the tool to its LLM declaration.
func (t Tool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Sampler picks a uniform index in [0, n). Stands in for the refund and
// subscription subsystems; inject a fixed sampler in tests or a real data
// source adapter in production.
type Sampler func(n int) int

// DefaultSampler draws from math/rand.
func DefaultSampler(n int) int {
	return rand.IntN(n)
}

// errorResult is the generic shape returned when a tool body panics.
type errorResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Run executes a tool and marshals its result to JSON for the model.
// Panics are converted to a structured error result.
func Run(ctx context.Context, t Tool, args json.RawMessage) (result string) {
	start := time.Now()
	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			data, _ := json.Marshal(errorResult{
				Success: false,
				Error:   "An internal error occurred while executing the tool.",
			})
			result = string(data)
		}
		metrics.RecordToolExecution(t.Name, status, time.Since(start).Seconds())
	}()

	out := t.Execute(ctx, args)
	data, err := json.Marshal(out)
	if err != nil {
		status = "marshal_error"
		data, _ = json.Marshal(errorResult{
			Success: false,
			Error:   "Tool produced an unencodable result.",
		})
	}
	return string(data)
}

// missingID reports whether a model-supplied identifier is unusable. The
// literal string "undefined" shows up when a model echoes a missing value.
func missingID(id string) bool {
	return id == "" || id == "undefined"
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}
