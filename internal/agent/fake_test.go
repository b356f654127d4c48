package agent

import (
	"context"

	"github.com/helpdesk-ai/support-router/internal/llm"
)

// fakeClient scripts LLM behavior for tests.
type fakeClient struct {
	completeFn func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
	streamFn   func(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error)

	completeCalls []*llm.CompletionRequest
	streamCalls   []*llm.CompletionRequest
}

func (c *fakeClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.completeCalls = append(c.completeCalls, req)
	if c.completeFn != nil {
		return c.completeFn(ctx, req)
	}
	return &llm.CompletionResponse{}, nil
}

func (c *fakeClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	c.streamCalls = append(c.streamCalls, req)
	if c.streamFn != nil {
		return c.streamFn(ctx, req, cb)
	}
	return &llm.CompletionResponse{}, nil
}

func (c *fakeClient) Name() string { return "fake" }

func (c *fakeClient) Models() []string { return []string{"fake-model"} }

// fixedSampler always picks the same index.
func fixedSampler(i int) func(int) int {
	return func(n int) int {
		if i >= n {
			return n - 1
		}
		return i
	}
}
