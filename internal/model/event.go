package model

import (
	"time"
)

// EventType represents the type of conversation event.
type EventType string

const (
	// EventTypeThinking is emitted when a generation step produced text
	// without invoking tools.
	EventTypeThinking EventType = "agent_thinking"
	// EventTypeToolRunning is emitted when a step requested tool calls.
	EventTypeToolRunning EventType = "tool_running"
	// EventTypeGenerating is emitted after tool results are fed back.
	EventTypeGenerating EventType = "generating_response"
	// EventTypeError is emitted when generation fails.
	EventTypeError EventType = "error"
	// EventTypeCompacted is emitted after a successful compaction.
	EventTypeCompacted EventType = "compacted"
)

// ConversationEvent represents a lifecycle event in a conversation.
type ConversationEvent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Type           EventType      `json:"type"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
