package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a persisted conversation message.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Intent         *string   `json:"intent,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatMessage is the canonical {role, text} shape the routing core consumes.
// Incoming request messages are normalized into this form at the HTTP
// boundary, so the core never branches on content shape.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IncomingMessage is a single message as submitted by a client. Content has
// accumulated several shapes across client revisions: a flat string, an
// array of typed parts, or an object wrapping a parts array.
type IncomingMessage struct {
	Role    Role            `json:"role"`
	Content IncomingContent `json:"content"`
}

// Normalize converts an incoming message to the canonical chat shape.
func (m IncomingMessage) Normalize() ChatMessage {
	role := m.Role
	if role == "" {
		role = RoleUser
	}
	return ChatMessage{Role: role, Content: m.Content.Text}
}

// IncomingContent holds the extracted plain text of a multi-shape content
// field. Only text-typed parts contribute; other part types are dropped.
type IncomingContent struct {
	Text string
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type contentObject struct {
	Parts []contentPart `json:"parts"`
	Text  string        `json:"text"`
}

// UnmarshalJSON accepts a string, an array of parts, or an object carrying
// either a parts array or a text field.
func (c *IncomingContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		return nil
	}

	var parts []contentPart
	if err := json.Unmarshal(data, &parts); err == nil {
		c.Text = joinTextParts(parts)
		return nil
	}

	var obj contentObject
	if err := json.Unmarshal(data, &obj); err == nil {
		if len(obj.Parts) > 0 {
			c.Text = joinTextParts(obj.Parts)
		} else {
			c.Text = obj.Text
		}
		return nil
	}

	// Unknown shape: treat as empty so validation rejects it upstream.
	c.Text = ""
	return nil
}

// MarshalJSON emits the canonical flat-string form.
func (c IncomingContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Text)
}

func joinTextParts(parts []contentPart) string {
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Type == "text" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ChatRequest is the request body for the chat endpoint.
type ChatRequest struct {
	ConversationID string            `json:"conversationId"`
	Messages       []IncomingMessage `json:"messages"`
}

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// MessageCompleteEvent represents a message completion event.
type MessageCompleteEvent struct {
	Message Message `json:"message"`
	Intent  string  `json:"intent"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
