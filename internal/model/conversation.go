// Package model defines data structures for the support router.
package model

import (
	"encoding/json"
	"time"
)

// Conversation represents a conversation thread.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Summary is an opaque JSON blob: either a RoutingSummary written after
	// each routing decision or a CompactionSummary written by the compactor.
	Summary     *string  `json:"summary,omitempty"`
	LastMessage *Message `json:"last_message,omitempty"`
}

// RoutingSummary reflects the most recently completed routing decision.
type RoutingSummary struct {
	LastOrderID    string  `json:"lastOrderId,omitempty"`
	LastIssueType  string  `json:"lastIssueType,omitempty"`
	LastIntent     string  `json:"lastIntent"`
	LastConfidence float64 `json:"lastConfidence"`
}

// CompactionSummary describes messages pruned by the compactor.
type CompactionSummary struct {
	TotalMessages int       `json:"totalMessages"`
	DateRange     DateRange `json:"dateRange"`
	Topics        []string  `json:"topics"`
	KeyPoints     []string  `json:"keyPoints"`
}

// DateRange is the creation-time span of summarized messages.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseCompactionSummary decodes a conversation summary blob as a
// compaction summary. Returns false if the blob is absent or malformed.
func ParseCompactionSummary(summary *string) (CompactionSummary, bool) {
	var cs CompactionSummary
	if summary == nil {
		return cs, false
	}
	if err := json.Unmarshal([]byte(*summary), &cs); err != nil {
		return cs, false
	}
	return cs, cs.TotalMessages > 0
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
