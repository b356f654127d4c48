package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/store"
	"github.com/helpdesk-ai/support-router/pkg/logger"
	"github.com/helpdesk-ai/support-router/pkg/metrics"
)

const (
	// compactionThreshold is the message count above which a conversation
	// is compacted.
	compactionThreshold = 20
	// compactionKeepCount is how many of the newest messages survive.
	compactionKeepCount = 5
	// keyPointLimit caps each key point at a content prefix.
	keyPointLimit = 100
	// maxKeyPoints caps the number of key points per summary.
	maxKeyPoints = 5
)

// compactionTopics is the fixed vocabulary scanned for in summarized
// messages. Order determines scan order, not output order.
var compactionTopics = []string{"order", "billing", "refund", "invoice", "delivery", "cancel", "subscription"}

// CompactionResult reports what a compaction pass did.
type CompactionResult struct {
	Compacted       bool
	MessageCount    int
	SummarizedCount int
	KeptCount       int
	Summary         *model.CompactionSummary
}

// Compactor prunes old messages from long conversations, replacing them
// with a structured summary on the conversation record.
type Compactor struct {
	store  *store.Store
	logger *logger.Logger
}

// NewCompactor creates a compactor over the given store.
func NewCompactor(s *store.Store, log *logger.Logger) *Compactor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Compactor{store: s, logger: log}
}

// Compact summarizes and deletes all but the newest messages once a
// conversation exceeds the threshold. Below the threshold it is a no-op.
// The summary is written before the deletion, so a failure between the two
// leaves the messages intact with a stale summary rather than losing data.
func (c *Compactor) Compact(ctx context.Context, conversationID string) (CompactionResult, error) {
	messages, err := c.store.GetMessagesByConversation(ctx, conversationID)
	if err != nil {
		metrics.CompactionsTotal.WithLabelValues("error").Inc()
		return CompactionResult{}, fmt.Errorf("load messages: %w", err)
	}

	count := len(messages)
	if count <= compactionThreshold {
		return CompactionResult{Compacted: false, MessageCount: count, KeptCount: count}, nil
	}

	toSummarize := messages[:count-compactionKeepCount]
	summary := summarize(toSummarize)

	blob, err := json.Marshal(summary)
	if err != nil {
		metrics.CompactionsTotal.WithLabelValues("error").Inc()
		return CompactionResult{}, fmt.Errorf("encode summary: %w", err)
	}
	if err := c.store.UpdateConversationSummary(ctx, conversationID, string(blob)); err != nil {
		metrics.CompactionsTotal.WithLabelValues("error").Inc()
		return CompactionResult{}, fmt.Errorf("store summary: %w", err)
	}

	ids := make([]string, 0, len(toSummarize))
	for _, m := range toSummarize {
		ids = append(ids, m.ID)
	}
	if err := c.store.DeleteMessages(ctx, ids); err != nil {
		metrics.CompactionsTotal.WithLabelValues("error").Inc()
		return CompactionResult{}, fmt.Errorf("delete summarized messages: %w", err)
	}

	metrics.CompactionsTotal.WithLabelValues("ok").Inc()
	c.logger.WithConversation(conversationID).Info("conversation compacted")

	return CompactionResult{
		Compacted:       true,
		MessageCount:    count,
		SummarizedCount: len(toSummarize),
		KeptCount:       compactionKeepCount,
		Summary:         &summary,
	}, nil
}

// summarize builds the structured summary of the pruned prefix. Messages
// are assumed oldest first.
func summarize(messages []*store.Message) model.CompactionSummary {
	summary := model.CompactionSummary{
		TotalMessages: len(messages),
		DateRange: model.DateRange{
			Start: messages[0].CreatedAt,
			End:   messages[len(messages)-1].CreatedAt,
		},
		Topics:    []string{},
		KeyPoints: []string{},
	}

	seen := make(map[string]bool)
	for _, m := range messages {
		lower := strings.ToLower(m.Content)
		for _, topic := range compactionTopics {
			if !seen[topic] && strings.Contains(lower, topic) {
				seen[topic] = true
				summary.Topics = append(summary.Topics, topic)
			}
		}
	}

	for _, m := range messages {
		if len(summary.KeyPoints) >= maxKeyPoints {
			break
		}
		if m.Role != string(model.RoleUser) {
			continue
		}
		point := m.Content
		if len(point) > keyPointLimit {
			point = point[:keyPointLimit]
		}
		summary.KeyPoints = append(summary.KeyPoints, point)
	}

	return summary
}
