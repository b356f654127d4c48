// Package service implements conversation and message workflows on top of
// the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/store"
	"github.com/helpdesk-ai/support-router/pkg/logger"
	"github.com/helpdesk-ai/support-router/pkg/metrics"
)

// ErrValidation marks requests rejected on input grounds.
var ErrValidation = errors.New("validation failed")

// ErrNotFound marks requests naming records that do not exist.
var ErrNotFound = errors.New("not found")

// ChatService manages conversations and their messages.
type ChatService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewChatService creates a chat service.
func NewChatService(s *store.Store, log *logger.Logger) *ChatService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ChatService{store: s, logger: log}
}

// EnsureUser returns the user, creating a placeholder account on first
// sight. Unauthenticated deployments funnel everything through the mock
// user, which must exist before its first conversation.
func (s *ChatService) EnsureUser(ctx context.Context, userID string) (*store.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	user = &store.User{
		ID:    userID,
		Email: fmt.Sprintf("%s@example.com", userID),
		Name:  "Guest",
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("created user", zap.String("user_id", userID))
	return user, nil
}

// CreateConversation starts a new conversation for a user.
func (s *ChatService) CreateConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	if _, err := s.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	conv := &store.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	metrics.ConversationsTotal.Inc()
	s.logger.WithConversation(conv.ID).Info("conversation created", zap.String("user_id", userID))

	return toModelConversation(conv, nil), nil
}

// GetConversation returns a conversation by id.
func (s *ChatService) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return toModelConversation(conv, nil), nil
}

// ListConversations returns a user's conversations, most recently updated
// first, each carrying its latest message for preview rendering.
func (s *ChatService) ListConversations(ctx context.Context, userID string) (*model.ListConversationsResponse, error) {
	convs, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := make([]model.Conversation, 0, len(convs))
	for _, conv := range convs {
		messages, err := s.store.GetMessagesByConversation(ctx, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("load last message: %w", err)
		}
		var last *model.Message
		if len(messages) > 0 {
			last = toModelMessage(messages[len(messages)-1])
		}
		out = append(out, *toModelConversation(conv, last))
	}

	return &model.ListConversationsResponse{
		Conversations: out,
		Total:         len(out),
	}, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *ChatService) DeleteConversation(ctx context.Context, id string) error {
	if _, err := s.GetConversation(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	s.logger.WithConversation(id).Info("conversation deleted")
	return nil
}

// SaveMessage persists one message and bumps the conversation timestamp.
// Blank content is rejected; the conversation must exist.
func (s *ChatService) SaveMessage(ctx context.Context, conversationID string, role model.Role, content string, intent *string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content must not be empty", ErrValidation)
	}

	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	now := time.Now()
	msg := &store.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           string(role),
		Content:        content,
		Intent:         intent,
		CreatedAt:      now,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := s.store.TouchConversation(ctx, conversationID, now); err != nil {
		s.logger.WithConversation(conversationID).Warn("touch conversation failed", zap.Error(err))
	}

	metrics.MessagesTotal.WithLabelValues(string(role)).Inc()
	return toModelMessage(msg), nil
}

// History returns a conversation's messages, oldest first.
func (s *ChatService) History(ctx context.Context, conversationID string) ([]model.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.store.GetMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	out := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, *toModelMessage(m))
	}
	return out, nil
}

func toModelConversation(conv *store.Conversation, last *model.Message) *model.Conversation {
	return &model.Conversation{
		ID:          conv.ID,
		UserID:      conv.UserID,
		CreatedAt:   conv.CreatedAt,
		UpdatedAt:   conv.UpdatedAt,
		Summary:     conv.Summary,
		LastMessage: last,
	}
}

func toModelMessage(msg *store.Message) *model.Message {
	return &model.Message{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           model.Role(msg.Role),
		Content:        msg.Content,
		Intent:         msg.Intent,
		CreatedAt:      msg.CreatedAt,
	}
}
