package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/store"
	"github.com/helpdesk-ai/support-router/pkg/logger"
)

func newService(t *testing.T) *ChatService {
	t.Helper()
	return NewChatService(store.New(store.NewMemoryDriver()), logger.NewNop())
}

func TestCreateConversationCreatesUserOnFirstSight(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, store.MockUserID)
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, store.MockUserID, conv.UserID)

	// Second conversation reuses the same user.
	_, err = svc.CreateConversation(ctx, store.MockUserID)
	require.NoError(t, err)
}

func TestGetConversationNotFound(t *testing.T) {
	svc := newService(t)

	_, err := svc.GetConversation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveMessageValidations(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "u1")
	require.NoError(t, err)

	_, err = svc.SaveMessage(ctx, conv.ID, model.RoleUser, "   ", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SaveMessage(ctx, "missing", model.RoleUser, "hello", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveMessageAndHistory(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "u1")
	require.NoError(t, err)

	_, err = svc.SaveMessage(ctx, conv.ID, model.RoleUser, "where is my order?", nil)
	require.NoError(t, err)

	intent := "ORDER"
	msg, err := svc.SaveMessage(ctx, conv.ID, model.RoleAssistant, "On its way.", &intent)
	require.NoError(t, err)
	require.NotNil(t, msg.Intent)
	assert.Equal(t, "ORDER", *msg.Intent)

	history, err := svc.History(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
}

func TestListConversationsCarriesLastMessage(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.SaveMessage(ctx, conv.ID, model.RoleUser, "first", nil)
	require.NoError(t, err)
	_, err = svc.SaveMessage(ctx, conv.ID, model.RoleAssistant, "second", nil)
	require.NoError(t, err)

	resp, err := svc.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	require.NotNil(t, resp.Conversations[0].LastMessage)
	assert.Equal(t, "second", resp.Conversations[0].LastMessage.Content)
}

func TestDeleteConversation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConversation(ctx, conv.ID))
	assert.ErrorIs(t, svc.DeleteConversation(ctx, conv.ID), ErrNotFound)
}
