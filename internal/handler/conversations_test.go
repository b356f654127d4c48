package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/service"
	"github.com/helpdesk-ai/support-router/internal/store"
	"github.com/helpdesk-ai/support-router/pkg/logger"
)

func newConversationRouter(t *testing.T) (chi.Router, *service.ChatService) {
	t.Helper()
	svc := service.NewChatService(store.New(store.NewMemoryDriver()), logger.NewNop())
	h := NewConversationHandler(svc, logger.NewNop())

	r := chi.NewRouter()
	r.Post("/conversations", h.Create)
	r.Get("/conversations", h.List)
	r.Get("/conversations/{id}", h.Get)
	r.Delete("/conversations/{id}", h.Delete)
	r.Get("/conversations/{id}/messages", h.Messages)
	r.Get("/agents", NewAgentsHandler().List)
	return r, svc
}

func TestConversationLifecycle(t *testing.T) {
	r, svc := newConversationRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var conv model.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	require.NotEmpty(t, conv.ID)

	_, err := svc.SaveMessage(context.Background(), conv.ID, model.RoleUser, "hello", nil)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+conv.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+conv.ID+"/messages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Messages []model.Message `json:"messages"`
		Total    int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Equal(t, 1, history.Total)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/conversations/"+conv.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+conv.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationInvalidID(t *testing.T) {
	r, _ := newConversationRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgentsListing(t *testing.T) {
	r, _ := newConversationRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agents", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Agents []struct {
			Type  string   `json:"type"`
			Tools []string `json:"tools"`
		} `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Agents, 3)
	assert.Equal(t, "ORDER", resp.Agents[0].Type)
	assert.NotEmpty(t, resp.Agents[0].Tools)
}
