package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/helpdesk-ai/support-router/internal/agent"
	"github.com/helpdesk-ai/support-router/internal/middleware"
	"github.com/helpdesk-ai/support-router/internal/model"
	"github.com/helpdesk-ai/support-router/internal/service"
	"github.com/helpdesk-ai/support-router/pkg/logger"
	"github.com/helpdesk-ai/support-router/pkg/metrics"
)

// ChatHandler handles the streaming chat endpoint.
type ChatHandler struct {
	service *service.ChatService
	router  *agent.Router
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, router *agent.Router, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		router:  router,
		logger:  log,
	}
}

// Chat handles POST /api/v1/chat. The request carries the conversation id
// and message history; the response is an SSE stream of token events
// followed by a message_complete event. The routed intent is exposed on
// the X-Intent response header before the first token.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	messages := make([]model.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, m.Normalize())
	}
	userText := messages[len(messages)-1].Content
	if err := middleware.ValidateMessageContent(userText); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log := h.logger.WithConversation(req.ConversationID)

	// Persist the user turn first; this also rejects unknown conversations
	// before any model call.
	if _, err := h.service.SaveMessage(ctx, req.ConversationID, model.RoleUser, userText, nil); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, "conversation not found")
		case errors.Is(err, service.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error("failed to save user message", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save message")
		}
		return
	}

	run, err := h.router.Route(ctx, req.ConversationID, messages)
	if err != nil {
		if errors.Is(err, agent.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("routing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "routing failed")
		return
	}

	intent := string(run.Intent())

	// Headers must go out before the first event.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Intent", intent)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	run.OnStatus = func(eventType model.EventType, metadata map[string]any) {
		payload := map[string]any{"type": eventType}
		for k, v := range metadata {
			payload[k] = v
		}
		sendSSEEvent(w, flusher, "status", payload)
	}

	err = run.Stream(ctx,
		func(token string, index int) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			sendSSEEvent(w, flusher, "token", &model.TokenEvent{Token: token, Index: index})
			return nil
		},
		func(ctx context.Context, finalText string) error {
			msg, err := h.service.SaveMessage(ctx, req.ConversationID, model.RoleAssistant, finalText, &intent)
			if err != nil {
				return err
			}
			sendSSEEvent(w, flusher, "message_complete", &model.MessageCompleteEvent{
				Message: *msg,
				Intent:  intent,
			})
			return nil
		},
	)
	if err != nil {
		log.Error("streaming failed", zap.Error(err))
		sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    "stream_error",
			Message: "Failed to generate response",
		})
		return
	}

	sendSSEEvent(w, flusher, "done", map[string]bool{"done": true})
}
