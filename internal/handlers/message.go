package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"parley-backend/internal/middleware"
	"parley-backend/internal/models"
	"parley-backend/internal/services"
	"parley-backend/internal/stream"
)

type MessageHandler struct {
	chatRepo    chatRepository
	messageRepo messageRepository
	openRouter  *services.OpenRouterService
}

func NewMessageHandler(chatRepo chatRepository, messageRepo messageRepository, openRouter *services.OpenRouterService) *MessageHandler {
	return &MessageHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		openRouter:  openRouter,
	}
}

// Send streams the assistant's reply to the client as plain text while the
// relay accumulates it for persistence. Validation happens before any store
// or upstream call; once streaming has begun the contract is "deliver what
// was generated, persist best-effort".
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.ChatID == "" || req.Model == "" || emptyContent(req.Message) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "chatId, message and model are required", r))
		return
	}

	chatID, err := uuid.Parse(req.ChatID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chat ID", r))
		return
	}

	if !h.openRouter.ModelAllowed(req.Model) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Model is not available", r))
		return
	}

	chat, err := h.chatRepo.GetByID(r.Context(), chatID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
		return
	}
	if chat.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	prior, err := h.messageRepo.ListByChat(r.Context(), chatID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch messages", r))
		return
	}

	providerMsgs := services.FormatMessages(prior)
	providerMsgs = append(providerMsgs, models.ProviderMessage{
		Role:    models.RoleUser,
		Content: services.FormatMessageContent(req.Message),
	})

	// The user message is stored before the upstream call; a failure here is
	// logged but does not block the turn.
	if _, err := h.messageRepo.Insert(r.Context(), chatID, models.RoleUser, req.Message); err != nil {
		log.Printf("Failed to save user message for chat %s: %v", chatID, err)
	}

	upstream, err := h.openRouter.StreamCompletion(r.Context(), req.Model, providerMsgs)
	if err != nil {
		log.Printf("Upstream completion request failed for chat %s: %v", chatID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("UPSTREAM_ERROR", "Failed to reach the model provider", r))
		return
	}
	defer upstream.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	res := stream.Relay(r.Context(), w, stream.Fragments(upstream), func(ctx context.Context, text string) error {
		content, err := json.Marshal(models.MessageContent{Text: text})
		if err != nil {
			return err
		}
		_, err = h.messageRepo.Insert(ctx, chatID, models.RoleAssistant, content)
		return err
	})

	switch res.State {
	case stream.StateFailed:
		log.Printf("Relay failed for chat %s after %d bytes: %v", chatID, len(res.Text), res.StreamErr)
		// Headers are committed; abort the connection so the client sees an
		// abnormal end instead of a clean close.
		panic(http.ErrAbortHandler)
	case stream.StateCancelled:
		log.Printf("Relay cancelled for chat %s after %d bytes", chatID, len(res.Text))
	case stream.StateCompleted:
		if res.PersistErr != nil {
			log.Printf("Failed to persist assistant reply for chat %s: %v", chatID, res.PersistErr)
		}
	}
}

// emptyContent reports whether the raw message field is absent or JSON null.
func emptyContent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}
