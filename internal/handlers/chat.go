package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"parley-backend/internal/middleware"
	"parley-backend/internal/models"
	"parley-backend/internal/services"
)

const titleQueue = "queue:title-generation"

type chatRepository interface {
	Create(ctx context.Context, c *models.Chat) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Chat, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type messageRepository interface {
	Insert(ctx context.Context, chatID uuid.UUID, role string, content json.RawMessage) (*models.Message, error)
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]*models.Message, error)
}

type ChatHandler struct {
	chatRepo    chatRepository
	messageRepo messageRepository
	openRouter  *services.OpenRouterService
	redis       *redis.Client
}

func NewChatHandler(chatRepo chatRepository, messageRepo messageRepository, openRouter *services.OpenRouterService, redisClient *redis.Client) *ChatHandler {
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		openRouter:  openRouter,
		redis:       redisClient,
	}
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Model == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Model is required", r))
		return
	}
	if !h.openRouter.ModelAllowed(req.Model) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Model is not available", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	chat := &models.Chat{
		UserID: userID,
		Model:  req.Model,
	}

	if err := h.chatRepo.Create(r.Context(), chat); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create chat", r))
		return
	}

	// Title generation runs asynchronously; the sidebar picks the result up
	// over the websocket.
	if req.FirstMessage != "" {
		if h.redis == nil {
			log.Println("CRITICAL: redis is nil in Create, cannot enqueue title job")
		} else {
			job := models.TitleJob{ChatID: chat.ID, UserID: userID, Message: req.FirstMessage}
			jobBytes, _ := json.Marshal(job)
			if err := h.redis.LPush(r.Context(), titleQueue, string(jobBytes)).Err(); err != nil {
				log.Printf("Failed to enqueue title job for chat %s: %v", chat.ID, err)
			}
		}
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	chats, err := h.chatRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch chats", r))
		return
	}
	if chats == nil {
		chats = []*models.Chat{}
	}

	writeJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chat, ok := h.ownedChat(w, r)
	if !ok {
		return
	}

	messages, err := h.messageRepo.ListByChat(r.Context(), chat.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch messages", r))
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chat, ok := h.ownedChat(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.chatRepo.Delete(r.Context(), chat.ID, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete chat", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted"})
}

// ownedChat loads the chat from the URL and verifies the requester owns it.
func (h *ChatHandler) ownedChat(w http.ResponseWriter, r *http.Request) (*models.Chat, bool) {
	chatID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chat ID", r))
		return nil, false
	}

	chat, err := h.chatRepo.GetByID(r.Context(), chatID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
		return nil, false
	}

	if chat.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}

	return chat, true
}
