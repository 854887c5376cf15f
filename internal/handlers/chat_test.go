package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"parley-backend/internal/models"
)

func newChatHandler(t *testing.T) (*ChatHandler, *fakeChatRepo, *fakeMessageRepo) {
	t.Helper()
	provider := newProviderStub(t, http.StatusOK, providerHelloStream)
	chatRepo := newFakeChatRepo()
	msgRepo := newFakeMessageRepo()
	return NewChatHandler(chatRepo, msgRepo, provider.service(), nil), chatRepo, msgRepo
}

func TestCreateChat(t *testing.T) {
	h, chatRepo, _ := newChatHandler(t)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats", strings.NewReader(`{"model": "openai/gpt-4o"}`))
	req = withUser(req, userID)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rr.Code)
	}

	var chat models.Chat
	if err := json.Unmarshal(rr.Body.Bytes(), &chat); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if chat.ID == uuid.Nil {
		t.Error("Expected chat ID to be assigned")
	}
	if chat.Model != "openai/gpt-4o" {
		t.Errorf("Expected model openai/gpt-4o, got %q", chat.Model)
	}
	if _, err := chatRepo.GetByID(nil, chat.ID); err != nil {
		t.Errorf("Expected chat stored, got %v", err)
	}
}

func TestCreateChat_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid body", `not json`},
		{"missing model", `{}`},
		{"disallowed model", `{"model": "someone/other-model"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, chatRepo, _ := newChatHandler(t)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/chats", strings.NewReader(tc.body))
			req = withUser(req, uuid.New())
			rr := httptest.NewRecorder()
			h.Create(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rr.Code)
			}
			if len(chatRepo.chats) != 0 {
				t.Errorf("Expected no chat created, got %d", len(chatRepo.chats))
			}
		})
	}
}

func TestListChats(t *testing.T) {
	h, chatRepo, _ := newChatHandler(t)
	userID := uuid.New()
	otherID := uuid.New()

	chatRepo.Create(nil, &models.Chat{UserID: userID, Model: "openai/gpt-4o"})
	chatRepo.Create(nil, &models.Chat{UserID: userID, Model: "deepseek/deepseek-chat"})
	chatRepo.Create(nil, &models.Chat{UserID: otherID, Model: "openai/gpt-4o"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
	req = withUser(req, userID)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var chats []*models.Chat
	if err := json.Unmarshal(rr.Body.Bytes(), &chats); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(chats) != 2 {
		t.Errorf("Expected 2 chats, got %d", len(chats))
	}
}

func TestListChats_EmptyIsArray(t *testing.T) {
	h, _, _ := newChatHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
	req = withUser(req, uuid.New())
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("Expected empty array, got %q", got)
	}
}

func TestListMessages(t *testing.T) {
	h, chatRepo, msgRepo := newChatHandler(t)
	userID := uuid.New()

	chat := &models.Chat{UserID: userID, Model: "openai/gpt-4o"}
	chatRepo.Create(nil, chat)
	msgRepo.Insert(nil, chat.ID, models.RoleUser, json.RawMessage(`"hi"`))
	msgRepo.Insert(nil, chat.ID, models.RoleAssistant, json.RawMessage(`{"text": "hello"}`))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats/"+chat.ID.String()+"/messages", nil)
	req = withUser(req, userID)
	req = withURLParam(req, "id", chat.ID.String())
	rr := httptest.NewRecorder()
	h.ListMessages(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var messages []*models.Message
	if err := json.Unmarshal(rr.Body.Bytes(), &messages); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != models.RoleUser || messages[1].Role != models.RoleAssistant {
		t.Errorf("Expected user then assistant, got %s then %s", messages[0].Role, messages[1].Role)
	}
}

func TestListMessages_Ownership(t *testing.T) {
	h, chatRepo, _ := newChatHandler(t)
	owner := uuid.New()

	chat := &models.Chat{UserID: owner, Model: "openai/gpt-4o"}
	chatRepo.Create(nil, chat)

	tests := []struct {
		name     string
		chatID   string
		userID   uuid.UUID
		expected int
	}{
		{"invalid chat id", "not-a-uuid", owner, http.StatusBadRequest},
		{"unknown chat", uuid.NewString(), owner, http.StatusNotFound},
		{"other user's chat", chat.ID.String(), uuid.New(), http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/chats/"+tc.chatID+"/messages", nil)
			req = withUser(req, tc.userID)
			req = withURLParam(req, "id", tc.chatID)
			rr := httptest.NewRecorder()
			h.ListMessages(rr, req)

			if rr.Code != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, rr.Code)
			}
		})
	}
}

func TestDeleteChat(t *testing.T) {
	h, chatRepo, _ := newChatHandler(t)
	userID := uuid.New()

	chat := &models.Chat{UserID: userID, Model: "openai/gpt-4o"}
	chatRepo.Create(nil, chat)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chats/"+chat.ID.String(), nil)
	req = withUser(req, userID)
	req = withURLParam(req, "id", chat.ID.String())
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if len(chatRepo.deleted) != 1 || chatRepo.deleted[0] != chat.ID {
		t.Errorf("Expected chat %s deleted, got %v", chat.ID, chatRepo.deleted)
	}
}
