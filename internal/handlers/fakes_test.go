package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"parley-backend/internal/middleware"
	"parley-backend/internal/models"
)

var errNotFound = errors.New("no rows in result set")

type fakeChatRepo struct {
	chats     map[uuid.UUID]*models.Chat
	createErr error
	deleted   []uuid.UUID
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[uuid.UUID]*models.Chat)}
}

func (f *fakeChatRepo) Create(_ context.Context, c *models.Chat) error {
	if f.createErr != nil {
		return f.createErr
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	f.chats[c.ID] = c
	return nil
}

func (f *fakeChatRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Chat, error) {
	c, ok := f.chats[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (f *fakeChatRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Chat, error) {
	var out []*models.Chat
	for _, c := range f.chats {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) Delete(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	if c, ok := f.chats[id]; ok && c.UserID == userID {
		delete(f.chats, id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

type insertCall struct {
	ChatID  uuid.UUID
	Role    string
	Content json.RawMessage
}

type fakeMessageRepo struct {
	messages  map[uuid.UUID][]*models.Message
	inserts   []insertCall
	listCalls int
	insertErr error
	listErr   error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID][]*models.Message)}
}

func (f *fakeMessageRepo) Insert(_ context.Context, chatID uuid.UUID, role string, content json.RawMessage) (*models.Message, error) {
	f.inserts = append(f.inserts, insertCall{ChatID: chatID, Role: role, Content: content})
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	m := &models.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.messages[chatID] = append(f.messages[chatID], m)
	return m, nil
}

func (f *fakeMessageRepo) ListByChat(_ context.Context, chatID uuid.UUID) ([]*models.Message, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.messages[chatID], nil
}

func (f *fakeMessageRepo) insertsByRole(role string) []insertCall {
	var out []insertCall
	for _, c := range f.inserts {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

// withUser attaches an authenticated user to the request context.
func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))
}

// withURLParam attaches a chi URL parameter to the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
