package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Chat struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Model     string    `json:"model"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message content is stored as JSON and may be either a bare string or a
// MessageContent object; it is never mutated after insertion.
type Message struct {
	ID        uuid.UUID       `json:"id"`
	ChatID    uuid.UUID       `json:"chat_id"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

type MessageContent struct {
	Text  string           `json:"text,omitempty"`
	Files []FileAttachment `json:"files,omitempty"`
}

type FileAttachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

type SendMessageRequest struct {
	ChatID  string          `json:"chatId"`
	Message json.RawMessage `json:"message"`
	Model   string          `json:"model"`
}

type CreateChatRequest struct {
	Model        string `json:"model"`
	FirstMessage string `json:"first_message"`
}

// TitleJob is the payload queued for asynchronous chat title generation.
type TitleJob struct {
	ChatID  uuid.UUID `json:"chat_id"`
	UserID  uuid.UUID `json:"user_id"`
	Message string    `json:"message"`
}

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ChatUpdate struct {
	ChatID uuid.UUID `json:"chat_id"`
	Title  string    `json:"title"`
}
