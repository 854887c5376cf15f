package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"parley-backend/internal/models"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Insert appends a message to a chat. Timestamps are assigned server-side so
// interleaved inserts from separate requests stay totally ordered.
func (r *MessageRepo) Insert(ctx context.Context, chatID uuid.UUID, role string, content json.RawMessage) (*models.Message, error) {
	m := &models.Message{
		ID:      uuid.New(),
		ChatID:  chatID,
		Role:    role,
		Content: content,
	}

	query := `INSERT INTO messages (id, chat_id, role, content)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, m.ID, m.ChatID, m.Role, m.Content).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByChat returns the chat's messages oldest first. The secondary sort on
// id keeps the order stable when two rows share a timestamp.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]*models.Message, error) {
	query := `SELECT id, chat_id, role, content, created_at
		FROM messages WHERE chat_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
