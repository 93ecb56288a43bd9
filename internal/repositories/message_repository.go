package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"community-chat-service/internal/models"
)

var ErrDuplicateMessage = errors.New("message id already exists")

// MessageRepository is the durable append-only chat log.
type MessageRepository interface {
	Insert(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error)
	RecentHistory(ctx context.Context, limit int) ([]models.ChatMessage, error)
	Delete(ctx context.Context, messageID string) error
	ClearAll(ctx context.Context) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert appends a message to the log. The returned copy carries the
// store-assigned sequence number.
func (r *MessageRepo) Insert(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (id, sender_id, sender_name, sender_role, body, image_url, kind, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO NOTHING
        RETURNING seq`,
		msg.ID, msg.SenderID, msg.SenderName, msg.SenderRole, msg.Body, msg.ImageURL, msg.Kind, msg.CreatedAt).
		Scan(&msg.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMessage{}, ErrDuplicateMessage
	}
	if err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// RecentHistory returns up to limit messages, oldest first within the window.
func (r *MessageRepo) RecentHistory(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	query := `SELECT id, seq, sender_id, sender_name, sender_role, body, image_url, kind, created_at
        FROM (
            SELECT id, seq, sender_id, sender_name, sender_role, body, image_url, kind, created_at
            FROM messages
            ORDER BY created_at DESC, seq DESC
            LIMIT $1
        ) recent
        ORDER BY created_at ASC, seq ASC`
	msgs := []models.ChatMessage{}
	err := r.db.SelectContext(ctx, &msgs, query, limit)
	return msgs, err
}

// Delete removes a single message. Deleting an unknown id is a no-op success.
func (r *MessageRepo) Delete(ctx context.Context, messageID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	return err
}

// ClearAll wipes the entire log.
func (r *MessageRepo) ClearAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages`)
	return err
}
