package postgres

import (
	"context"
	"fmt"

	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type messageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) ports.MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func (r *messageRepository) Track(ctx context.Context, message *domain.TrackedMessage) error {
	query := `INSERT INTO messages (id, handle, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, message.ID, message.Handle, message.CreatedAt); err != nil {
		return fmt.Errorf("failed to track message: %w", err)
	}
	return nil
}

func (r *messageRepository) List(ctx context.Context) ([]domain.TrackedMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, handle, created_at FROM messages ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.TrackedMessage
	for rows.Next() {
		var m domain.TrackedMessage
		if err := rows.Scan(&m.ID, &m.Handle, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}
