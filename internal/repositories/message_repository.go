package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"mystrymsg/internal/models"
)

// MessageRepository stores the messages owned by accounts. Append is a single
// INSERT, so concurrent writers to the same account never overwrite each other.
type MessageRepository interface {
	Append(ctx context.Context, m *models.Message) error
	ListByAccount(ctx context.Context, accountID string) ([]*models.Message, error)
	DeleteOwned(ctx context.Context, accountID, messageID string) error
}

type messageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{DB: db}
}

func (r *messageRepository) Append(ctx context.Context, m *models.Message) error {
	const q = `
		INSERT INTO messages (id, account_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.DB.ExecContext(ctx, q, m.ID, m.AccountID, m.Content, m.CreatedAt); err != nil {
		return fmt.Errorf("message append: %w", translate(err))
	}
	return nil
}

// ListByAccount returns the account's messages, newest first.
func (r *messageRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Message, error) {
	const q = `
		SELECT id, account_id, content, created_at
		FROM messages
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.DB.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, fmt.Errorf("message list: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Message, 0)
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("message scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteOwned removes the message only when it belongs to accountID.
func (r *messageRepository) DeleteOwned(ctx context.Context, accountID, messageID string) error {
	const q = `DELETE FROM messages WHERE id = $1 AND account_id = $2`
	res, err := r.DB.ExecContext(ctx, q, messageID, accountID)
	if err != nil {
		return fmt.Errorf("message delete: %w", err)
	}
	return expectOne(res)
}
