package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const chatColumns = `id, user_id, title, prompt_template, is_active, created_at, updated_at`

func scanChat(row scanner) (*Chat, error) {
	var c Chat
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.PromptTemplate, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateChat assigns an id and timestamps and inserts the chat as active.
func (s *SQLiteStore) CreateChat(ctx context.Context, c *Chat) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Title == "" {
		c.Title = DefaultChatTitle
	}
	c.IsActive = true
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO chats (`+chatColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Title, c.PromptTemplate, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	c, err := scanChat(s.q.QueryRowContext(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = ?`, chatID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// ListChats returns the user's active chats, most recently updated first.
func (s *SQLiteStore) ListChats(ctx context.Context, userID string, limit int) ([]Chat, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE user_id = ? AND is_active = 1
		ORDER BY updated_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	chats := []Chat{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		chats = append(chats, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return chats, nil
}

// UpdateChat applies the non-nil fields and returns the updated chat.
func (s *SQLiteStore) UpdateChat(ctx context.Context, chatID string, u ChatUpdate) (*Chat, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE chats SET title = COALESCE(?, title), prompt_template = COALESCE(?, prompt_template), updated_at = ?
		WHERE id = ?`, u.Title, u.PromptTemplate, now(), chatID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := affectedOne(res, ErrNotFound); err != nil {
		return nil, err
	}
	return s.GetChat(ctx, chatID)
}

// TouchChat bumps updated_at so the chat sorts first in listings.
func (s *SQLiteStore) TouchChat(ctx context.Context, chatID string) error {
	res, err := s.q.ExecContext(ctx, `UPDATE chats SET updated_at = ? WHERE id = ?`, now(), chatID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res, ErrNotFound)
}

func (s *SQLiteStore) DeleteChat(ctx context.Context, chatID string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res, ErrNotFound)
}
