package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const messageColumns = `id, chat_id, role, content, sources, metadata, created_at`

func scanMessage(row scanner) (*Message, error) {
	var (
		m                 Message
		sources, metadata string
	)
	if err := row.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &sources, &metadata, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sources), &m.Sources); err != nil {
		return nil, fmt.Errorf("decode sources of message %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(metadata), &m.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata of message %s: %w", m.ID, err)
	}
	if m.Sources == nil {
		m.Sources = []int{}
	}
	if len(m.Metadata) == 0 {
		m.Metadata = nil
	}
	return &m, nil
}

func (s *SQLiteStore) CreateMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Sources == nil {
		m.Sources = []int{}
	}
	m.CreatedAt = now()

	sources, err := json.Marshal(m.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	metadata := []byte("{}")
	if len(m.Metadata) > 0 {
		if metadata, err = json.Marshal(m.Metadata); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ChatID, m.Role, m.Content, string(sources), string(metadata), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListMessages returns up to limit messages of the chat in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	return s.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id = ? ORDER BY created_at ASC, rowid ASC LIMIT ?`,
		chatID, limit)
}

// RecentMessages returns the last n messages of the chat, oldest first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, chatID string, n int) ([]Message, error) {
	msgs, err := s.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		chatID, n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msgs, nil
}

func (s *SQLiteStore) DeleteMessagesByChat(ctx context.Context, chatID string) (int64, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
