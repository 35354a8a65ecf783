package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const documentColumns = `id, chat_id, filename, chunk_count, size_bytes, uploaded_at`

func scanDocument(row scanner) (*Document, error) {
	var d Document
	if err := row.Scan(&d.ID, &d.ChatID, &d.Filename, &d.ChunkCount, &d.SizeBytes, &d.UploadedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDocument records a completed ingestion. The id is usually assigned
// before ingestion so vectors can carry it.
func (s *SQLiteStore) CreateDocument(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.UploadedAt = now()
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.ChatID, d.Filename, d.ChunkCount, d.SizeBytes, d.UploadedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, chatID, documentID string) (*Document, error) {
	d, err := scanDocument(s.q.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND chat_id = ?`, documentID, chatID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, chatID string) ([]Document, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE chat_id = ? ORDER BY uploaded_at ASC, rowid ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return docs, nil
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, chatID, documentID string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND chat_id = ?`, documentID, chatID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res, ErrNotFound)
}

func (s *SQLiteStore) DeleteDocumentsByChat(ctx context.Context, chatID string) (int64, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM documents WHERE chat_id = ?`, chatID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
