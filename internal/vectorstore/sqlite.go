package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"legaleagle.app/api/internal/dbx"
	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/utils"
)

// SQLiteStore keeps embeddings as JSON next to the chat store and ranks them
// in process. Suitable for a single node with modest document counts.
type SQLiteStore struct {
	db  *sql.DB
	log logging.Logger
}

func NewSQLiteStore(ctx context.Context, db *sql.DB, log logging.Logger) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, log: log}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize vector schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
    CREATE TABLE IF NOT EXISTS vectors (
        namespace TEXT NOT NULL,
        document_id TEXT NOT NULL,
        chunk_index INTEGER NOT NULL,
        content TEXT NOT NULL,
        source TEXT NOT NULL,
        page INTEGER NOT NULL,
        embedding_json TEXT NOT NULL,
        PRIMARY KEY (namespace, document_id, chunk_index)
    );
    `
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) Upsert(ctx context.Context, namespace string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, r := range records {
			embedding, err := json.Marshal(r.Vector)
			if err != nil {
				return fmt.Errorf("encode embedding: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO vectors (namespace, document_id, chunk_index, content, source, page, embedding_json)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				namespace, r.DocumentID, r.Index, r.Content, r.Source, r.Page, string(embedding))
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Query(ctx context.Context, namespace string, vector []float32, k int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, chunk_index, content, source, page, embedding_json FROM vectors WHERE namespace = ?`,
		namespace)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var matches []Match
	seen := 0
	for rows.Next() {
		var (
			m         Match
			embedding string
		)
		if err := rows.Scan(&m.DocumentID, &m.Index, &m.Content, &m.Source, &m.Page, &embedding); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		seen++

		var stored []float32
		if err := json.Unmarshal([]byte(embedding), &stored); err != nil {
			s.log.Warn(ctx, "skipping vector with unreadable embedding",
				"namespace", namespace, "document_id", m.DocumentID, "chunk", m.Index, "error", err)
			continue
		}
		score, err := utils.CosineSimilarity(vector, stored)
		if errors.Is(err, utils.ErrDimensionMismatch) {
			return nil, fmt.Errorf("query vector has %d dimensions, stored vectors have %d: %w",
				len(vector), len(stored), err)
		}
		if err != nil {
			return nil, err
		}
		m.Score = score
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if seen == 0 {
		return nil, ErrNamespaceEmpty
	}
	return topK(matches, k), nil
}

func (s *SQLiteStore) Delete(ctx context.Context, namespace string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM vectors WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, namespace, documentID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM vectors WHERE namespace = ? AND document_id = ?`, namespace, documentID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context, namespace string) (Stats, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors WHERE namespace = ?`, namespace).Scan(&n)
	if err != nil {
		return Stats{}, fmt.Errorf("db error: %w", err)
	}
	return Stats{Exists: n > 0, VectorCount: n}, nil
}

func (s *SQLiteStore) Namespaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT namespace FROM vectors ORDER BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}
