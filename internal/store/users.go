package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"legaleagle.app/api/internal/entitlement"
)

const userColumns = `user_id, is_premium, chat_count, document_count, query_count,
	remaining_queries, total_payments, created_at, updated_at`

func scanUser(row scanner) (*User, error) {
	var (
		u         User
		remaining sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.IsPremium, &u.ChatCount, &u.DocumentCount, &u.QueryCount,
		&remaining, &u.TotalPayments, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if remaining.Valid {
		u.RemainingQueries = entitlement.Limited(int(remaining.Int64))
	} else {
		u.RemainingQueries = entitlement.Unlimited()
	}
	return &u, nil
}

// GetOrCreateUser returns the user, creating a free-tier record on first
// reference.
func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, userID string) (*User, error) {
	ts := now()
	_, err := s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (user_id, remaining_queries, created_at, updated_at) VALUES (?, 0, ?, ?)`,
		userID, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s.GetUser(ctx, userID)
}

func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Usage implements entitlement.Counters.
func (s *SQLiteStore) Usage(ctx context.Context, userID string) (entitlement.Usage, error) {
	u, err := s.GetOrCreateUser(ctx, userID)
	if err != nil {
		return entitlement.Usage{}, err
	}
	return u.Usage(), nil
}

func (s *SQLiteStore) IncrementChatCount(ctx context.Context, userID string) error {
	return s.increment(ctx, userID, "chat_count")
}

func (s *SQLiteStore) IncrementDocumentCount(ctx context.Context, userID string) error {
	return s.increment(ctx, userID, "document_count")
}

func (s *SQLiteStore) IncrementQueryCount(ctx context.Context, userID string) error {
	return s.increment(ctx, userID, "query_count")
}

// increment is a single upsert so that concurrent increments never lose a
// count. column is always one of the constants above.
func (s *SQLiteStore) increment(ctx context.Context, userID, column string) error {
	ts := now()
	q := fmt.Sprintf(`INSERT INTO users (user_id, %[1]s, remaining_queries, created_at, updated_at)
		VALUES (?, 1, 0, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET %[1]s = %[1]s + 1, updated_at = excluded.updated_at`, column)
	if _, err := s.q.ExecContext(ctx, q, userID, ts, ts); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpgradeToPremium flips the user to the premium tier with unlimited
// queries and counts the payment.
func (s *SQLiteStore) UpgradeToPremium(ctx context.Context, userID string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE users SET is_premium = 1, remaining_queries = NULL, total_payments = total_payments + 1, updated_at = ?
		WHERE user_id = ?`, now(), userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res, ErrNotFound)
}
