package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const paymentColumns = `id, user_id, order_id, payment_id, signature, amount, currency, status, error_detail, created_at, updated_at`

func scanPayment(row scanner) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.UserID, &p.OrderID, &p.PaymentID, &p.Signature, &p.Amount, &p.Currency,
		&p.Status, &p.ErrorDetail, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment stores a new order in the created state.
func (s *SQLiteStore) CreatePayment(ctx context.Context, p *Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = PaymentCreated
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.OrderID, p.PaymentID, p.Signature, p.Amount, p.Currency,
		p.Status, p.ErrorDetail, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPaymentByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	p, err := scanPayment(s.q.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = ?`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// MarkPaymentSuccess moves a created payment to success. It returns
// ErrStateConflict when the order was already settled.
func (s *SQLiteStore) MarkPaymentSuccess(ctx context.Context, orderID, paymentID, signature string) error {
	return s.settlePayment(ctx, orderID, paymentID, signature, PaymentSuccess, "")
}

// MarkPaymentFailed moves a created payment to failed with a reason.
func (s *SQLiteStore) MarkPaymentFailed(ctx context.Context, orderID, paymentID, signature, reason string) error {
	return s.settlePayment(ctx, orderID, paymentID, signature, PaymentFailed, reason)
}

func (s *SQLiteStore) settlePayment(ctx context.Context, orderID, paymentID, signature string, status PaymentStatus, reason string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE payments SET payment_id = ?, signature = ?, status = ?, error_detail = ?, updated_at = ?
		WHERE order_id = ? AND status = ?`,
		paymentID, signature, status, reason, now(), orderID, PaymentCreated)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res, ErrStateConflict)
}

// ListPayments returns the user's payments, newest first.
func (s *SQLiteStore) ListPayments(ctx context.Context, userID string) ([]Payment, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return payments, nil
}
