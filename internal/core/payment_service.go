package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/payment"
	"legaleagle.app/api/internal/store"
)

const invalidSignatureReason = "Invalid signature"

// OrderGateway creates orders with the payment provider.
type OrderGateway interface {
	CreateOrder(ctx context.Context, in payment.OrderRequest) (*payment.Order, error)
}

type PaymentConfig struct {
	KeyID    string
	Secret   string
	Price    int64 // smallest currency unit
	Currency string
	Product  string
}

type PaymentService struct {
	store   *store.SQLiteStore
	gateway OrderGateway
	cfg     PaymentConfig
	log     logging.Logger
	now     func() time.Time
}

func NewPaymentService(db *store.SQLiteStore, gw OrderGateway, cfg PaymentConfig, log logging.Logger) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.Product == "" {
		cfg.Product = "LegalEagle Premium"
	}
	return &PaymentService{store: db, gateway: gw, cfg: cfg, log: log, now: time.Now}
}

type OrderResult struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
	Status   string `json:"status"`
}

func (s *PaymentService) CreateOrder(ctx context.Context, userID string) (*OrderResult, error) {
	if _, err := s.store.GetOrCreateUser(ctx, userID); err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   s.cfg.Price,
		Currency: s.cfg.Currency,
		Receipt:  payment.Receipt(userID, s.now()),
		Notes:    map[string]string{"user_id": userID, "product": s.cfg.Product},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	p := &store.Payment{UserID: userID, OrderID: order.ID, Amount: s.cfg.Price, Currency: s.cfg.Currency}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "payment order created", "user_id", userID, "order_id", order.ID)

	return &OrderResult{
		OrderID:  order.ID,
		Amount:   s.cfg.Price,
		Currency: s.cfg.Currency,
		KeyID:    s.cfg.KeyID,
		Status:   string(store.PaymentCreated),
	}, nil
}

type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
	UserID    string
}

// Verify checks the checkout signature. A mismatch fails the payment and
// leaves the user untouched; a match settles the payment and upgrades the
// user in one transaction.
func (s *PaymentService) Verify(ctx context.Context, in VerifyInput) (*store.User, error) {
	p, err := s.store.GetPaymentByOrderID(ctx, in.OrderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.UserID != in.UserID {
		return nil, invalid("user_id", "Order does not belong to this user")
	}
	if p.Status != store.PaymentCreated {
		return nil, ErrPaymentAlreadyProcessed
	}

	if !payment.VerifySignature(s.cfg.Secret, in.OrderID, in.PaymentID, in.Signature) {
		if err := s.store.MarkPaymentFailed(ctx, in.OrderID, in.PaymentID, in.Signature, invalidSignatureReason); err != nil {
			s.log.Error(ctx, "failed to mark payment failed", "order_id", in.OrderID, "error", err)
		}
		s.log.Warn(ctx, "payment signature mismatch", "order_id", in.OrderID, "user_id", in.UserID)
		return nil, ErrInvalidSignature
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx *store.SQLiteStore) error {
		if err := tx.MarkPaymentSuccess(ctx, in.OrderID, in.PaymentID, in.Signature); err != nil {
			if errors.Is(err, store.ErrStateConflict) {
				return ErrPaymentAlreadyProcessed
			}
			return err
		}
		if _, err := tx.GetOrCreateUser(ctx, p.UserID); err != nil {
			return err
		}
		return tx.UpgradeToPremium(ctx, p.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user upgraded to premium", "user_id", p.UserID, "order_id", in.OrderID)
	return s.store.GetUser(ctx, p.UserID)
}

func (s *PaymentService) History(ctx context.Context, userID string) ([]store.Payment, error) {
	return s.store.ListPayments(ctx, userID)
}
