package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/payment"
	"legaleagle.app/api/internal/store"
)

const testSecret = "rzp_test_secret"

type fakeGateway struct {
	requests []payment.OrderRequest
	err      error
}

func (g *fakeGateway) CreateOrder(_ context.Context, in payment.OrderRequest) (*payment.Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, in)
	return &payment.Order{ID: "order_" + in.Receipt, Amount: in.Amount, Currency: in.Currency, Status: "created"}, nil
}

func newPaymentEnv(t *testing.T) (*testEnv, *PaymentService, *fakeGateway) {
	t.Helper()
	env := newTestEnv(t)
	gw := &fakeGateway{}
	svc := NewPaymentService(env.db, gw, PaymentConfig{KeyID: "rzp_test_key", Secret: testSecret, Price: 49900}, logging.Discard())
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return env, svc, gw
}

func TestPaymentService_CreateOrder(t *testing.T) {
	env, svc, gw := newPaymentEnv(t)
	ctx := context.Background()

	res, err := svc.CreateOrder(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(49900), res.Amount)
	assert.Equal(t, "INR", res.Currency)
	assert.Equal(t, "rzp_test_key", res.KeyID)
	assert.Equal(t, "created", res.Status)

	require.Len(t, gw.requests, 1)
	assert.Equal(t, "ord_alice_1700000000", gw.requests[0].Receipt)
	assert.Equal(t, "LegalEagle Premium", gw.requests[0].Notes["product"])
	assert.Equal(t, "alice", gw.requests[0].Notes["user_id"])

	p, err := env.db.GetPaymentByOrderID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentCreated, p.Status)
	assert.Equal(t, "alice", p.UserID)
}

func TestPaymentService_CreateOrderGatewayError(t *testing.T) {
	env, svc, gw := newPaymentEnv(t)
	gw.err = errors.New("gateway down")

	_, err := svc.CreateOrder(context.Background(), "alice")
	require.Error(t, err)

	history, err := env.db.ListPayments(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPaymentService_VerifyUpgradesUser(t *testing.T) {
	env, svc, _ := newPaymentEnv(t)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, "alice")
	require.NoError(t, err)

	u, err := svc.Verify(ctx, VerifyInput{
		OrderID:   order.OrderID,
		PaymentID: "pay_123",
		Signature: payment.Sign(testSecret, order.OrderID, "pay_123"),
		UserID:    "alice",
	})
	require.NoError(t, err)
	assert.True(t, u.IsPremium)
	assert.True(t, u.RemainingQueries.IsUnlimited())
	assert.Equal(t, 1, u.TotalPayments)

	p, err := env.db.GetPaymentByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentSuccess, p.Status)
	assert.Equal(t, "pay_123", p.PaymentID)

	d, err := env.chats.UserStatus(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, d.IsPremium)

	_, err = svc.Verify(ctx, VerifyInput{
		OrderID:   order.OrderID,
		PaymentID: "pay_123",
		Signature: payment.Sign(testSecret, order.OrderID, "pay_123"),
		UserID:    "alice",
	})
	assert.ErrorIs(t, err, ErrPaymentAlreadyProcessed)
}

func TestPaymentService_VerifyBadSignatureLeavesUserFree(t *testing.T) {
	env, svc, _ := newPaymentEnv(t)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, "alice")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, VerifyInput{
		OrderID:   order.OrderID,
		PaymentID: "pay_123",
		Signature: payment.Sign("wrong", order.OrderID, "pay_123"),
		UserID:    "alice",
	})
	assert.ErrorIs(t, err, ErrInvalidSignature)

	u, err := env.db.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, u.IsPremium)
	assert.Zero(t, u.TotalPayments)

	p, err := env.db.GetPaymentByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentFailed, p.Status)
	assert.Equal(t, "Invalid signature", p.ErrorDetail)
}

func TestPaymentService_VerifyRejectsUnknownOrForeignOrders(t *testing.T) {
	env, svc, _ := newPaymentEnv(t)
	ctx := context.Background()

	_, err := svc.Verify(ctx, VerifyInput{OrderID: "order_missing", UserID: "alice"})
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	order, err := svc.CreateOrder(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, VerifyInput{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: payment.Sign(testSecret, order.OrderID, "pay_1"),
		UserID:    "mallory",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	p, err := env.db.GetPaymentByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentCreated, p.Status)
}

func TestPaymentService_History(t *testing.T) {
	_, svc, _ := newPaymentEnv(t)
	ctx := context.Background()
	_, err := svc.CreateOrder(ctx, "alice")
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Unix(1700000100, 0) }
	_, err = svc.CreateOrder(ctx, "alice")
	require.NoError(t, err)

	history, err := svc.History(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
