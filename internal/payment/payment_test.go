package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referenceDigest = "fd4b90151cca8dd38276f859e3842b484ab5b2515cdf3abfcb10680f8831c7d1"

func TestSign_MatchesReferenceDigest(t *testing.T) {
	assert.Equal(t, referenceDigest, Sign("s3cret", "ord_abc", "pay_xyz"))
	assert.True(t, VerifySignature("s3cret", "ord_abc", "pay_xyz", referenceDigest))
}

func TestVerifySignature_SingleCharacterMutationsFail(t *testing.T) {
	mutate := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'x' {
			b[i] = 'y'
		} else {
			b[i] = 'x'
		}
		return string(b)
	}

	for i := range "ord_abc" {
		assert.False(t, VerifySignature("s3cret", mutate("ord_abc", i), "pay_xyz", referenceDigest), "order id index %d", i)
	}
	for i := range "pay_xyz" {
		assert.False(t, VerifySignature("s3cret", "ord_abc", mutate("pay_xyz", i), referenceDigest), "payment id index %d", i)
	}
	for i := range "s3cret" {
		assert.False(t, VerifySignature(mutate("s3cret", i), "ord_abc", "pay_xyz", referenceDigest), "secret index %d", i)
	}
	assert.False(t, VerifySignature("s3creT", "ord_abc", "pay_xyz", referenceDigest))
}

func TestVerifySignature_RequiresExactHex(t *testing.T) {
	upper := "FD4B90151CCA8DD38276F859E3842B484AB5B2515CDF3ABFCB10680F8831C7D1"
	assert.False(t, VerifySignature("s3cret", "ord_abc", "pay_xyz", upper))
	assert.False(t, VerifySignature("s3cret", "ord_abc", "pay_xyz", referenceDigest+" "))
	assert.False(t, VerifySignature("s3cret", "ord_abc", "pay_xyz", ""))
}

func TestReceipt(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "ord_3f2a9c1e_1700000000", Receipt("3f2a9c1e-aaaa-bbbb-cccc-dddddddddddd", at))
	assert.Equal(t, "ord_bob_1700000000", Receipt("bob", at))
	assert.LessOrEqual(t, len(Receipt("a-very-long-user-identifier", at)), 40)
}

func TestRazorpayClient_CreateOrder(t *testing.T) {
	var got OrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(Order{ID: "order_123", Amount: got.Amount, Currency: got.Currency, Receipt: got.Receipt, Status: "created"})
	}))
	defer srv.Close()

	c := NewRazorpayClient("rzp_key", "rzp_secret", srv.URL)
	order, err := c.CreateOrder(context.Background(), OrderRequest{
		Amount: 49900, Currency: "INR", Receipt: "ord_u1_1", Notes: map[string]string{"user_id": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_123", order.ID)
	assert.EqualValues(t, 49900, order.Amount)
	assert.Equal(t, "u1", got.Notes["user_id"])
}

func TestRazorpayClient_CreateOrderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	}))
	defer srv.Close()

	c := NewRazorpayClient("k", "s", srv.URL)
	_, err := c.CreateOrder(context.Background(), OrderRequest{Amount: 1, Currency: "INR"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Authentication failed", apiErr.Description)
}
