package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "rzp_test_secret"

func TestSignKnownVector(t *testing.T) {
	// hex(HMAC-SHA256("rzp_test_secret", "order_A|pay_B"))
	const want = "8d4d6ad84bfd9d89f43e7c89ae7e35d4aa3b4c2c994d0d7cd5048ab073624184"

	assert.Equal(t, want, Sign(testSecret, "order_A", "pay_B"))
	assert.True(t, VerifySignature(testSecret, "order_A", "pay_B", want))
}

func TestVerifySignature(t *testing.T) {
	sig := Sign(testSecret, "order_A", "pay_B")

	assert.True(t, VerifySignature(testSecret, "order_A", "pay_B", sig))
	assert.Len(t, sig, 64)

	tests := []struct {
		name               string
		orderID, paymentID string
		signature          string
		secret             string
	}{
		{"different order", "order_X", "pay_B", sig, testSecret},
		{"different payment", "order_A", "pay_X", sig, testSecret},
		{"different secret", "order_A", "pay_B", sig, "other"},
		{"truncated signature", "order_A", "pay_B", sig[:63], testSecret},
		{"flipped character", "order_A", "pay_B", flip(sig), testSecret},
		{"empty signature", "order_A", "pay_B", "", testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifySignature(tt.secret, tt.orderID, tt.paymentID, tt.signature))
		})
	}
}

func flip(s string) string {
	b := []byte(s)
	if b[0] == 'a' {
		b[0] = 'b'
	} else {
		b[0] = 'a'
	}
	return string(b)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(49900), MinorUnits(decimal.NewFromInt(499)))
	assert.Equal(t, int64(39999), MinorUnits(decimal.RequireFromString("399.99")))
	assert.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
}

func TestCreateOrder(t *testing.T) {
	var observed time.Duration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, testSecret, pass)

		var body createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(49900), body.Amount)
		assert.Equal(t, "INR", body.Currency)
		assert.Equal(t, "rcpt_1", body.Receipt)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_123","amount":49900,"currency":"INR","receipt":"rcpt_1","status":"created"}`))
	}))
	defer srv.Close()

	c := NewRazorpayClient(RazorpayConfig{
		KeyID: "key_id", KeySecret: testSecret, BaseURL: srv.URL + "/", Currency: "INR", Timeout: time.Second,
	}, func(d time.Duration) { observed = d })

	order, err := c.CreateOrder(context.Background(), decimal.NewFromInt(499), "rcpt_1")
	require.NoError(t, err)
	assert.Equal(t, "order_123", order.ID)
	assert.Equal(t, int64(49900), order.Amount)
	assert.NotZero(t, observed)
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	c := NewRazorpayClient(RazorpayConfig{BaseURL: srv.URL, Currency: "INR", Timeout: time.Second}, nil)

	_, err := c.CreateOrder(context.Background(), decimal.NewFromInt(1), "r")
	require.ErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestCreateOrderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewRazorpayClient(RazorpayConfig{BaseURL: url, Timeout: time.Second}, nil)
	_, err := c.CreateOrder(context.Background(), decimal.NewFromInt(1), "r")
	assert.ErrorIs(t, err, ErrGateway)
}
