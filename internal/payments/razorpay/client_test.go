package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvem8/backend/internal/config"
)

type countingDegraded struct {
	calls int
}

func (c *countingDegraded) DegradedOrder() { c.calls++ }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestClient_VerifySignature(t *testing.T) {
	const secret = "test_secret"
	client := NewClient(config.Razorpay{KeySecret: secret}, newNoopLogger(), nil)

	valid := signPayload(secret, "order_1", "pay_1")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{name: "valid signature", orderID: "order_1", paymentID: "pay_1", signature: valid, want: true},
		{name: "single char mutated", orderID: "order_1", paymentID: "pay_1",
			signature: flipLastChar(valid), want: false},
		{name: "signature for other order", orderID: "order_2", paymentID: "pay_1", signature: valid, want: false},
		{name: "empty signature", orderID: "order_1", paymentID: "pay_1", signature: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.VerifySignature(tt.orderID, tt.paymentID, tt.signature)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func flipLastChar(s string) string {
	last := s[len(s)-1]
	repl := "0"
	if last == '0' {
		repl = "1"
	}
	return s[:len(s)-1] + repl
}

func TestClient_VerifySignature_NoSecret(t *testing.T) {
	client := NewClient(config.Razorpay{}, newNoopLogger(), nil)

	ok, err := client.VerifySignature("order_1", "pay_1", "anything")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestClient_CreateOrder_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"order_remote_1"}`))
	}))
	defer srv.Close()

	client := NewClient(config.Razorpay{
		BaseURL:   srv.URL,
		KeyID:     "key_id",
		KeySecret: "key_secret",
	}, newNoopLogger(), nil)

	orderID, err := client.CreateOrder(context.Background(), 29900, "INR", "user_1_123")
	require.NoError(t, err)
	assert.Equal(t, "order_remote_1", orderID)
}

func TestClient_CreateOrder_DegradedFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	counter := &countingDegraded{}
	client := NewClient(config.Razorpay{
		BaseURL:   srv.URL,
		KeyID:     "key_id",
		KeySecret: "key_secret",
	}, newNoopLogger(), counter)

	orderID, err := client.CreateOrder(context.Background(), 9900, "INR", "user_1_456")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(orderID, "local_"))
	assert.Equal(t, 1, counter.calls)
}
