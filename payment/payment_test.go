package payment

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"350", 35000},
		{"99.99", 9999},
		{"10.005", 1001},
		{"0.004", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinorUnits(decimal.RequireFromString(tt.amount)), tt.amount)
	}
}

func TestCreateOrder(t *testing.T) {
	var got IntentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Intent{ID: "order_abc", Amount: got.Amount, Currency: got.Currency, Receipt: got.Receipt, Status: "created"})
	}))
	defer srv.Close()

	client := NewRazorpayClient(srv.URL+"/v1/", "rzp_test", "secret", time.Second)
	intent, err := client.CreateOrder(context.Background(), IntentRequest{
		Amount: 35000, Currency: "INR", Receipt: "ORD-1", Notes: map[string]string{"userId": "7"},
	})
	require.NoError(t, err)

	assert.Equal(t, "order_abc", intent.ID)
	assert.Equal(t, int64(35000), got.Amount)
	assert.Equal(t, "ORD-1", got.Receipt)
	assert.Equal(t, "7", got.Notes["userId"])
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least 100"}}`))
	}))
	defer srv.Close()

	_, err := NewRazorpayClient(srv.URL, "id", "secret", time.Second).
		CreateOrder(context.Background(), IntentRequest{Amount: 1, Currency: "INR"})

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	assert.Equal(t, "BAD_REQUEST_ERROR", gwErr.Code)
	assert.Contains(t, err.Error(), "amount must be at least 100")
}

func TestCreateOrderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewRazorpayClient(srv.URL, "id", "secret", 20*time.Millisecond).
		CreateOrder(context.Background(), IntentRequest{Amount: 100})
	assert.Error(t, err)
}

func TestVerifyPayment(t *testing.T) {
	sig := Sign("shh", "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.True(t, VerifyPayment("shh", "order_1", "pay_1", sig))

	assert.False(t, VerifyPayment("shh", "order_2", "pay_1", sig))
	assert.False(t, VerifyPayment("shh", "order_1", "pay_2", sig))
	assert.False(t, VerifyPayment("other", "order_1", "pay_1", sig))
	assert.False(t, VerifyPayment("shh", "order_1", "pay_1", "not-hex"))
	assert.False(t, VerifyPayment("shh", "order_1", "pay_1", ""))
	assert.False(t, VerifyPayment("shh", "order_1", "pay_1", strings.ToUpper(sig)))
}

// Every single-bit flip of the signature or of the signed payload is rejected.
func TestVerifyPaymentBitFlips(t *testing.T) {
	const secret, orderID, paymentID = "key_secret", "order_Nx12", "pay_Q9z"
	sig := Sign(secret, orderID, paymentID)
	raw := []byte(sig)

	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), raw...)
			mutated[i] ^= 1 << bit
			assert.False(t, VerifyPayment(secret, orderID, paymentID, string(mutated)), "sig byte %d bit %d", i, bit)
		}
	}

	payload := []byte(orderID)
	for i := range payload {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), payload...)
			mutated[i] ^= 1 << bit
			assert.False(t, VerifyPayment(secret, string(mutated), paymentID, sig), "order byte %d bit %d", i, bit)
		}
	}
}

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	sig := hexMAC("whsec", body)

	assert.True(t, VerifyWebhook("whsec", body, sig))
	assert.False(t, VerifyWebhook("whsec", append(body, ' '), sig))
	assert.False(t, VerifyWebhook("", body, hexMAC("", body)), "webhooks are disabled without a secret")
}

func TestParseWebhook(t *testing.T) {
	ev, err := ParseWebhook([]byte(`{
		"event": "payment.failed",
		"payload": {"payment": {"entity": {"id": "pay_1", "order_id": "order_1", "status": "failed", "error_description": "card declined"}}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, ev.Event)
	assert.Equal(t, "order_1", ev.GatewayOrderID())
	assert.Equal(t, "pay_1", ev.PaymentID())

	ev, err = ParseWebhook([]byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_9"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "order_9", ev.GatewayOrderID())
	assert.Empty(t, ev.PaymentID())

	_, err = ParseWebhook([]byte(`{}`))
	assert.Error(t, err)
	_, err = ParseWebhook([]byte(`nope`))
	assert.Error(t, err)
}

func hexMAC(secret string, body []byte) string {
	return hex.EncodeToString(mac(secret, body))
}
