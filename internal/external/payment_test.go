package external

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "tiketi/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *PaymentClient {
	return NewPaymentClient(PaymentConfig{
		BaseURL:   baseURL,
		SecretKey: "sk_test_secret",
		Timeout:   2 * time.Second,
	})
}

func TestChargeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/charge", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		var req ChargeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(15000), req.Amount)
		assert.Equal(t, "order-123", req.OrderID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": true,
			"message": "Charge attempted",
			"data": {
				"status": "success",
				"reference": "ref-abc",
				"order_id": "order-123",
				"fees": 120,
				"gateway_response": "Approved"
			}
		}`))
	}))
	defer srv.Close()

	outcome, err := newTestClient(srv.URL).Charge(context.Background(), ChargeRequest{
		Amount:   15000,
		Currency: "NGN",
		Email:    "buyer@example.com",
		OrderID:  "order-123",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome.Status)
	assert.Equal(t, "ref-abc", outcome.Reference)
	assert.Equal(t, int64(120), outcome.Fee)
	assert.Equal(t, "Approved", outcome.Message)
}

func TestChargeDeclinedIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": true,
			"message": "Charge attempted",
			"data": {
				"status": "failed",
				"reference": "ref-declined",
				"gateway_response": "Insufficient funds"
			}
		}`))
	}))
	defer srv.Close()

	outcome, err := newTestClient(srv.URL).Charge(context.Background(), ChargeRequest{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeclined, outcome.Status)
	assert.Equal(t, "ref-declined", outcome.Reference)
	assert.Equal(t, "Insufficient funds", outcome.Message)
}

func TestChargePendingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": true, "data": {"status": "pending", "reference": "ref-p"}}`))
	}))
	defer srv.Close()

	outcome, err := newTestClient(srv.URL).Charge(context.Background(), ChargeRequest{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, outcome.Status)
}

func TestChargeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Charge(context.Background(), ChargeRequest{OrderID: "order-1"})
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)
}

func TestChargeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).Charge(context.Background(), ChargeRequest{OrderID: "order-1"})
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)
}

func TestChargeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).Charge(ctx, ChargeRequest{OrderID: "order-1"})
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)
}

func TestChargeMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Charge(context.Background(), ChargeRequest{OrderID: "order-1"})
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)
}

func TestCheckByOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/check", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "order-42", body["order_id"])

		w.Write([]byte(`{"status": true, "data": {"status": "success", "reference": "ref-42", "fees": 10}}`))
	}))
	defer srv.Close()

	outcome, err := newTestClient(srv.URL).Check(context.Background(), "order-42")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome.Status)
	assert.Equal(t, "ref-42", outcome.Reference)
}

func TestValidateWebhookSignature(t *testing.T) {
	client := newTestClient("http://unused")
	body := []byte(`{"event":"charge.success","data":{"order_id":"order-1"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.ValidateWebhookSignature(body, valid))
	assert.False(t, client.ValidateWebhookSignature(body, "deadbeef"))
	assert.False(t, client.ValidateWebhookSignature([]byte(`tampered`), valid))
}
