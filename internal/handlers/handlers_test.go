package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tiketi/internal/external"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testWebhookSecret = "sk_test_secret"

// setupRouter wires the handlers without a database or broker; only request
// validation and signature paths are exercised here, the pipeline itself is
// covered in the service tests.
func setupRouter(authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	paymentClient := external.NewPaymentClient(external.PaymentConfig{
		BaseURL:   "http://gateway.invalid",
		SecretKey: testWebhookSecret,
		Timeout:   time.Second,
	})
	h := NewHandlers(nil, paymentClient, nil)

	r := gin.New()
	if authenticated {
		r.Use(func(c *gin.Context) {
			c.Set("user_id", int64(20))
			c.Next()
		})
	}

	api := r.Group("/api")
	{
		api.POST("/purchases", h.CreatePurchase)
		api.POST("/payments/webhook", h.OnGatewayNotification)
		api.GET("/events", h.ListEvents)
		api.POST("/events", h.CreateEvent)
	}

	return r
}

func signBody(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreatePurchaseValidation(t *testing.T) {
	r := setupRouter(true)

	// Missing required fields
	req, _ := http.NewRequest("POST", "/api/purchases", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed JSON
	req, _ = http.NewRequest("POST", "/api/purchases", bytes.NewBufferString(`{"event_id":`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePurchaseUnauthenticated(t *testing.T) {
	r := setupRouter(false)

	req, _ := http.NewRequest("POST", "/api/purchases", bytes.NewBufferString(`{"event_id":1,"quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r := setupRouter(false)
	body := []byte(`{"event":"charge.success","data":{"order_id":"order-1"}}`)

	// No signature header
	req, _ := http.NewRequest("POST", "/api/payments/webhook", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong signature
	req, _ = http.NewRequest("POST", "/api/payments/webhook", bytes.NewBuffer(body))
	req.Header.Set("X-Gateway-Signature", "deadbeef")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	r := setupRouter(false)
	body := []byte(`not json at all`)

	req, _ := http.NewRequest("POST", "/api/payments/webhook", bytes.NewBuffer(body))
	req.Header.Set("X-Gateway-Signature", signBody(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookRejectsMissingOrderID(t *testing.T) {
	r := setupRouter(false)
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)

	req, _ := http.NewRequest("POST", "/api/payments/webhook", bytes.NewBuffer(body))
	req.Header.Set("X-Gateway-Signature", signBody(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEventsValidation(t *testing.T) {
	r := setupRouter(true)

	req, _ := http.NewRequest("GET", "/api/events?page=0", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req, _ = http.NewRequest("GET", "/api/events?pageSize=500", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEventValidation(t *testing.T) {
	r := setupRouter(true)

	req, _ := http.NewRequest("POST", "/api/events", bytes.NewBufferString(`{"description":"no title"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
