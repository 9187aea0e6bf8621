package external

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "tiketi/internal/errors"
)

// PaymentClient talks to the card-processing gateway. A declined charge is a
// normal outcome, not an error; only transport-level failures surface as
// ErrGatewayUnavailable.
type PaymentClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

type PaymentConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// OutcomeStatus is the normalized gateway-side status of a charge.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeDeclined  OutcomeStatus = "declined"
	OutcomePending   OutcomeStatus = "pending"
)

// ChargeRequest carries everything the gateway needs. OrderID is our
// correlation key; it comes back in webhooks and check responses.
type ChargeRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Email    string `json:"email"`
	OrderID  string `json:"order_id"`
}

// ChargeOutcome is the normalized result of a charge or check call.
// Reference is assigned by the gateway; it is empty only when the gateway
// never acknowledged the charge.
type ChargeOutcome struct {
	Reference string
	Status    OutcomeStatus
	Fee       int64
	Message   string
}

type gatewayResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		OrderID   string `json:"order_id"`
		Fees      int64  `json:"fees"`
		Response  string `json:"gateway_response"`
	} `json:"data"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &PaymentClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Charge issues a synchronous charge request. The caller controls the
// deadline through ctx; on timeout the charge may still complete at the
// gateway and must be reconciled later via Check or the webhook.
func (pc *PaymentClient) Charge(ctx context.Context, req ChargeRequest) (*ChargeOutcome, error) {
	return pc.post(ctx, "/transaction/charge", req)
}

// Check looks up the gateway-side status of a charge by our order id. Used
// by the reconciliation job for ledger rows stuck in PENDING.
func (pc *PaymentClient) Check(ctx context.Context, orderID string) (*ChargeOutcome, error) {
	body := map[string]string{"order_id": orderID}
	return pc.post(ctx, "/transaction/check", body)
}

func (pc *PaymentClient) post(ctx context.Context, path string, body interface{}) (*ChargeOutcome, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+pc.secretKey)

	resp, err := pc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w: %v", apperrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("gateway returned %d: %w", resp.StatusCode, apperrors.ErrGatewayUnavailable)
	}

	var result gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w: %v", apperrors.ErrGatewayUnavailable, err)
	}

	outcome := &ChargeOutcome{
		Reference: result.Data.Reference,
		Fee:       result.Data.Fees,
		Message:   result.Data.Response,
	}
	if outcome.Message == "" {
		outcome.Message = result.Message
	}

	switch result.Data.Status {
	case "success":
		outcome.Status = OutcomeSucceeded
	case "pending", "processing":
		outcome.Status = OutcomePending
	default:
		outcome.Status = OutcomeDeclined
	}

	return outcome, nil
}

// ValidateWebhookSignature checks the HMAC-SHA512 signature the gateway
// attaches to asynchronous notifications.
func (pc *PaymentClient) ValidateWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(pc.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
