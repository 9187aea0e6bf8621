package consumers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tiketi/internal/models"
	"tiketi/internal/repository"

	"github.com/nats-io/stan.go"
)

type userStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type acker interface {
	Ack() error
}

type Handlers struct {
	users userStore
}

func NewHandlers(repos *repository.Repositories) *Handlers {
	return &Handlers{users: repos.Users}
}

// ack acknowledges a message; with manual ack mode a failed ack means the
// server will redeliver, so it is worth a log line.
func ack(m acker) {
	if err := m.Ack(); err != nil {
		slog.Error("Failed to ack message", "error", err)
	}
}

// HandlePurchaseCompleted records a settled purchase for downstream
// consumers. Payouts and receipts hang off this subject.
func (h *Handlers) HandlePurchaseCompleted(m *stan.Msg) {
	var event models.PurchaseCompletedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal purchase completed event", "error", err)
		ack(m)
		return
	}

	slog.Info("Purchase settled",
		"order_id", event.OrderID,
		"event_id", event.EventID,
		"payer_id", event.PayerID,
		"amount", event.Amount,
		"quantity", event.Quantity,
		"gateway_reference", event.GatewayReference)

	ack(m)
}

// HandlePurchaseFailed records a failed purchase attempt
func (h *Handlers) HandlePurchaseFailed(m *stan.Msg) {
	var event models.PurchaseFailedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal purchase failed event", "error", err)
		ack(m)
		return
	}

	slog.Info("Purchase failed",
		"order_id", event.OrderID,
		"event_id", event.EventID,
		"payer_id", event.PayerID,
		"reason", event.Reason)

	ack(m)
}

// HandleNotificationCreated delivers a queued notification
func (h *Handlers) HandleNotificationCreated(m *stan.Msg) {
	var msg models.NotificationMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		slog.Error("Failed to unmarshal notification message", "error", err)
		ack(m)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if h.deliverNotification(ctx, msg) {
		ack(m)
	}
}

// deliverNotification resolves the recipient and hands the message to the
// delivery channel. The concrete channel (email/push/in-app) is an external
// collaborator; delivery here is the structured log record of the handoff.
// Returns false when the lookup failed and the message should be redelivered.
func (h *Handlers) deliverNotification(ctx context.Context, msg models.NotificationMessage) bool {
	recipient, err := h.users.GetByID(ctx, msg.RecipientID)
	if err != nil {
		slog.Error("Failed to resolve notification recipient",
			"error", err,
			"recipient_id", msg.RecipientID)
		return false
	}
	if recipient == nil || !recipient.IsActive {
		slog.Warn("Dropping notification for unknown or inactive recipient",
			"recipient_id", msg.RecipientID)
		return true
	}

	slog.Info("Delivering notification",
		"recipient_id", msg.RecipientID,
		"email", recipient.Email,
		"message", msg.Message,
		"queued_at", msg.Timestamp)

	return true
}
