package models

import "time"

// NATS subjects
const (
	SubjectPurchaseCompleted   = "purchase.completed"
	SubjectPurchaseFailed      = "purchase.failed"
	SubjectNotificationCreated = "notification.created"
)

// PurchaseCompletedEvent is published after a SUCCESS ledger transition
type PurchaseCompletedEvent struct {
	TransactionID    int64     `json:"transaction_id"`
	OrderID          string    `json:"order_id"`
	EventID          int64     `json:"event_id"`
	PayerID          int64     `json:"payer_id"`
	Amount           int64     `json:"amount"`
	Quantity         int64     `json:"quantity"`
	GatewayReference string    `json:"gateway_reference"`
	Timestamp        time.Time `json:"timestamp"`
}

// PurchaseFailedEvent is published after a FAILED ledger transition
type PurchaseFailedEvent struct {
	TransactionID int64     `json:"transaction_id"`
	OrderID       string    `json:"order_id"`
	EventID       int64     `json:"event_id"`
	PayerID       int64     `json:"payer_id"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// NotificationMessage is a best-effort message for a single recipient.
// Delivery mechanism (push/email/in-app) lives behind the consumer worker.
type NotificationMessage struct {
	RecipientID int64     `json:"recipient_id"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}
