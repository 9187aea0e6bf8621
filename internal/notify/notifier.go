package notify

import (
	"log/slog"
	"sync"
	"time"

	"tiketi/internal/models"
	"tiketi/internal/monitoring"
)

type publisher interface {
	Publish(subject string, data interface{}) error
}

// Notifier dispatches purchase-outcome messages without ever blocking the
// purchase path. Messages go through a buffered queue drained by a single
// goroutine; a full queue drops the message with a log line and a metric.
// Delivery is best-effort by contract: a lost notification is never retried
// inline and never rolls anything back.
type Notifier struct {
	pub       publisher
	queue     chan models.NotificationMessage
	closeOnce sync.Once
	done      chan struct{}
}

func New(pub publisher, buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 256
	}

	n := &Notifier{
		pub:   pub,
		queue: make(chan models.NotificationMessage, buffer),
		done:  make(chan struct{}),
	}

	go n.run()

	return n
}

// PublishCompleted announces a SUCCESS ledger transition on the broker.
// Best-effort like everything else here; a publish failure is logged and
// never propagated to the purchase path.
func (n *Notifier) PublishCompleted(log *models.TransactionLog) {
	reference := ""
	if log.GatewayReference != nil {
		reference = *log.GatewayReference
	}
	n.publishEvent(models.SubjectPurchaseCompleted, models.PurchaseCompletedEvent{
		TransactionID:    log.ID,
		OrderID:          log.OrderID,
		EventID:          log.EventID,
		PayerID:          log.PayerID,
		Amount:           log.Amount,
		Quantity:         log.Quantity,
		GatewayReference: reference,
		Timestamp:        time.Now(),
	})
}

// PublishFailed announces a FAILED ledger transition on the broker.
func (n *Notifier) PublishFailed(log *models.TransactionLog, reason string) {
	n.publishEvent(models.SubjectPurchaseFailed, models.PurchaseFailedEvent{
		TransactionID: log.ID,
		OrderID:       log.OrderID,
		EventID:       log.EventID,
		PayerID:       log.PayerID,
		Reason:        reason,
		Timestamp:     time.Now(),
	})
}

func (n *Notifier) publishEvent(subject string, event interface{}) {
	if err := n.pub.Publish(subject, event); err != nil {
		monitoring.RecordNotificationPublished("error")
		slog.Error("Failed to publish purchase event",
			"error", err,
			"subject", subject)
		return
	}
	monitoring.RecordNotificationPublished("ok")
}

// Notify enqueues a message for the recipient. Never blocks.
func (n *Notifier) Notify(recipientID int64, message string) {
	msg := models.NotificationMessage{
		RecipientID: recipientID,
		Message:     message,
		Timestamp:   time.Now(),
	}

	select {
	case n.queue <- msg:
	default:
		monitoring.RecordNotificationDropped()
		slog.Error("Notification queue full, dropping message",
			"recipient_id", recipientID,
			"message", message)
	}
}

func (n *Notifier) run() {
	defer close(n.done)

	for msg := range n.queue {
		if err := n.pub.Publish(models.SubjectNotificationCreated, msg); err != nil {
			monitoring.RecordNotificationPublished("error")
			slog.Error("Failed to publish notification",
				"error", err,
				"recipient_id", msg.RecipientID)
			continue
		}
		monitoring.RecordNotificationPublished("ok")
	}
}

// Close drains the queue and stops the dispatch goroutine.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		close(n.queue)
	})
	<-n.done
}
