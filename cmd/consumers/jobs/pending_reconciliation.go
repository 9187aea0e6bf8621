package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tiketi/internal/external"
	"tiketi/internal/models"
	"tiketi/internal/monitoring"
)

// StalePendingAge is how long a ledger row may sit in PENDING before the
// job asks the gateway what actually happened to it.
const StalePendingAge = 15 * time.Minute

type ledger interface {
	ListStalePending(ctx context.Context, olderThan time.Time) ([]models.TransactionLog, error)
	MarkSucceeded(ctx context.Context, id int64, reference string, fee int64) (bool, error)
	MarkFailed(ctx context.Context, id int64, reference *string, message string) (bool, error)
}

type statusChecker interface {
	Check(ctx context.Context, orderID string) (*external.ChargeOutcome, error)
}

type dispatcher interface {
	Notify(recipientID int64, message string)
	PublishCompleted(log *models.TransactionLog)
	PublishFailed(log *models.TransactionLog, reason string)
}

// PendingReconciliationJob settles ledger rows left PENDING by crashes or
// timeouts. A charge the gateway confirms becomes SUCCESS (capacity stays
// consumed); one the gateway declined or never saw becomes FAILED (capacity
// released). Rows the gateway still reports in flight are left for the next
// sweep.
type PendingReconciliationJob struct {
	ledger   ledger
	gateway  statusChecker
	notifier dispatcher
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewPendingReconciliationJob(ledger ledger, gateway statusChecker, notifier dispatcher, interval time.Duration) *PendingReconciliationJob {
	if interval == 0 {
		interval = time.Minute
	}

	return &PendingReconciliationJob{
		ledger:   ledger,
		gateway:  gateway,
		notifier: notifier,
		interval: interval,
		done:     make(chan bool),
	}
}

// Start begins the background sweep
func (j *PendingReconciliationJob) Start(ctx context.Context) {
	slog.Info("Starting pending reconciliation job",
		"check_interval", j.interval.String(),
		"stale_age", StalePendingAge.String())

	j.ticker = time.NewTicker(j.interval)

	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				j.sweep(ctx)
			case <-j.done:
				slog.Info("Pending reconciliation job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *PendingReconciliationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *PendingReconciliationJob) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-StalePendingAge)

	stale, err := j.ledger.ListStalePending(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to list stale pending transactions", "error", err)
		return
	}

	if len(stale) == 0 {
		slog.Debug("No stale pending transactions found")
		return
	}

	slog.Info("Found stale pending transactions to reconcile", "count", len(stale))

	for _, log := range stale {
		if err := j.reconcile(ctx, &log); err != nil {
			slog.Error("Failed to reconcile pending transaction",
				"error", err,
				"order_id", log.OrderID,
				"created_at", log.CreatedAt)
		}
	}
}

func (j *PendingReconciliationJob) reconcile(ctx context.Context, log *models.TransactionLog) error {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	start := time.Now()
	outcome, err := j.gateway.Check(checkCtx, log.OrderID)
	if err != nil {
		monitoring.ObserveGatewayRequest("check", "error", time.Since(start))
		// Gateway unreachable; the row stays PENDING for the next sweep
		return err
	}
	monitoring.ObserveGatewayRequest("check", string(outcome.Status), time.Since(start))

	switch outcome.Status {
	case external.OutcomeSucceeded:
		applied, err := j.ledger.MarkSucceeded(ctx, log.ID, outcome.Reference, outcome.Fee)
		if err != nil {
			return fmt.Errorf("failed to settle as success: %w", err)
		}
		if applied {
			monitoring.RecordReconciledPending("success")
			log.Status = models.StatusSuccess
			log.GatewayReference = &outcome.Reference
			log.Fee = outcome.Fee
			j.notifySettled(log)
			slog.Info("Reconciled pending transaction as SUCCESS",
				"order_id", log.OrderID,
				"gateway_reference", outcome.Reference)
		}

	case external.OutcomePending:
		slog.Debug("Charge still in flight at gateway", "order_id", log.OrderID)

	default:
		message := outcome.Message
		if message == "" {
			message = "expired without gateway acknowledgement"
		}
		ref := &outcome.Reference
		if outcome.Reference == "" {
			ref = nil
		}
		applied, err := j.ledger.MarkFailed(ctx, log.ID, ref, message)
		if err != nil {
			return fmt.Errorf("failed to settle as failure: %w", err)
		}
		if applied {
			monitoring.RecordReconciledPending("failed")
			log.Status = models.StatusFailed
			log.ErrorMessage = &message
			j.notifySettled(log)
			slog.Info("Reconciled pending transaction as FAILED",
				"order_id", log.OrderID,
				"reason", message)
		}
	}

	return nil
}

func (j *PendingReconciliationJob) notifySettled(log *models.TransactionLog) {
	message := fmt.Sprintf("%s transaction for event %d", log.Status, log.EventID)
	j.notifier.Notify(log.PayerID, message)
	j.notifier.Notify(log.CreatorID, message)

	switch log.Status {
	case models.StatusSuccess:
		j.notifier.PublishCompleted(log)
	case models.StatusFailed:
		reason := ""
		if log.ErrorMessage != nil {
			reason = *log.ErrorMessage
		}
		j.notifier.PublishFailed(log, reason)
	}
}
