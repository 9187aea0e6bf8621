package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "tiketi/internal/errors"
	"tiketi/internal/external"
	"tiketi/internal/logger"
	"tiketi/internal/models"
	"tiketi/internal/monitoring"
	"tiketi/internal/repository"

	"github.com/google/uuid"
)

// Collaborator contracts, satisfied by the concrete repository, gateway and
// notifier types. Kept narrow so the state machine is testable without a
// database or a live gateway.
type eventStore interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

type userStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type ledger interface {
	ReservePending(ctx context.Context, intent *models.PurchaseIntent) (*models.TransactionLog, error)
	MarkSucceeded(ctx context.Context, id int64, reference string, fee int64) (bool, error)
	MarkFailed(ctx context.Context, id int64, reference *string, message string) (bool, error)
	GetByIdempotencyKey(ctx context.Context, payerID int64, key string) (*models.TransactionLog, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.TransactionLog, error)
}

type chargeClient interface {
	Charge(ctx context.Context, req external.ChargeRequest) (*external.ChargeOutcome, error)
}

type dispatcher interface {
	Notify(recipientID int64, message string)
	PublishCompleted(log *models.TransactionLog)
	PublishFailed(log *models.TransactionLog, reason string)
}

// PurchaseService drives a purchase attempt through its state machine:
// validate, reserve capacity with the PENDING ledger write, charge, then a
// single terminal transition. Every failure after the reservation releases
// it; a reservation is consumed only by SUCCESS.
type PurchaseService struct {
	events         eventStore
	users          userStore
	ledger         ledger
	gateway        chargeClient
	notifier       dispatcher
	gatewayTimeout time.Duration
}

func NewPurchaseService(events eventStore, users userStore, ledger ledger, gateway chargeClient, notifier dispatcher, gatewayTimeout time.Duration) *PurchaseService {
	if gatewayTimeout == 0 {
		gatewayTimeout = 10 * time.Second
	}

	return &PurchaseService{
		events:         events,
		users:          users,
		ledger:         ledger,
		gateway:        gateway,
		notifier:       notifier,
		gatewayTimeout: gatewayTimeout,
	}
}

func (s *PurchaseService) Purchase(ctx context.Context, payerID int64, req *models.PurchaseRequest) (*models.TransactionLog, error) {
	if req.Quantity <= 0 {
		monitoring.RecordPurchase(monitoring.OutcomeInvalidRequest)
		return nil, fmt.Errorf("quantity must be positive: %w", apperrors.ErrInvalidRequest)
	}

	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		monitoring.RecordPurchase(monitoring.OutcomeInvalidRequest)
		return nil, fmt.Errorf("event %d not found: %w", req.EventID, apperrors.ErrInvalidRequest)
	}

	// Amount is always server-computed; a client-supplied amount is never
	// read, let alone trusted.
	amount := event.Price * req.Quantity
	if amount <= 0 {
		monitoring.RecordPurchase(monitoring.OutcomeInvalidRequest)
		return nil, fmt.Errorf("event %d is not purchasable: %w", req.EventID, apperrors.ErrInvalidRequest)
	}

	if req.IdempotencyKey != "" {
		prior, err := s.ledger.GetByIdempotencyKey(ctx, payerID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if prior != nil {
			monitoring.RecordPurchase(monitoring.OutcomeIdempotentReplay)
			return prior, nil
		}
	}

	payer, err := s.users.GetByID(ctx, payerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payer: %w", err)
	}
	if payer == nil {
		monitoring.RecordPurchase(monitoring.OutcomeInvalidRequest)
		return nil, fmt.Errorf("payer %d not found: %w", payerID, apperrors.ErrInvalidRequest)
	}

	intent := &models.PurchaseIntent{
		OrderID:        uuid.New().String(),
		IdempotencyKey: req.IdempotencyKey,
		EventID:        event.ID,
		EventTitle:     event.Title,
		CreatorID:      event.OwnerID,
		PayerID:        payerID,
		Quantity:       req.Quantity,
		Amount:         amount,
		Currency:       event.Currency,
	}

	// RESERVED: capacity check and PENDING write happen in one transaction
	// inside the ledger, so a crash here leaves nothing half-applied.
	log, err := s.ledger.ReservePending(ctx, intent)
	if err != nil {
		if repository.IsUniqueViolation(err) && req.IdempotencyKey != "" {
			// Lost a race against a concurrent submission with the same key
			prior, lookupErr := s.ledger.GetByIdempotencyKey(ctx, payerID, req.IdempotencyKey)
			if lookupErr == nil && prior != nil {
				monitoring.RecordPurchase(monitoring.OutcomeIdempotentReplay)
				return prior, nil
			}
		}
		if errors.Is(err, apperrors.ErrCapacityExceeded) {
			monitoring.RecordPurchase(monitoring.OutcomeCapacityExceeded)
		} else if errors.Is(err, apperrors.ErrInvalidRequest) {
			monitoring.RecordPurchase(monitoring.OutcomeInvalidRequest)
		}
		return nil, err
	}

	return s.charge(ctx, log, payer)
}

// charge runs the CHARGING state. The gateway call gets a context detached
// from the request: a client disconnect must not abandon an in-flight charge
// half-recorded. The deadline still bounds the call.
func (s *PurchaseService) charge(ctx context.Context, log *models.TransactionLog, payer *models.User) (*models.TransactionLog, error) {
	chargeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.gatewayTimeout)
	defer cancel()

	start := time.Now()
	outcome, err := s.gateway.Charge(chargeCtx, external.ChargeRequest{
		Amount:   log.Amount,
		Currency: log.Currency,
		Email:    payer.Email,
		OrderID:  log.OrderID,
	})
	if err != nil {
		monitoring.ObserveGatewayRequest("charge", "error", time.Since(start))
		s.release(chargeCtx, log, nil, "gateway unreachable: "+err.Error())
		monitoring.RecordPurchase(monitoring.OutcomeGatewayUnavailable)
		if errors.Is(err, apperrors.ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("charge failed: %w: %v", apperrors.ErrGatewayUnavailable, err)
	}
	monitoring.ObserveGatewayRequest("charge", string(outcome.Status), time.Since(start))

	switch outcome.Status {
	case external.OutcomeSucceeded:
		applied, err := s.ledger.MarkSucceeded(chargeCtx, log.ID, outcome.Reference, outcome.Fee)
		if err != nil {
			// Money moved but the record did not. Escalate loudly; never
			// swallow and never release the reservation, the reconciliation
			// job will settle the row from the gateway's answer.
			monitoring.RecordPersistenceFailure()
			monitoring.RecordPurchase(monitoring.OutcomePersistenceFailure)
			logger.WithContext(ctx).Error("ALERT: charge succeeded but ledger write failed",
				"error", err,
				"order_id", log.OrderID,
				"gateway_reference", outcome.Reference,
				"amount", log.Amount)
			return nil, fmt.Errorf("order %s charged as %s: %w", log.OrderID, outcome.Reference, apperrors.ErrPersistenceFailure)
		}
		if applied {
			log.Status = models.StatusSuccess
			log.GatewayReference = &outcome.Reference
			log.Fee = outcome.Fee
			s.notifyOutcome(log)
		}
		monitoring.RecordPurchase(monitoring.OutcomeCompleted)
		return log, nil

	case external.OutcomePending:
		// Charge accepted but not yet settled. The row stays PENDING and
		// keeps its reservation; the webhook or the reconciliation job
		// applies the terminal status once the gateway decides.
		logger.WithContext(ctx).Info("Charge in flight at gateway",
			"order_id", log.OrderID,
			"gateway_reference", outcome.Reference)
		monitoring.RecordPurchase(monitoring.OutcomeChargePending)
		return log, nil

	default:
		// Declined is a normal terminal outcome, not a transport error
		ref := &outcome.Reference
		if outcome.Reference == "" {
			ref = nil
		}
		s.release(chargeCtx, log, ref, outcome.Message)
		log.Status = models.StatusFailed
		log.GatewayReference = ref
		log.ErrorMessage = &outcome.Message
		s.notifyOutcome(log)
		monitoring.RecordPurchase(monitoring.OutcomeGatewayDeclined)
		return log, fmt.Errorf("%s: %w", outcome.Message, apperrors.ErrGatewayDeclined)
	}
}

// release returns reserved capacity by moving the PENDING row to FAILED.
// Runs on its own deadline: the charge context may already be expired.
func (s *PurchaseService) release(ctx context.Context, log *models.TransactionLog, reference *string, message string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	applied, err := s.ledger.MarkFailed(ctx, log.ID, reference, message)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to release reservation",
			"error", err,
			"order_id", log.OrderID)
		return
	}
	if !applied {
		logger.WithContext(ctx).Warn("Reservation already settled elsewhere",
			"order_id", log.OrderID)
	}
}

// notifyOutcome tells buyer and event owner about a terminal transition.
// Mirrors the original notification text: "<STATUS> transaction for event <id>".
func (s *PurchaseService) notifyOutcome(log *models.TransactionLog) {
	message := fmt.Sprintf("%s transaction for event %d", log.Status, log.EventID)
	s.notifier.Notify(log.PayerID, message)
	s.notifier.Notify(log.CreatorID, message)

	switch log.Status {
	case models.StatusSuccess:
		s.notifier.PublishCompleted(log)
	case models.StatusFailed:
		reason := ""
		if log.ErrorMessage != nil {
			reason = *log.ErrorMessage
		}
		s.notifier.PublishFailed(log, reason)
	}
}

// HandleGatewayNotification applies an asynchronous gateway status update to
// the ledger. The transition is status-guarded, so a webhook racing the
// inline path (or a redelivered webhook) applies at most once.
func (s *PurchaseService) HandleGatewayNotification(ctx context.Context, payload *models.GatewayWebhookPayload) error {
	log, err := s.ledger.GetByOrderID(ctx, payload.Data.OrderID)
	if err != nil {
		return fmt.Errorf("failed to look up transaction: %w", err)
	}
	if log == nil {
		logger.WithContext(ctx).Warn("Gateway notification for unknown order",
			"order_id", payload.Data.OrderID,
			"event", payload.Event)
		return nil
	}

	switch payload.Event {
	case "charge.success":
		applied, err := s.ledger.MarkSucceeded(ctx, log.ID, payload.Data.Reference, payload.Data.Fees)
		if err != nil {
			return fmt.Errorf("failed to apply success notification: %w", err)
		}
		if applied {
			log.Status = models.StatusSuccess
			log.GatewayReference = &payload.Data.Reference
			log.Fee = payload.Data.Fees
			s.notifyOutcome(log)
			logger.WithContext(ctx).Info("Settled pending transaction from webhook",
				"order_id", log.OrderID,
				"gateway_reference", payload.Data.Reference)
		}

	case "charge.failed":
		ref := &payload.Data.Reference
		if payload.Data.Reference == "" {
			ref = nil
		}
		applied, err := s.ledger.MarkFailed(ctx, log.ID, ref, payload.Data.Message)
		if err != nil {
			return fmt.Errorf("failed to apply failure notification: %w", err)
		}
		if applied {
			log.Status = models.StatusFailed
			log.GatewayReference = ref
			log.ErrorMessage = &payload.Data.Message
			s.notifyOutcome(log)
		}

	default:
		logger.WithContext(ctx).Info("Ignoring gateway notification",
			"event", payload.Event,
			"order_id", payload.Data.OrderID)
	}

	return nil
}
