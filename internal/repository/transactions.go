package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tiketi/internal/database"
	apperrors "tiketi/internal/errors"
	"tiketi/internal/models"

	"github.com/lib/pq"
)

// TransactionRepository is the ledger store and the inventory guard in one:
// capacity is derived from PENDING and SUCCESS rows, so reserving capacity
// and writing the PENDING log are a single transaction and can never drift
// apart.
type TransactionRepository struct {
	db *database.DB
}

func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const logColumns = `id, order_id, idempotency_key, event_id, event_title, creator_id, payer_id,
	       amount, currency, fee, quantity, status, gateway_reference, error_message,
	       created_at, updated_at`

// ReservePending atomically reserves capacity for the intent and writes the
// PENDING ledger row. The event row lock serializes concurrent reservations
// per event; the sold count is recomputed under that lock, so the sum of
// PENDING and SUCCESS quantities can never exceed total_tickets.
func (r *TransactionRepository) ReservePending(ctx context.Context, intent *models.PurchaseIntent) (*models.TransactionLog, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback()

	var totalTickets int64
	err = tx.QueryRowContext(ctx,
		`SELECT total_tickets FROM events WHERE id = $1 FOR UPDATE`,
		intent.EventID,
	).Scan(&totalTickets)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %d not found: %w", intent.EventID, apperrors.ErrInvalidRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	var sold int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM transaction_logs
		 WHERE event_id = $1 AND status IN ('PENDING', 'SUCCESS')`,
		intent.EventID,
	).Scan(&sold)
	if err != nil {
		return nil, fmt.Errorf("failed to count sold tickets: %w", err)
	}

	if sold+intent.Quantity > totalTickets {
		return nil, fmt.Errorf("%d of %d tickets sold, %d requested: %w",
			sold, totalTickets, intent.Quantity, apperrors.ErrCapacityExceeded)
	}

	log := &models.TransactionLog{
		OrderID:    intent.OrderID,
		EventID:    intent.EventID,
		EventTitle: intent.EventTitle,
		CreatorID:  intent.CreatorID,
		PayerID:    intent.PayerID,
		Amount:     intent.Amount,
		Currency:   intent.Currency,
		Quantity:   intent.Quantity,
		Status:     models.StatusPending,
	}

	var idemKey sql.NullString
	if intent.IdempotencyKey != "" {
		idemKey = sql.NullString{String: intent.IdempotencyKey, Valid: true}
		log.IdempotencyKey = &intent.IdempotencyKey
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO transaction_logs
		     (order_id, idempotency_key, event_id, event_title, creator_id, payer_id,
		      amount, currency, quantity, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'PENDING')
		 RETURNING id, created_at, updated_at`,
		log.OrderID, idemKey, log.EventID, log.EventTitle, log.CreatorID,
		log.PayerID, log.Amount, log.Currency, log.Quantity,
	).Scan(&log.ID, &log.CreatedAt, &log.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert pending log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return log, nil
}

// MarkSucceeded moves a PENDING row to SUCCESS, consuming its reservation.
// Returns false when the row was already terminal, which makes the inline
// path and the webhook path safe to race.
func (r *TransactionRepository) MarkSucceeded(ctx context.Context, id int64, reference string, fee int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transaction_logs
		 SET status = 'SUCCESS', gateway_reference = $2, fee = $3, updated_at = NOW()
		 WHERE id = $1 AND status = 'PENDING'`,
		id, reference, fee)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// MarkFailed moves a PENDING row to FAILED, releasing its reservation. The
// row keeps the gateway's message for the audit trail. The idempotency key
// is surrendered on failure: a caller retry with the same key must start a
// fresh attempt, not replay the dead one.
func (r *TransactionRepository) MarkFailed(ctx context.Context, id int64, reference *string, message string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transaction_logs
		 SET status = 'FAILED', gateway_reference = COALESCE($2, gateway_reference),
		     error_message = $3, idempotency_key = NULL, updated_at = NOW()
		 WHERE id = $1 AND status = 'PENDING'`,
		id, reference, message)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.TransactionLog, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *TransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.TransactionLog, error) {
	return r.getOne(ctx, `WHERE order_id = $1`, orderID)
}

// GetByIdempotencyKey returns the log of an earlier submission with the same
// key, if any. Used to make retried client submissions single-charge. Only
// PENDING and SUCCESS rows hold a key; MarkFailed clears it.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, payerID int64, key string) (*models.TransactionLog, error) {
	return r.getOne(ctx, `WHERE payer_id = $1 AND idempotency_key = $2 AND status <> 'FAILED'`, payerID, key)
}

func (r *TransactionRepository) getOne(ctx context.Context, where string, args ...interface{}) (*models.TransactionLog, error) {
	log := &models.TransactionLog{}
	query := `SELECT ` + logColumns + ` FROM transaction_logs ` + where

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&log.ID,
		&log.OrderID,
		&log.IdempotencyKey,
		&log.EventID,
		&log.EventTitle,
		&log.CreatorID,
		&log.PayerID,
		&log.Amount,
		&log.Currency,
		&log.Fee,
		&log.Quantity,
		&log.Status,
		&log.GatewayReference,
		&log.ErrorMessage,
		&log.CreatedAt,
		&log.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return log, err
}

// ListByPayer returns the caller's purchase history, newest first.
func (r *TransactionRepository) ListByPayer(ctx context.Context, payerID int64) ([]models.TransactionLog, error) {
	return r.list(ctx, `WHERE payer_id = $1 ORDER BY created_at DESC`, payerID)
}

// ListByCreator returns logs for events the caller owns, newest first.
func (r *TransactionRepository) ListByCreator(ctx context.Context, creatorID int64) ([]models.TransactionLog, error) {
	return r.list(ctx, `WHERE creator_id = $1 ORDER BY created_at DESC`, creatorID)
}

// ListStalePending returns PENDING rows older than the cutoff, oldest first.
// These are attempts interrupted between reserve and terminal write; the
// reconciliation job resolves them against the gateway.
func (r *TransactionRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]models.TransactionLog, error) {
	return r.list(ctx, `WHERE status = 'PENDING' AND created_at < $1 ORDER BY created_at ASC`, olderThan)
}

func (r *TransactionRepository) list(ctx context.Context, where string, args ...interface{}) ([]models.TransactionLog, error) {
	query := `SELECT ` + logColumns + ` FROM transaction_logs ` + where

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.TransactionLog
	for rows.Next() {
		var log models.TransactionLog
		err := rows.Scan(
			&log.ID,
			&log.OrderID,
			&log.IdempotencyKey,
			&log.EventID,
			&log.EventTitle,
			&log.CreatorID,
			&log.PayerID,
			&log.Amount,
			&log.Currency,
			&log.Fee,
			&log.Quantity,
			&log.Status,
			&log.GatewayReference,
			&log.ErrorMessage,
			&log.CreatedAt,
			&log.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// SoldCount derives tickets_sold for an event from the ledger.
func (r *TransactionRepository) SoldCount(ctx context.Context, eventID int64) (int64, error) {
	var sold int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM transaction_logs
		 WHERE event_id = $1 AND status IN ('PENDING', 'SUCCESS')`,
		eventID,
	).Scan(&sold)
	return sold, err
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, e.g. two concurrent submissions with the same idempotency key.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
