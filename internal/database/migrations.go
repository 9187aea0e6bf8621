package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createEventsTable,
		createTransactionLogsTable,
		createTransactionLogIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGSERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    display_name VARCHAR(255) NOT NULL DEFAULT '',
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    owner_id BIGINT NOT NULL REFERENCES users(user_id),
    title VARCHAR(500) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price BIGINT NOT NULL DEFAULT 0,
    currency VARCHAR(10) NOT NULL DEFAULT 'NGN',
    total_tickets INTEGER NOT NULL DEFAULT 0,
    starts_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (price >= 0),
    CHECK (total_tickets >= 0)
);`

// tickets_sold is never stored: it is the sum of quantity over PENDING and
// SUCCESS ledger rows, counted under the event row lock during reservation.
const createTransactionLogsTable = `
CREATE TABLE IF NOT EXISTS transaction_logs (
    id BIGSERIAL PRIMARY KEY,
    order_id UUID NOT NULL UNIQUE,
    idempotency_key VARCHAR(255),
    event_id BIGINT NOT NULL REFERENCES events(id),
    event_title VARCHAR(500) NOT NULL DEFAULT '',
    creator_id BIGINT NOT NULL REFERENCES users(user_id),
    payer_id BIGINT NOT NULL REFERENCES users(user_id),
    amount BIGINT NOT NULL,
    currency VARCHAR(10) NOT NULL,
    fee BIGINT NOT NULL DEFAULT 0,
    quantity INTEGER NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    gateway_reference VARCHAR(256),
    error_message TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING', 'SUCCESS', 'FAILED')),
    CHECK (quantity > 0),
    CHECK (amount >= 0)
);`

const createTransactionLogIndexes = `
CREATE UNIQUE INDEX IF NOT EXISTS transaction_logs_payer_idem_idx
    ON transaction_logs (payer_id, idempotency_key)
    WHERE idempotency_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS transaction_logs_event_status_idx
    ON transaction_logs (event_id, status);
CREATE INDEX IF NOT EXISTS transaction_logs_payer_created_idx
    ON transaction_logs (payer_id, created_at DESC);
CREATE INDEX IF NOT EXISTS transaction_logs_creator_created_idx
    ON transaction_logs (creator_id, created_at DESC);
CREATE INDEX IF NOT EXISTS transaction_logs_pending_created_idx
    ON transaction_logs (created_at)
    WHERE status = 'PENDING';`
