package models

import "time"

// Transaction log statuses. A log is written once as PENDING and moved at
// most once to a terminal status; terminal rows are never mutated again.
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// Event capacity is total_tickets; the sold count is derived from the
// ledger, never stored on the event row.
type Event struct {
	ID           int64      `json:"id" db:"id"`
	OwnerID      int64      `json:"owner_id" db:"owner_id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	Price        int64      `json:"price" db:"price"`
	Currency     string     `json:"currency" db:"currency"`
	TotalTickets int64      `json:"total_tickets" db:"total_tickets"`
	StartsAt     *time.Time `json:"starts_at" db:"starts_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// PurchaseIntent is the request-scoped snapshot of a validated purchase.
// Amount is always computed server-side as event price times quantity; it is
// immutable once the charge is attempted.
type PurchaseIntent struct {
	OrderID        string
	IdempotencyKey string
	EventID        int64
	EventTitle     string
	CreatorID      int64
	PayerID        int64
	Quantity       int64
	Amount         int64
	Currency       string
}

// TransactionLog is the durable audit record of one purchase attempt.
// GatewayReference is nil while PENDING: a reference only ever originates
// from the gateway's response, it is never invented locally.
type TransactionLog struct {
	ID               int64     `json:"id" db:"id"`
	OrderID          string    `json:"order_id" db:"order_id"`
	IdempotencyKey   *string   `json:"-" db:"idempotency_key"`
	EventID          int64     `json:"event_id" db:"event_id"`
	EventTitle       string    `json:"event_title" db:"event_title"`
	CreatorID        int64     `json:"creator_id" db:"creator_id"`
	PayerID          int64     `json:"payer_id" db:"payer_id"`
	Amount           int64     `json:"amount" db:"amount"`
	Currency         string    `json:"currency" db:"currency"`
	Fee              int64     `json:"fee" db:"fee"`
	Quantity         int64     `json:"quantity" db:"quantity"`
	Status           string    `json:"status" db:"status"`
	GatewayReference *string   `json:"gateway_reference" db:"gateway_reference"`
	ErrorMessage     *string   `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
