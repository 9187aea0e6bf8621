package models

import "time"

// PurchaseRequest - request body for POST /api/purchases. The payer comes
// from the auth context and the amount is always computed server-side.
type PurchaseRequest struct {
	EventID        int64  `json:"event_id" binding:"required"`
	Quantity       int64  `json:"quantity" binding:"required"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// PurchaseResponse - outcome of a purchase attempt
type PurchaseResponse struct {
	ID               int64     `json:"id"`
	OrderID          string    `json:"order_id"`
	EventID          int64     `json:"event_id"`
	EventTitle       string    `json:"event_title"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Fee              int64     `json:"fee"`
	Quantity         int64     `json:"quantity"`
	Status           string    `json:"status"`
	GatewayReference *string   `json:"gateway_reference"`
	CreatedAt        time.Time `json:"created_at"`
}

// TransactionListItem - element of the creator/consumer history lists
type TransactionListItem struct {
	ID               int64     `json:"id"`
	OrderID          string    `json:"order_id"`
	EventID          int64     `json:"event_id"`
	EventTitle       string    `json:"event_title"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Quantity         int64     `json:"quantity"`
	Status           string    `json:"status"`
	GatewayReference *string   `json:"gateway_reference"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreateEventRequest - request body for POST /api/events
type CreateEventRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	Price        int64      `json:"price"`
	Currency     string     `json:"currency"`
	TotalTickets int64      `json:"total_tickets" binding:"required"`
	StartsAt     *time.Time `json:"starts_at"`
}

// CreateEventResponse - response body for POST /api/events
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// ListEventsResponseItem - element of the event list
type ListEventsResponseItem struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Price        int64  `json:"price"`
	Currency     string `json:"currency"`
	TotalTickets int64  `json:"total_tickets"`
}

// ListEventsResponse - event list
type ListEventsResponse []ListEventsResponseItem

// EventAvailabilityResponse - single event with its derived sold count
type EventAvailabilityResponse struct {
	Event       Event `json:"event"`
	TicketsSold int64 `json:"tickets_sold"`
	TicketsLeft int64 `json:"tickets_left"`
}

// GatewayWebhookPayload - signed asynchronous status notification from the
// payment gateway, correlated to a ledger row by order id.
type GatewayWebhookPayload struct {
	Event string             `json:"event"`
	Data  GatewayWebhookData `json:"data"`
}

type GatewayWebhookData struct {
	OrderID   string `json:"order_id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Fees      int64  `json:"fees"`
	Message   string `json:"gateway_response"`
}
