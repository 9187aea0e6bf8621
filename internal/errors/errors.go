package errors

import "errors"

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

// Purchase pipeline taxonomy. Handlers map these to HTTP statuses; the
// orchestrator wraps them with context via fmt.Errorf("...: %w", err).
var (
	// ErrInvalidRequest covers malformed input: unknown event, non-positive
	// quantity, zero amount. Rejected before any state mutation.
	ErrInvalidRequest = errors.New("invalid purchase request")

	// ErrCapacityExceeded means no tickets remain for the event.
	ErrCapacityExceeded = errors.New("event capacity exceeded")

	// ErrGatewayUnavailable is a transient transport failure talking to the
	// payment gateway. Retryable by the caller, never retried server-side.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrGatewayDeclined is a legitimate charge rejection by the gateway.
	ErrGatewayDeclined = errors.New("payment declined by gateway")

	// ErrPersistenceFailure means the charge succeeded but the ledger write
	// did not. Money moved without a record; this must page someone.
	ErrPersistenceFailure = errors.New("charged but transaction record not persisted")
)
