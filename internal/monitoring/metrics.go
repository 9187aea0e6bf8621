package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Purchase outcomes for the purchases counter.
const (
	OutcomeCompleted          = "completed"
	OutcomeInvalidRequest     = "invalid_request"
	OutcomeCapacityExceeded   = "capacity_exceeded"
	OutcomeGatewayDeclined    = "gateway_declined"
	OutcomeGatewayUnavailable = "gateway_unavailable"
	OutcomePersistenceFailure = "persistence_failure"
	OutcomeIdempotentReplay   = "idempotent_replay"
	OutcomeChargePending      = "charge_pending"
)

var (
	purchaseAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_attempts_total",
			Help: "Purchase attempts by terminal outcome",
		},
		[]string{"outcome"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Latency of payment gateway calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"operation", "result"},
	)

	persistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "purchase_persistence_failures_total",
			Help: "Charges that succeeded at the gateway but could not be recorded",
		},
	)

	notificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notifications dropped due to a full dispatch queue",
		},
	)

	notificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notification dispatch attempts by result",
		},
		[]string{"result"},
	)

	reconciledPending = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciled_pending_total",
			Help: "Stale PENDING ledger rows resolved by the reconciliation job",
		},
		[]string{"resolution"},
	)
)

func RecordPurchase(outcome string) {
	purchaseAttempts.WithLabelValues(outcome).Inc()
}

func ObserveGatewayRequest(operation, result string, elapsed time.Duration) {
	gatewayRequestDuration.WithLabelValues(operation, result).Observe(elapsed.Seconds())
}

// RecordPersistenceFailure counts money-moved-without-a-record conditions.
// Alerting fires on any nonzero rate.
func RecordPersistenceFailure() {
	persistenceFailures.Inc()
}

func RecordNotificationDropped() {
	notificationsDropped.Inc()
}

func RecordNotificationPublished(result string) {
	notificationsPublished.WithLabelValues(result).Inc()
}

func RecordReconciledPending(resolution string) {
	reconciledPending.WithLabelValues(resolution).Inc()
}
