package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"tiketi/internal/external"
	"tiketi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLedger struct {
	stale     []models.TransactionLog
	succeeded map[int64]string
	failed    map[int64]string
}

func newStubLedger(stale ...models.TransactionLog) *stubLedger {
	return &stubLedger{
		stale:     stale,
		succeeded: make(map[int64]string),
		failed:    make(map[int64]string),
	}
}

func (s *stubLedger) ListStalePending(_ context.Context, _ time.Time) ([]models.TransactionLog, error) {
	return s.stale, nil
}

func (s *stubLedger) MarkSucceeded(_ context.Context, id int64, reference string, _ int64) (bool, error) {
	s.succeeded[id] = reference
	return true, nil
}

func (s *stubLedger) MarkFailed(_ context.Context, id int64, _ *string, message string) (bool, error) {
	s.failed[id] = message
	return true, nil
}

type stubChecker struct {
	outcomes map[string]*external.ChargeOutcome
	err      error
}

func (s *stubChecker) Check(_ context.Context, orderID string) (*external.ChargeOutcome, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.outcomes[orderID], nil
}

type stubDispatcher struct {
	notified  map[int64][]string
	completed []string
	failed    []string
}

func newStubDispatcher() *stubDispatcher {
	return &stubDispatcher{notified: make(map[int64][]string)}
}

func (s *stubDispatcher) Notify(recipientID int64, message string) {
	s.notified[recipientID] = append(s.notified[recipientID], message)
}

func (s *stubDispatcher) PublishCompleted(log *models.TransactionLog) {
	s.completed = append(s.completed, log.OrderID)
}

func (s *stubDispatcher) PublishFailed(log *models.TransactionLog, _ string) {
	s.failed = append(s.failed, log.OrderID)
}

func staleLog(id int64, orderID string) models.TransactionLog {
	return models.TransactionLog{
		ID:        id,
		OrderID:   orderID,
		EventID:   1,
		CreatorID: 10,
		PayerID:   20,
		Status:    models.StatusPending,
		CreatedAt: time.Now().Add(-time.Hour),
	}
}

func TestSweepSettlesConfirmedCharge(t *testing.T) {
	ledger := newStubLedger(staleLog(1, "order-1"))
	checker := &stubChecker{outcomes: map[string]*external.ChargeOutcome{
		"order-1": {Status: external.OutcomeSucceeded, Reference: "ref-1", Fee: 30},
	}}
	dispatcher := newStubDispatcher()

	job := NewPendingReconciliationJob(ledger, checker, dispatcher, time.Minute)
	job.sweep(context.Background())

	assert.Equal(t, "ref-1", ledger.succeeded[1])
	assert.Empty(t, ledger.failed)
	assert.Equal(t, []string{"SUCCESS transaction for event 1"}, dispatcher.notified[20])
	assert.Equal(t, []string{"SUCCESS transaction for event 1"}, dispatcher.notified[10])
	assert.Equal(t, []string{"order-1"}, dispatcher.completed)
}

func TestSweepReleasesDeclinedCharge(t *testing.T) {
	ledger := newStubLedger(staleLog(2, "order-2"))
	checker := &stubChecker{outcomes: map[string]*external.ChargeOutcome{
		"order-2": {Status: external.OutcomeDeclined, Message: "Card expired"},
	}}
	dispatcher := newStubDispatcher()

	job := NewPendingReconciliationJob(ledger, checker, dispatcher, time.Minute)
	job.sweep(context.Background())

	assert.Empty(t, ledger.succeeded)
	assert.Equal(t, "Card expired", ledger.failed[2])
	assert.Equal(t, []string{"FAILED transaction for event 1"}, dispatcher.notified[20])
	assert.Equal(t, []string{"order-2"}, dispatcher.failed)
	assert.Empty(t, dispatcher.completed)
}

func TestSweepReleasesUnacknowledgedCharge(t *testing.T) {
	ledger := newStubLedger(staleLog(3, "order-3"))
	checker := &stubChecker{outcomes: map[string]*external.ChargeOutcome{
		"order-3": {Status: external.OutcomeDeclined},
	}}

	job := NewPendingReconciliationJob(ledger, checker, newStubDispatcher(), time.Minute)
	job.sweep(context.Background())

	assert.Equal(t, "expired without gateway acknowledgement", ledger.failed[3])
}

func TestSweepLeavesInFlightCharge(t *testing.T) {
	ledger := newStubLedger(staleLog(4, "order-4"))
	checker := &stubChecker{outcomes: map[string]*external.ChargeOutcome{
		"order-4": {Status: external.OutcomePending},
	}}
	dispatcher := newStubDispatcher()

	job := NewPendingReconciliationJob(ledger, checker, dispatcher, time.Minute)
	job.sweep(context.Background())

	assert.Empty(t, ledger.succeeded)
	assert.Empty(t, ledger.failed)
	assert.Empty(t, dispatcher.notified)
}

func TestSweepLeavesRowWhenGatewayDown(t *testing.T) {
	ledger := newStubLedger(staleLog(5, "order-5"))
	checker := &stubChecker{err: errors.New("connection refused")}

	job := NewPendingReconciliationJob(ledger, checker, newStubDispatcher(), time.Minute)
	job.sweep(context.Background())

	assert.Empty(t, ledger.succeeded)
	assert.Empty(t, ledger.failed)
}

func TestSweepReconcilesEveryStaleRow(t *testing.T) {
	ledger := newStubLedger(staleLog(6, "order-6"), staleLog(7, "order-7"))
	checker := &stubChecker{outcomes: map[string]*external.ChargeOutcome{
		"order-6": {Status: external.OutcomeSucceeded, Reference: "ref-6"},
		"order-7": {Status: external.OutcomeDeclined, Message: "Declined"},
	}}

	job := NewPendingReconciliationJob(ledger, checker, newStubDispatcher(), time.Minute)
	job.sweep(context.Background())

	require.Len(t, ledger.succeeded, 1)
	require.Len(t, ledger.failed, 1)
	assert.Equal(t, "ref-6", ledger.succeeded[6])
	assert.Equal(t, "Declined", ledger.failed[7])
}
