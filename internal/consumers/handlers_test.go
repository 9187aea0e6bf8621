package consumers

import (
	"context"
	"errors"
	"testing"
	"time"

	"tiketi/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeUserStore struct {
	users   map[int64]*models.User
	err     error
	lookups []int64
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.lookups = append(f.lookups, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

type fakeAcker struct {
	err   error
	acked int
}

func (f *fakeAcker) Ack() error {
	f.acked++
	return f.err
}

func notification(recipientID int64) models.NotificationMessage {
	return models.NotificationMessage{
		RecipientID: recipientID,
		Message:     "SUCCESS transaction for event 1",
		Timestamp:   time.Now(),
	}
}

func TestDeliverNotificationResolvesRecipient(t *testing.T) {
	store := &fakeUserStore{users: map[int64]*models.User{
		20: {UserID: 20, Email: "buyer@example.com", IsActive: true},
	}}
	h := &Handlers{users: store}

	delivered := h.deliverNotification(context.Background(), notification(20))

	assert.True(t, delivered)
	assert.Equal(t, []int64{20}, store.lookups)
}

func TestDeliverNotificationDropsUnknownRecipient(t *testing.T) {
	store := &fakeUserStore{users: map[int64]*models.User{}}
	h := &Handlers{users: store}

	// Unknown recipient is dropped, not retried
	assert.True(t, h.deliverNotification(context.Background(), notification(99)))
}

func TestDeliverNotificationDropsInactiveRecipient(t *testing.T) {
	store := &fakeUserStore{users: map[int64]*models.User{
		20: {UserID: 20, Email: "buyer@example.com", IsActive: false},
	}}
	h := &Handlers{users: store}

	assert.True(t, h.deliverNotification(context.Background(), notification(20)))
}

func TestDeliverNotificationRetriesOnLookupError(t *testing.T) {
	store := &fakeUserStore{err: errors.New("connection reset")}
	h := &Handlers{users: store}

	// Lookup failure leaves the message unacked for redelivery
	assert.False(t, h.deliverNotification(context.Background(), notification(20)))
}

func TestAckSurvivesErrors(t *testing.T) {
	failing := &fakeAcker{err: errors.New("ack timeout")}

	assert.NotPanics(t, func() { ack(failing) })
	assert.Equal(t, 1, failing.acked)
}
