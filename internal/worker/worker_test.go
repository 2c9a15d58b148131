package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"shoplit/internal/domain"
	"shoplit/internal/queue"
	"shoplit/internal/repository/memory"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

// syncPublisher hands every message straight to the dispatcher.
type syncPublisher struct {
	dispatcher *Dispatcher
	fail       error
}

func (p *syncPublisher) Publish(ctx context.Context, messages [][]byte) error {
	if p.fail != nil {
		return p.fail
	}
	for _, msg := range messages {
		p.dispatcher.Handle(ctx, msg)
	}
	return nil
}

func (p *syncPublisher) Close() error { return nil }

func seedUser(t *testing.T, store *memory.Store, phone string) *domain.User {
	t.Helper()
	user := &domain.User{Name: "Ada", Email: "ada@example.com", Phone: phone}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func enqueue(t *testing.T, store *memory.Store, channel domain.DeliveryChannel, userID int64) {
	t.Helper()
	content, err := json.Marshal(domain.NotificationJob{
		Channel: channel,
		Event:   domain.EventOrderCreated,
		UserID:  userID,
		Title:   "Order placed",
		Message: "Your order #1 has been placed.",
	})
	require.NoError(t, err)
	require.NoError(t, store.EnqueueOutbox(context.Background(), content))
}

func notificationsOf(t *testing.T, store *memory.Store, userID int64) []domain.Notification {
	t.Helper()
	list, err := store.ListNotificationsByUserID(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	return list
}

func TestRelay_DeliversBothLegs(t *testing.T) {
	store := memory.NewStore()
	user := seedUser(t, store, "+2348000000000")
	sms := &mockSender{}
	sms.On("SendSMS", mock.Anything, "+2348000000000", "Your order #1 has been placed.").Return("SM1", nil).Once()

	dispatcher := NewDispatcher(nil, store, store, sms, 1, newTestLogger()).WithRetry(3, 0)
	relay := NewOutboxRelay(store, store, &syncPublisher{dispatcher: dispatcher}, 10, time.Second, newTestLogger())

	enqueue(t, store, domain.ChannelInApp, user.ID)
	enqueue(t, store, domain.ChannelSMS, user.ID)

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, store.PendingOutbox(context.Background()))

	list := notificationsOf(t, store, user.ID)
	require.Len(t, list, 1)
	assert.Equal(t, "Order placed", list[0].Title)
	assert.False(t, list[0].IsRead)
	sms.AssertExpectations(t)
}

func TestRelay_PublishFailureKeepsRowsPending(t *testing.T) {
	store := memory.NewStore()
	user := seedUser(t, store, "")
	relay := NewOutboxRelay(store, store, &syncPublisher{fail: errors.New("broker down")}, 10, time.Second, newTestLogger())

	enqueue(t, store, domain.ChannelInApp, user.ID)

	_, err := relay.RelayOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, store.PendingOutbox(context.Background()))
}

func TestRelay_RespectsBatchSize(t *testing.T) {
	store := memory.NewStore()
	user := seedUser(t, store, "")
	dispatcher := NewDispatcher(nil, store, store, &mockSender{}, 1, newTestLogger())
	relay := NewOutboxRelay(store, store, &syncPublisher{dispatcher: dispatcher}, 2, time.Second, newTestLogger())

	for i := 0; i < 3; i++ {
		enqueue(t, store, domain.ChannelInApp, user.ID)
	}

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, store.PendingOutbox(context.Background()))
}

func TestDispatcher_SMSFailureDoesNotAffectInApp(t *testing.T) {
	store := memory.NewStore()
	user := seedUser(t, store, "+2348000000000")
	sms := &mockSender{}
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("provider down")).Times(3)

	dispatcher := NewDispatcher(nil, store, store, sms, 1, newTestLogger()).WithRetry(3, 0)
	relay := NewOutboxRelay(store, store, &syncPublisher{dispatcher: dispatcher}, 10, time.Second, newTestLogger())

	enqueue(t, store, domain.ChannelSMS, user.ID)
	enqueue(t, store, domain.ChannelInApp, user.ID)

	_, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, notificationsOf(t, store, user.ID), 1)
	assert.Equal(t, 0, store.PendingOutbox(context.Background()))
	sms.AssertNumberOfCalls(t, "SendSMS", 3)
}

func TestDispatcher_SkipsSMSWithoutPhone(t *testing.T) {
	store := memory.NewStore()
	user := seedUser(t, store, "")
	sms := &mockSender{}

	dispatcher := NewDispatcher(nil, store, store, sms, 1, newTestLogger())
	payload, err := json.Marshal(domain.NotificationJob{Channel: domain.ChannelSMS, UserID: user.ID, Message: "hi"})
	require.NoError(t, err)

	dispatcher.Handle(context.Background(), payload)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_IgnoresMalformedJobs(t *testing.T) {
	store := memory.NewStore()
	dispatcher := NewDispatcher(nil, store, store, &mockSender{}, 1, newTestLogger())

	assert.True(t, dispatcher.Handle(context.Background(), []byte("not json")))
	assert.True(t, dispatcher.Handle(context.Background(), []byte(`{"channel":"email","user_id":1}`)))
}

// stubConsumer replays a fixed set of messages and records which were acked.
type stubConsumer struct {
	payloads [][]byte
	acked    []int
}

func (c *stubConsumer) Consume(ctx context.Context) (<-chan queue.Message, error) {
	out := make(chan queue.Message, len(c.payloads))
	for i, payload := range c.payloads {
		i := i
		out <- queue.NewMessage(payload, func() { c.acked = append(c.acked, i) })
	}
	close(out)
	return out, nil
}

func (c *stubConsumer) Close() error { return nil }

func TestDispatcher_ShutdownLeavesUndeliveredJobUnacked(t *testing.T) {
	store := memory.NewStore()
	user := seedUser(t, store, "+2348000000000")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sms := &mockSender{}
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return("", errors.New("provider timeout")).Once()

	inApp, err := json.Marshal(domain.NotificationJob{Channel: domain.ChannelInApp, UserID: user.ID, Title: "t", Message: "m"})
	require.NoError(t, err)
	smsJob, err := json.Marshal(domain.NotificationJob{Channel: domain.ChannelSMS, UserID: user.ID, Message: "m"})
	require.NoError(t, err)
	consumer := &stubConsumer{payloads: [][]byte{inApp, smsJob, []byte("not json")}}

	dispatcher := NewDispatcher(consumer, store, store, sms, 1, newTestLogger()).WithRetry(3, time.Minute)
	require.NoError(t, dispatcher.Run(ctx))

	assert.Contains(t, consumer.acked, 0, "delivered job is acked")
	assert.NotContains(t, consumer.acked, 1, "interrupted job stays pending for redelivery")
	sms.AssertNumberOfCalls(t, "SendSMS", 1)
}

func TestDispatcher_HandleReportsSettlement(t *testing.T) {
	store := memory.NewStore()
	user := seedUser(t, store, "+2348000000000")
	sms := &mockSender{}
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("provider down"))
	payload, err := json.Marshal(domain.NotificationJob{Channel: domain.ChannelSMS, UserID: user.ID, Message: "m"})
	require.NoError(t, err)

	dispatcher := NewDispatcher(nil, store, store, sms, 1, newTestLogger()).WithRetry(2, 0)
	assert.True(t, dispatcher.Handle(context.Background(), payload), "exhausted attempts settle the job")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dispatcher.WithRetry(2, time.Minute)
	assert.False(t, dispatcher.Handle(ctx, payload))
}

func TestDispatcher_RunConsumesQueue(t *testing.T) {
	store := memory.NewStore()
	user := seedUser(t, store, "")
	q := queue.NewMemoryQueue(8)
	defer q.Close()

	dispatcher := NewDispatcher(q, store, store, &mockSender{}, 2, newTestLogger())
	relay := NewOutboxRelay(store, store, q, 10, 10*time.Millisecond, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = dispatcher.Run(ctx)
	}()
	go func() { _ = relay.Run(ctx) }()

	enqueue(t, store, domain.ChannelInApp, user.ID)
	enqueue(t, store, domain.ChannelInApp, user.ID)

	require.Eventually(t, func() bool {
		list, err := store.ListNotificationsByUserID(context.Background(), user.ID, 100, 0)
		return err == nil && len(list) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
