package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"shoplit/internal/domain"
	"shoplit/internal/queue"

	"github.com/sirupsen/logrus"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

// NotificationDeliveryError is logged when a delivery leg gives up. It never
// reaches the operation that produced the notification.
type NotificationDeliveryError struct {
	Channel  domain.DeliveryChannel
	Event    string
	UserID   int64
	Attempts int
	Err      error
}

func (e *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("%s delivery of '%s' to user %d failed after %d attempts: %v", e.Channel, e.Event, e.UserID, e.Attempts, e.Err)
}

func (e *NotificationDeliveryError) Unwrap() error {
	return e.Err
}

// Dispatcher runs a pool of workers that deliver notification jobs. Every
// message is acknowledged after its leg succeeds or exhausts its attempts.
type Dispatcher struct {
	consumer      queue.Consumer
	notifications domain.NotificationRepository
	users         domain.UserRepository
	sms           domain.SmsSender
	workers       int
	maxAttempts   int
	retryDelay    time.Duration
	log           *logrus.Logger
}

func NewDispatcher(
	consumer queue.Consumer,
	notifications domain.NotificationRepository,
	users domain.UserRepository,
	sms domain.SmsSender,
	workers int,
	logger *logrus.Logger,
) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		consumer:      consumer,
		notifications: notifications,
		users:         users,
		sms:           sms,
		workers:       workers,
		maxAttempts:   defaultMaxAttempts,
		retryDelay:    defaultRetryDelay,
		log:           logger,
	}
}

// WithRetry overrides the per-leg attempt budget and the pause between attempts.
func (d *Dispatcher) WithRetry(maxAttempts int, delay time.Duration) *Dispatcher {
	if maxAttempts > 0 {
		d.maxAttempts = maxAttempts
	}
	d.retryDelay = delay
	return d
}

// Run blocks until ctx is cancelled and every worker has drained.
func (d *Dispatcher) Run(ctx context.Context) error {
	messages, err := d.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	d.log.Infof("Worker: Starting %d notification workers", d.workers)

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for msg := range messages {
				if d.Handle(ctx, msg.Payload) {
					msg.Ack()
				}
			}
			d.log.Debugf("Worker: Notification worker %d stopped", id)
		}(i)
	}
	wg.Wait()
	return nil
}

// Handle delivers one job and reports whether it is settled: delivered,
// dropped, or out of attempts. A job interrupted by cancellation is not
// settled and must stay unacknowledged so it is redelivered. Delivery
// failures are logged, never returned.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte) bool {
	var job domain.NotificationJob
	if err := json.Unmarshal(payload, &job); err != nil {
		d.log.Errorf("Worker: Dropping undecodable notification job: %v", err)
		return true
	}

	var deliver func(context.Context, domain.NotificationJob) error
	switch job.Channel {
	case domain.ChannelInApp:
		deliver = d.deliverInApp
	case domain.ChannelSMS:
		deliver = d.deliverSMS
	default:
		d.log.Warnf("Worker: Dropping job with unknown channel '%s'", job.Channel)
		return true
	}

	attempts, err := d.withRetry(ctx, job, deliver)
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		d.log.Warnf("Worker: %s delivery of '%s' to user %d interrupted by shutdown, leaving it for redelivery: %v",
			job.Channel, job.Event, job.UserID, err)
		return false
	}
	deliveryErr := &NotificationDeliveryError{
		Channel:  job.Channel,
		Event:    job.Event,
		UserID:   job.UserID,
		Attempts: attempts,
		Err:      err,
	}
	d.log.WithFields(logrus.Fields{
		"channel": job.Channel,
		"event":   job.Event,
		"user_id": job.UserID,
	}).Error("Worker: " + deliveryErr.Error())
	return true
}

// withRetry stops early on validation errors and on cancellation.
func (d *Dispatcher) withRetry(ctx context.Context, job domain.NotificationJob, deliver func(context.Context, domain.NotificationJob) error) (int, error) {
	var err error
	for attempt := 1; ; attempt++ {
		if err = deliver(ctx, job); err == nil {
			return attempt, nil
		}
		if attempt >= d.maxAttempts || domain.KindOf(err) == domain.KindValidation {
			return attempt, err
		}
		d.log.Warnf("Worker: %s delivery of '%s' to user %d failed (attempt %d): %v", job.Channel, job.Event, job.UserID, attempt, err)
		select {
		case <-time.After(d.retryDelay):
		case <-ctx.Done():
			return attempt, ctx.Err()
		}
	}
}

func (d *Dispatcher) deliverInApp(ctx context.Context, job domain.NotificationJob) error {
	return d.notifications.CreateNotification(ctx, &domain.Notification{
		UserID:  job.UserID,
		Title:   job.Title,
		Message: job.Message,
	})
}

func (d *Dispatcher) deliverSMS(ctx context.Context, job domain.NotificationJob) error {
	user, err := d.users.GetUserByID(ctx, job.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			d.log.Warnf("Worker: Skipping SMS for missing user %d", job.UserID)
			return nil
		}
		return err
	}
	if user.Phone == "" {
		d.log.Debugf("Worker: User %d has no phone number, skipping SMS", job.UserID)
		return nil
	}
	sid, err := d.sms.SendSMS(ctx, user.Phone, job.Message)
	if err != nil {
		return err
	}
	d.log.Infof("Worker: SMS '%s' sent to user %d (sid %s)", job.Event, job.UserID, sid)
	return nil
}
