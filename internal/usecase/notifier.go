package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"shoplit/internal/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.Notifier = (*OutboxNotifier)(nil)

// OutboxNotifier writes one outbox row per delivery leg. Rows become visible
// to the relay only when the surrounding transaction commits.
type OutboxNotifier struct {
	outbox domain.OutboxRepository
	log    *logrus.Logger
}

func NewOutboxNotifier(outbox domain.OutboxRepository, logger *logrus.Logger) *OutboxNotifier {
	return &OutboxNotifier{
		outbox: outbox,
		log:    logger,
	}
}

var channels = []domain.DeliveryChannel{domain.ChannelInApp, domain.ChannelSMS}

func (n *OutboxNotifier) enqueue(ctx context.Context, event string, userID int64, title, message string) error {
	for _, channel := range channels {
		content, err := json.Marshal(domain.NotificationJob{
			Channel: channel,
			Event:   event,
			UserID:  userID,
			Title:   title,
			Message: message,
		})
		if err != nil {
			return domain.Internal(err, "could not encode notification")
		}
		if err := n.outbox.EnqueueOutbox(ctx, content); err != nil {
			n.log.Errorf("Use Case: Failed to enqueue %s notification '%s' for user %d: %v", channel, event, userID, err)
			return err
		}
	}
	n.log.Debugf("Use Case: Enqueued '%s' notification for user %d", event, userID)
	return nil
}

func (n *OutboxNotifier) NotifyOrderCreated(ctx context.Context, order *domain.Order) error {
	return n.enqueue(ctx, domain.EventOrderCreated, order.UserID,
		"Order placed",
		fmt.Sprintf("Your order #%d has been placed. Total: %s.", order.ID, order.TotalAmount.StringFixed(2)))
}

func (n *OutboxNotifier) NotifyOrderDelivered(ctx context.Context, order *domain.Order) error {
	return n.enqueue(ctx, domain.EventOrderDelivered, order.UserID,
		"Order delivered",
		fmt.Sprintf("Your order #%d has been delivered.", order.ID))
}

func (n *OutboxNotifier) NotifyPaymentSucceeded(ctx context.Context, payment *domain.Payment) error {
	message := fmt.Sprintf("We received your payment of %s (ref %s).", payment.Amount.StringFixed(2), payment.Reference)
	if payment.OrderID != nil {
		message = fmt.Sprintf("We received your payment of %s for order #%d (ref %s).", payment.Amount.StringFixed(2), *payment.OrderID, payment.Reference)
	}
	return n.enqueue(ctx, domain.EventPaymentSucceeded, payment.UserID, "Payment successful", message)
}

func (n *OutboxNotifier) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment) error {
	return n.enqueue(ctx, domain.EventPaymentFailed, payment.UserID,
		"Payment failed",
		fmt.Sprintf("Your payment with reference %s could not be verified.", payment.Reference))
}
