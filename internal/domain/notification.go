package domain

import (
	"context"
	"time"
)

type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type DeliveryChannel string

const (
	ChannelInApp DeliveryChannel = "in_app"
	ChannelSMS   DeliveryChannel = "sms"
)

const (
	EventOrderCreated     = "order.created"
	EventOrderDelivered   = "order.delivered"
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// NotificationJob is one delivery leg of an event. Each leg is queued,
// retried and failed on its own.
type NotificationJob struct {
	Channel DeliveryChannel `json:"channel"`
	Event   string          `json:"event"`
	UserID  int64           `json:"user_id"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
}

type OutboxStatus int

const (
	OutboxPending   OutboxStatus = 1
	OutboxCompleted OutboxStatus = 2
)

type OutboxMessage struct {
	ID        int64        `db:"id"`
	Content   []byte       `db:"content"`
	Status    OutboxStatus `db:"status"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetNotificationForUser(ctx context.Context, id, userID int64) (*Notification, error)
	ListNotificationsByUserID(ctx context.Context, userID int64, limit, offset int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) (*Notification, error)
	DeleteNotification(ctx context.Context, id, userID int64) error
}

type OutboxRepository interface {
	EnqueueOutbox(ctx context.Context, content []byte) error
	// FetchPendingOutbox locks the returned rows until the surrounding
	// transaction ends.
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxDone(ctx context.Context, ids []int64) error
}

// Notifier enqueues the delivery legs of an event inside the caller's
// transaction.
type Notifier interface {
	NotifyOrderCreated(ctx context.Context, order *Order) error
	NotifyOrderDelivered(ctx context.Context, order *Order) error
	NotifyPaymentSucceeded(ctx context.Context, payment *Payment) error
	NotifyPaymentFailed(ctx context.Context, payment *Payment) error
}

type SmsSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type NotificationUseCase interface {
	ListNotifications(ctx context.Context, userID int64, limit, offset int) ([]Notification, error)
	GetNotification(ctx context.Context, userID, id int64) (*Notification, error)
	MarkAsRead(ctx context.Context, userID, id int64) (*Notification, error)
	DeleteNotification(ctx context.Context, userID, id int64) error
}
