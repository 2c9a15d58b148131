package repository

import (
	"context"

	"shoplit/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	_ domain.NotificationRepository = (*PostgresNotificationRepository)(nil)
	_ domain.OutboxRepository       = (*PostgresNotificationRepository)(nil)
)

// PostgresNotificationRepository stores delivered in-app notifications and
// the outbox rows that feed the relay.
type PostgresNotificationRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresNotificationRepository(db *sqlx.DB, logger *logrus.Logger) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{
		db:  db,
		log: logger,
	}
}

const notificationColumns = `id, user_id, title, message, is_read, created_at, updated_at`

func (r *PostgresNotificationRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	query := `
        INSERT INTO notifications (user_id, title, message, is_read)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, n.UserID, n.Title, n.Message, n.IsRead).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return domain.Validation("user with id %d does not exist", n.UserID)
		}
		r.log.Errorf("Repository: Failed to create notification for user %d: %v", n.UserID, err)
		return translate(err, "notification")
	}
	return nil
}

func (r *PostgresNotificationRepository) GetNotificationForUser(ctx context.Context, id, userID int64) (*domain.Notification, error) {
	var n domain.Notification
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1 AND user_id = $2`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &n, query, id, userID); err != nil {
		return nil, translate(err, "notification")
	}
	return &n, nil
}

func (r *PostgresNotificationRepository) ListNotificationsByUserID(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error) {
	limit, offset = domain.NormalizePage(limit, offset)
	list := make([]domain.Notification, 0)
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &list, query, userID, limit, offset); err != nil {
		r.log.Errorf("Repository: Failed to list notifications for user %d: %v", userID, err)
		return nil, translate(err, "notification")
	}
	return list, nil
}

func (r *PostgresNotificationRepository) MarkNotificationRead(ctx context.Context, id, userID int64) (*domain.Notification, error) {
	var n domain.Notification
	query := `
        UPDATE notifications SET is_read = TRUE, updated_at = NOW()
        WHERE id = $1 AND user_id = $2
        RETURNING ` + notificationColumns
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &n, query, id, userID); err != nil {
		return nil, translate(err, "notification")
	}
	return &n, nil
}

func (r *PostgresNotificationRepository) DeleteNotification(ctx context.Context, id, userID int64) error {
	return execOne(ctx, r.db, "notification", `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *PostgresNotificationRepository) EnqueueOutbox(ctx context.Context, content []byte) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO notification_outbox (content, status) VALUES ($1, $2)`, content, domain.OutboxPending)
	if err != nil {
		r.log.Errorf("Repository: Failed to enqueue outbox message: %v", err)
		return translate(err, "outbox message")
	}
	return nil
}

// FetchPendingOutbox skips rows another relay already holds.
func (r *PostgresNotificationRepository) FetchPendingOutbox(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	messages := make([]domain.OutboxMessage, 0)
	query := `SELECT id, content, status, created_at, updated_at FROM notification_outbox WHERE status = $1 ORDER BY id`
	args := []interface{}{domain.OutboxPending}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	if inTx(ctx) {
		query += ` FOR UPDATE SKIP LOCKED`
	}
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &messages, query, args...); err != nil {
		r.log.Errorf("Repository: Failed to fetch pending outbox messages: %v", err)
		return nil, translate(err, "outbox message")
	}
	return messages, nil
}

func (r *PostgresNotificationRepository) MarkOutboxDone(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE notification_outbox SET status = ?, updated_at = NOW() WHERE id IN (?)`, domain.OutboxCompleted, ids)
	if err != nil {
		return domain.Internal(err, "could not build outbox update")
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		r.log.Errorf("Repository: Failed to mark %d outbox messages done: %v", len(ids), err)
		return translate(err, "outbox message")
	}
	return nil
}
