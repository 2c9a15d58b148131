package usecase

import (
	"context"

	"shoplit/internal/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.NotificationUseCase = (*NotificationUseCase)(nil)

type NotificationUseCase struct {
	notificationRepo domain.NotificationRepository
	log              *logrus.Logger
}

func NewNotificationUseCase(repo domain.NotificationRepository, logger *logrus.Logger) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: repo,
		log:              logger,
	}
}

func (uc *NotificationUseCase) ListNotifications(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error) {
	limit, offset = domain.NormalizePage(limit, offset)
	notifications, err := uc.notificationRepo.ListNotificationsByUserID(ctx, userID, limit, offset)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to list notifications for user %d: %v", userID, err)
		return nil, err
	}
	return notifications, nil
}

func (uc *NotificationUseCase) GetNotification(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	return uc.notificationRepo.GetNotificationForUser(ctx, id, userID)
}

func (uc *NotificationUseCase) MarkAsRead(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	n, err := uc.notificationRepo.MarkNotificationRead(ctx, id, userID)
	if err != nil {
		uc.log.Warnf("Use Case: Marking notification %d read for user %d failed: %v", id, userID, err)
		return nil, err
	}
	return n, nil
}

func (uc *NotificationUseCase) DeleteNotification(ctx context.Context, userID, id int64) error {
	if err := uc.notificationRepo.DeleteNotification(ctx, id, userID); err != nil {
		uc.log.Warnf("Use Case: Deleting notification %d for user %d failed: %v", id, userID, err)
		return err
	}
	return nil
}
