package memory

import (
	"context"
	"sort"

	"shoplit/internal/domain"
)

func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.users[n.UserID]; !ok {
			return domain.Validation("user with id %d does not exist", n.UserID)
		}
		now := s.now()
		n.ID = st.nextID()
		n.CreatedAt, n.UpdatedAt = now, now
		st.notifications[n.ID] = *n
		return nil
	})
}

func (s *Store) GetNotificationForUser(ctx context.Context, id, userID int64) (*domain.Notification, error) {
	var found *domain.Notification
	err := s.do(ctx, func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.UserID != userID {
			return domain.NotFound("notification with id %d not found", id)
		}
		found = &n
		return nil
	})
	return found, err
}

func (s *Store) ListNotificationsByUserID(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := s.do(ctx, func(st *state) error {
		matched := make([]domain.Notification, 0)
		for _, n := range st.notifications {
			if n.UserID == userID {
				matched = append(matched, n)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
		notifications = paginate(matched, limit, offset)
		return nil
	})
	return notifications, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID int64) (*domain.Notification, error) {
	var updated *domain.Notification
	err := s.do(ctx, func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.UserID != userID {
			return domain.NotFound("notification with id %d not found", id)
		}
		n.IsRead = true
		n.UpdatedAt = s.now()
		st.notifications[id] = n
		updated = &n
		return nil
	})
	return updated, err
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID int64) error {
	return s.do(ctx, func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.UserID != userID {
			return domain.NotFound("notification with id %d not found", id)
		}
		delete(st.notifications, id)
		return nil
	})
}

func (s *Store) EnqueueOutbox(ctx context.Context, content []byte) error {
	return s.do(ctx, func(st *state) error {
		now := s.now()
		msg := domain.OutboxMessage{
			ID:        st.nextID(),
			Content:   append([]byte(nil), content...),
			Status:    domain.OutboxPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.outbox[msg.ID] = msg
		return nil
	})
}

func (s *Store) FetchPendingOutbox(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	var messages []domain.OutboxMessage
	err := s.do(ctx, func(st *state) error {
		messages = make([]domain.OutboxMessage, 0)
		for _, msg := range st.outbox {
			if msg.Status == domain.OutboxPending {
				messages = append(messages, msg)
			}
		}
		sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
		if limit > 0 && len(messages) > limit {
			messages = messages[:limit]
		}
		return nil
	})
	return messages, err
}

func (s *Store) MarkOutboxDone(ctx context.Context, ids []int64) error {
	return s.do(ctx, func(st *state) error {
		now := s.now()
		for _, id := range ids {
			msg, ok := st.outbox[id]
			if !ok {
				continue
			}
			msg.Status = domain.OutboxCompleted
			msg.UpdatedAt = now
			st.outbox[id] = msg
		}
		return nil
	})
}

// PendingOutbox reports how many outbox rows still wait for the relay.
func (s *Store) PendingOutbox(ctx context.Context) int {
	count := 0
	_ = s.do(ctx, func(st *state) error {
		for _, msg := range st.outbox {
			if msg.Status == domain.OutboxPending {
				count++
			}
		}
		return nil
	})
	return count
}
