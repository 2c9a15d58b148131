package memory

import (
	"context"
	"strings"

	"shoplit/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.do(ctx, func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return domain.Conflict("user with email %s already exists", user.Email)
			}
		}
		now := s.now()
		user.ID = st.nextID()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var found *domain.User
	err := s.do(ctx, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				user := u
				found = &user
				return nil
			}
		}
		return domain.NotFound("user with email %s not found", email)
	})
	return found, err
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var found *domain.User
	err := s.do(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.NotFound("user with id %d not found", id)
		}
		found = &u
		return nil
	})
	return found, err
}
