package memory

import (
	"context"
	"sort"

	"shoplit/internal/domain"

	"github.com/google/uuid"
)

func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.products[review.ProductID]; !ok {
			return domain.Validation("product with id %s does not exist", review.ProductID)
		}
		for _, r := range st.reviews {
			if r.UserID == review.UserID && r.ProductID == review.ProductID {
				return domain.Conflict("user %d has already reviewed product %s", review.UserID, review.ProductID)
			}
		}
		if review.ID == uuid.Nil {
			review.ID = uuid.New()
		}
		now := s.now()
		review.CreatedAt, review.UpdatedAt = now, now
		st.reviews[review.ID] = *review
		return nil
	})
}

func (s *Store) GetReviewByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var found *domain.Review
	err := s.do(ctx, func(st *state) error {
		r, ok := st.reviews[id]
		if !ok {
			return domain.NotFound("review with id %s not found", id)
		}
		found = &r
		return nil
	})
	return found, err
}

func (s *Store) ListReviewsByProductID(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	var reviews []domain.Review
	err := s.do(ctx, func(st *state) error {
		reviews = make([]domain.Review, 0)
		for _, r := range st.reviews {
			if r.ProductID == productID {
				reviews = append(reviews, r)
			}
		}
		sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
		return nil
	})
	return reviews, err
}

func (s *Store) UpdateReview(ctx context.Context, review *domain.Review) error {
	return s.do(ctx, func(st *state) error {
		existing, ok := st.reviews[review.ID]
		if !ok {
			return domain.NotFound("review with id %s not found", review.ID)
		}
		existing.Title = review.Title
		existing.Body = review.Body
		existing.Rating = review.Rating
		existing.UpdatedAt = s.now()
		st.reviews[review.ID] = existing
		*review = existing
		return nil
	})
}

func (s *Store) DeleteReview(ctx context.Context, id uuid.UUID) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.reviews[id]; !ok {
			return domain.NotFound("review with id %s not found", id)
		}
		delete(st.reviews, id)
		return nil
	})
}
