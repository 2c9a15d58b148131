package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ReviewUpdate struct {
	Title  *string
	Body   *string
	Rating *int
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, review *Review) error
	GetReviewByID(ctx context.Context, id uuid.UUID) (*Review, error)
	ListReviewsByProductID(ctx context.Context, productID uuid.UUID) ([]Review, error)
	UpdateReview(ctx context.Context, review *Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
}

type ReviewUseCase interface {
	CreateReview(ctx context.Context, review *Review) (*Review, error)
	GetReview(ctx context.Context, id uuid.UUID) (*Review, error)
	ListReviews(ctx context.Context, productID uuid.UUID) ([]Review, error)
	UpdateReview(ctx context.Context, userID int64, id uuid.UUID, update ReviewUpdate) (*Review, error)
	DeleteReview(ctx context.Context, userID int64, id uuid.UUID) error
}
