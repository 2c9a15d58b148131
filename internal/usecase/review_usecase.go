package usecase

import (
	"context"
	"strings"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var _ domain.ReviewUseCase = (*ReviewUseCase)(nil)

type ReviewUseCase struct {
	reviewRepo  domain.ReviewRepository
	productRepo domain.ProductRepository
	log         *logrus.Logger
}

func NewReviewUseCase(reviewRepo domain.ReviewRepository, productRepo domain.ProductRepository, logger *logrus.Logger) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		log:         logger,
	}
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return domain.Validation("rating must be between 1 and 5")
	}
	return nil
}

func (uc *ReviewUseCase) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	if err := validateRating(review.Rating); err != nil {
		return nil, err
	}
	review.Title = strings.TrimSpace(review.Title)
	review.Body = strings.TrimSpace(review.Body)
	if _, err := uc.productRepo.GetProductByID(ctx, review.ProductID); err != nil {
		return nil, err
	}

	if err := uc.reviewRepo.CreateReview(ctx, review); err != nil {
		uc.log.Warnf("Use Case: User %d could not review product %s: %v", review.UserID, review.ProductID, err)
		return nil, err
	}
	uc.log.Infof("Use Case: Review %s created by user %d for product %s", review.ID, review.UserID, review.ProductID)
	return review, nil
}

func (uc *ReviewUseCase) GetReview(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	return uc.reviewRepo.GetReviewByID(ctx, id)
}

func (uc *ReviewUseCase) ListReviews(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	if _, err := uc.productRepo.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return uc.reviewRepo.ListReviewsByProductID(ctx, productID)
}

func (uc *ReviewUseCase) authorOnly(ctx context.Context, userID int64, id uuid.UUID) (*domain.Review, error) {
	review, err := uc.reviewRepo.GetReviewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		uc.log.Warnf("Use Case: User %d attempted to modify review %s owned by user %d", userID, id, review.UserID)
		return nil, domain.Forbidden("you can only modify your own reviews")
	}
	return review, nil
}

func (uc *ReviewUseCase) UpdateReview(ctx context.Context, userID int64, id uuid.UUID, update domain.ReviewUpdate) (*domain.Review, error) {
	review, err := uc.authorOnly(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if update.Rating != nil {
		if err := validateRating(*update.Rating); err != nil {
			return nil, err
		}
		review.Rating = *update.Rating
	}
	if update.Title != nil {
		review.Title = strings.TrimSpace(*update.Title)
	}
	if update.Body != nil {
		review.Body = strings.TrimSpace(*update.Body)
	}

	if err := uc.reviewRepo.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (uc *ReviewUseCase) DeleteReview(ctx context.Context, userID int64, id uuid.UUID) error {
	if _, err := uc.authorOnly(ctx, userID, id); err != nil {
		return err
	}
	return uc.reviewRepo.DeleteReview(ctx, id)
}
