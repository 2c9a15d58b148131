package repository

import (
	"context"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var _ domain.ReviewRepository = (*PostgresReviewRepository)(nil)

type PostgresReviewRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresReviewRepository(db *sqlx.DB, logger *logrus.Logger) *PostgresReviewRepository {
	return &PostgresReviewRepository{
		db:  db,
		log: logger,
	}
}

const reviewColumns = `id, user_id, product_id, title, body, rating, created_at, updated_at`

func (r *PostgresReviewRepository) CreateReview(ctx context.Context, review *domain.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	query := `
        INSERT INTO reviews (id, user_id, product_id, title, body, rating)
        VALUES (:id, :user_id, :product_id, :title, :body, :rating)`
	if _, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, review); err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return domain.Conflict("user %d has already reviewed product %s", review.UserID, review.ProductID)
		case pqForeignKeyViolation:
			return domain.Validation("product with id %s does not exist", review.ProductID)
		}
		r.log.Errorf("Repository: Failed to create review for product %s: %v", review.ProductID, err)
		return translate(err, "review")
	}
	created, err := r.GetReviewByID(ctx, review.ID)
	if err != nil {
		return err
	}
	*review = *created
	return nil
}

func (r *PostgresReviewRepository) GetReviewByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &review, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id); err != nil {
		return nil, translate(err, "review")
	}
	return &review, nil
}

func (r *PostgresReviewRepository) ListReviewsByProductID(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	reviews := make([]domain.Review, 0)
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &reviews, query, productID); err != nil {
		r.log.Errorf("Repository: Failed to list reviews for product %s: %v", productID, err)
		return nil, translate(err, "review")
	}
	return reviews, nil
}

func (r *PostgresReviewRepository) UpdateReview(ctx context.Context, review *domain.Review) error {
	query := `
        UPDATE reviews SET title = $2, body = $3, rating = $4, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + reviewColumns
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), review, query, review.ID, review.Title, review.Body, review.Rating); err != nil {
		return translate(err, "review")
	}
	return nil
}

func (r *PostgresReviewRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, "review", `DELETE FROM reviews WHERE id = $1`, id)
}
