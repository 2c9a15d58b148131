package repository

import (
	"context"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var _ domain.WishlistRepository = (*PostgresWishlistRepository)(nil)

type PostgresWishlistRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresWishlistRepository(db *sqlx.DB, logger *logrus.Logger) *PostgresWishlistRepository {
	return &PostgresWishlistRepository{
		db:  db,
		log: logger,
	}
}

func (r *PostgresWishlistRepository) GetOrCreateWishlist(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	var wishlist domain.Wishlist
	query := `
        INSERT INTO wishlists (user_id) VALUES ($1)
        ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING id, user_id, created_at, updated_at`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &wishlist, query, userID); err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return nil, domain.Validation("user with id %d does not exist", userID)
		}
		r.log.Errorf("Repository: Failed to get or create wishlist for user %d: %v", userID, err)
		return nil, translate(err, "wishlist")
	}

	products := make([]domain.Product, 0)
	productsQuery := `
        SELECT p.id, p.name, p.description, p.price, p.stock_quantity, p.category_id, p.subcategory_id,
               p.is_active, p.created_at, p.updated_at
        FROM wishlist_products wp
        JOIN products p ON p.id = wp.product_id
        WHERE wp.wishlist_id = $1
        ORDER BY wp.added_at`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &products, productsQuery, wishlist.ID); err != nil {
		r.log.Errorf("Repository: Failed to load products of wishlist %d: %v", wishlist.ID, err)
		return nil, translate(err, "wishlist")
	}
	wishlist.Products = products
	return &wishlist, nil
}

func (r *PostgresWishlistRepository) AddWishlistProduct(ctx context.Context, wishlistID int64, productID uuid.UUID) error {
	query := `
        INSERT INTO wishlist_products (wishlist_id, product_id) VALUES ($1, $2)
        ON CONFLICT (wishlist_id, product_id) DO NOTHING`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, wishlistID, productID); err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return domain.Validation("product with id %s does not exist", productID)
		}
		return translate(err, "wishlist")
	}
	return nil
}

func (r *PostgresWishlistRepository) RemoveWishlistProduct(ctx context.Context, wishlistID int64, productID uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM wishlist_products WHERE wishlist_id = $1 AND product_id = $2`, wishlistID, productID)
	if err != nil {
		return translate(err, "wishlist")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("product %s is not in the wishlist", productID)
	}
	return nil
}
