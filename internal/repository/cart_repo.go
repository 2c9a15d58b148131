package repository

import (
	"context"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var _ domain.CartRepository = (*PostgresCartRepository)(nil)

type PostgresCartRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresCartRepository(db *sqlx.DB, logger *logrus.Logger) *PostgresCartRepository {
	return &PostgresCartRepository{
		db:  db,
		log: logger,
	}
}

// Cart items are joined with products so UnitPrice is always the live price.
const cartItemSelect = `
        SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, p.price AS unit_price, ci.created_at, ci.updated_at
        FROM cart_items ci
        JOIN products p ON p.id = ci.product_id`

func (r *PostgresCartRepository) GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	var cart domain.Cart
	query := `
        INSERT INTO carts (user_id) VALUES ($1)
        ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING id, user_id, created_at, updated_at`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &cart, query, userID); err != nil {
		r.log.Errorf("Repository: Failed to get or create cart for user %d: %v", userID, err)
		if pqCode(err) == pqForeignKeyViolation {
			return nil, domain.Validation("user with id %d does not exist", userID)
		}
		return nil, translate(err, "cart")
	}

	items := make([]domain.CartItem, 0)
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &items, cartItemSelect+` WHERE ci.cart_id = $1 ORDER BY ci.id`, cart.ID); err != nil {
		r.log.Errorf("Repository: Failed to load items of cart %d: %v", cart.ID, err)
		return nil, translate(err, "cart item")
	}
	cart.Items = items
	cart.RecalculateTotal()
	return &cart, nil
}

func (r *PostgresCartRepository) getItem(ctx context.Context, cartID, itemID int64) (*domain.CartItem, error) {
	var item domain.CartItem
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &item, cartItemSelect+` WHERE ci.id = $1 AND ci.cart_id = $2`, itemID, cartID)
	if err != nil {
		return nil, translate(err, "cart item")
	}
	return &item, nil
}

// AddCartItem merges with an existing line for the same product.
func (r *PostgresCartRepository) AddCartItem(ctx context.Context, cartID int64, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	query := `
        INSERT INTO cart_items (cart_id, product_id, quantity)
        VALUES ($1, $2, $3)
        ON CONFLICT (cart_id, product_id)
        DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
        RETURNING id`
	var itemID int64
	if err := conn(ctx, r.db).QueryRowxContext(ctx, query, cartID, productID, quantity).Scan(&itemID); err != nil {
		r.log.Errorf("Repository: Failed to add product %s to cart %d: %v", productID, cartID, err)
		if pqCode(err) == pqForeignKeyViolation {
			return nil, domain.Validation("product with id %s does not exist", productID)
		}
		return nil, translate(err, "cart item")
	}
	return r.getItem(ctx, cartID, itemID)
}

func (r *PostgresCartRepository) GetCartItem(ctx context.Context, cartID, itemID int64) (*domain.CartItem, error) {
	return r.getItem(ctx, cartID, itemID)
}

func (r *PostgresCartRepository) UpdateCartItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (*domain.CartItem, error) {
	err := execOne(ctx, r.db, "cart item",
		`UPDATE cart_items SET quantity = $3, updated_at = NOW() WHERE id = $1 AND cart_id = $2`, itemID, cartID, quantity)
	if err != nil {
		return nil, err
	}
	return r.getItem(ctx, cartID, itemID)
}

func (r *PostgresCartRepository) RemoveCartItem(ctx context.Context, cartID, itemID int64) error {
	return execOne(ctx, r.db, "cart item", `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
}

func (r *PostgresCartRepository) ClearCart(ctx context.Context, cartID int64) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		r.log.Errorf("Repository: Failed to clear cart %d: %v", cartID, err)
		return translate(err, "cart")
	}
	return nil
}
