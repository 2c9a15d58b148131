package repository

import (
	"context"
	"database/sql"
	"errors"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

type PostgresOrderRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresOrderRepository(db *sqlx.DB, logger *logrus.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:  db,
		log: logger,
	}
}

const (
	orderColumns     = `id, user_id, status, created_at, updated_at`
	orderItemColumns = `id, order_id, product_id, quantity, unit_price, price, created_at, updated_at`
)

func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	query := `
        INSERT INTO orders (user_id, status)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, order.UserID, order.Status).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.log.Errorf("Repository: Failed to insert order for user %d: %v", order.UserID, err)
		if pqCode(err) == pqForeignKeyViolation {
			return domain.Validation("user with id %d does not exist", order.UserID)
		}
		return translate(err, "order")
	}
	r.log.Infof("Repository: Order entry created with ID: %d for user: %d", order.ID, order.UserID)
	return nil
}

// getOrder locks the order row when called inside a transaction so that
// concurrent edits of one order are serialised.
func (r *PostgresOrderRepository) getOrder(ctx context.Context, query string, args ...interface{}) (*domain.Order, error) {
	var order domain.Order
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &order, query+lockSuffix(ctx), args...); err != nil {
		return nil, translate(err, "order")
	}
	items, err := r.getOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.RecalculateTotal()
	return &order, nil
}

func (r *PostgresOrderRepository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		r.log.Debugf("Repository: Failed to get order by ID %d: %v", id, err)
		return nil, err
	}
	return order, nil
}

func (r *PostgresOrderRepository) GetOrderForUser(ctx context.Context, id, userID int64) (*domain.Order, error) {
	order, err := r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.log.Debugf("Repository: Failed to get order %d for user %d: %v", id, userID, err)
		return nil, err
	}
	return order, nil
}

func (r *PostgresOrderRepository) getOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0)
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &items, query, orderID); err != nil {
		r.log.Errorf("Repository: Failed to query order items for order ID %d: %v", orderID, err)
		return nil, translate(err, "order item")
	}
	r.log.Debugf("Repository: Retrieved %d items for order ID %d", len(items), orderID)
	return items, nil
}

func (r *PostgresOrderRepository) ListOrdersByUserID(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error) {
	limit, offset = domain.NormalizePage(limit, offset)
	orders := make([]domain.Order, 0)
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &orders, query, userID, limit, offset); err != nil {
		r.log.Errorf("Repository: Failed to list orders for user %d: %v", userID, err)
		return nil, translate(err, "order")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	itemsQuery, args, err := sqlx.In(`SELECT `+orderItemColumns+` FROM order_items WHERE order_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, domain.Internal(err, "could not build order items query")
	}
	var items []domain.OrderItem
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &items, r.db.Rebind(itemsQuery), args...); err != nil {
		r.log.Errorf("Repository: Failed to load items for %d orders: %v", len(orders), err)
		return nil, translate(err, "order item")
	}

	byOrder := make(map[int64][]domain.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
		orders[i].RecalculateTotal()
	}
	return orders, nil
}

func (r *PostgresOrderRepository) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	err := execOne(ctx, r.db, "order", `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		r.log.Warnf("Repository: Failed to update status of order %d to '%s': %v", id, status, err)
		return err
	}
	r.log.Infof("Repository: Order %d status updated to '%s'", id, status)
	return nil
}

func (r *PostgresOrderRepository) DeleteOrder(ctx context.Context, id int64) error {
	if err := execOne(ctx, r.db, "order", `DELETE FROM orders WHERE id = $1`, id); err != nil {
		r.log.Warnf("Repository: Failed to delete order %d: %v", id, err)
		return err
	}
	r.log.Infof("Repository: Order %d deleted", id)
	return nil
}

func (r *PostgresOrderRepository) FindOrderItem(ctx context.Context, orderID int64, productID uuid.UUID) (*domain.OrderItem, error) {
	var item domain.OrderItem
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 AND product_id = $2` + lockSuffix(ctx)
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &item, query, orderID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "order item")
	}
	return &item, nil
}

func (r *PostgresOrderRepository) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
        INSERT INTO order_items (order_id, product_id, quantity, unit_price, price)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Price).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		r.log.Errorf("Repository: Failed to insert order item (product_id: %s, quantity: %d) for order %d: %v",
			item.ProductID, item.Quantity, item.OrderID, err)
		if pqCode(err) == pqUniqueViolation {
			return domain.Conflict("order %d already contains product %s", item.OrderID, item.ProductID)
		}
		return translate(err, "order item")
	}
	r.log.Infof("Repository: Order item inserted for order %d, product %s", item.OrderID, item.ProductID)
	return nil
}

func (r *PostgresOrderRepository) UpdateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
        UPDATE order_items SET quantity = :quantity, price = :price, updated_at = NOW()
        WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, item)
	if err != nil {
		r.log.Errorf("Repository: Failed to update order item %d: %v", item.ID, err)
		return translate(err, "order item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("order item with id %d not found", item.ID)
	}
	return nil
}
