package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var _ domain.ProductRepository = (*PostgresProductRepository)(nil)

type PostgresProductRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sqlx.DB, logger *logrus.Logger) *PostgresProductRepository {
	return &PostgresProductRepository{
		db:  db,
		log: logger,
	}
}

const productColumns = `id, name, description, price, stock_quantity, category_id, subcategory_id, is_active, created_at, updated_at`

var productOrderings = map[string]string{
	"":                           "created_at DESC, id",
	domain.OrderingPrice:         "price ASC, id",
	domain.OrderingPriceDesc:     "price DESC, id",
	domain.OrderingCreatedAt:     "created_at ASC, id",
	domain.OrderingCreatedAtDesc: "created_at DESC, id",
	domain.OrderingName:          "name ASC, id",
}

func (r *PostgresProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	query := `
        INSERT INTO products (id, name, description, price, stock_quantity, category_id, subcategory_id, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.StockQuantity,
		product.CategoryID, product.SubCategoryID, product.IsActive,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		r.log.Errorf("Repository: Failed to create product '%s': %v", product.Name, err)
		return translate(err, "product")
	}
	r.log.Infof("Repository: Product created with ID: %s", product.ID)
	return nil
}

func (r *PostgresProductRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &product, query, id); err != nil {
		return nil, translate(err, "product")
	}
	return &product, nil
}

func (r *PostgresProductRepository) UpdateProduct(ctx context.Context, id uuid.UUID, update domain.ProductUpdate) (*domain.Product, error) {
	if update.IsEmpty() {
		r.log.Infof("Repository: No fields provided for product update ID %s. Returning current product.", id)
		return r.GetProductByID(ctx, id)
	}

	setClauses := []string{}
	args := []interface{}{}
	set := func(column string, value interface{}) {
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}
	if update.Name != nil {
		set("name", *update.Name)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.Price != nil {
		set("price", *update.Price)
	}
	if update.CategoryID != nil {
		set("category_id", *update.CategoryID)
	}
	if update.SubCategoryID != nil {
		set("subcategory_id", *update.SubCategoryID)
	}
	if update.IsActive != nil {
		set("is_active", *update.IsActive)
	}
	args = append(args, id)

	query := r.db.Rebind(`UPDATE products SET ` + strings.Join(setClauses, ", ") +
		`, updated_at = NOW() WHERE id = ? RETURNING ` + productColumns)
	r.log.Debugf("Repository: Executing partial update query for ID %s: %s", id, query)

	var product domain.Product
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &product, query, args...); err != nil {
		r.log.Warnf("Repository: Failed to update product %s: %v", id, err)
		return nil, translate(err, "product")
	}
	r.log.Infof("Repository: Partial update successful for product ID %s", id)
	return &product, nil
}

func (r *PostgresProductRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			r.log.Warnf("Repository: Product %s is still referenced by order items", id)
			return domain.Conflict("product %s is referenced by existing orders", id)
		}
		r.log.Errorf("Repository: Failed to delete product %s: %v", id, err)
		return translate(err, "product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("product with id %s not found", id)
	}
	r.log.Infof("Repository: Product deleted successfully with ID: %s", id)
	return nil
}

func (r *PostgresProductRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	limit, offset := domain.NormalizePage(filter.Limit, filter.Offset)

	where := []string{}
	args := []interface{}{}
	if !filter.IncludeInactive {
		where = append(where, "is_active")
	}
	if filter.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.SubCategoryID != nil {
		where = append(where, "subcategory_id = ?")
		args = append(args, *filter.SubCategoryID)
	}
	if filter.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *filter.MaxPrice)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		where = append(where, "(name ILIKE ? OR description ILIKE ?)")
		args = append(args, pattern, pattern)
	}

	orderBy, ok := productOrderings[filter.Ordering]
	if !ok {
		return nil, domain.Validation("unsupported ordering '%s'", filter.Ordering)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	products := make([]domain.Product, 0)
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &products, r.db.Rebind(query), args...); err != nil {
		r.log.Errorf("Repository: Failed to list products: %v", err)
		return nil, translate(err, "product")
	}
	r.log.Debugf("Repository: Listed %d products (limit %d, offset %d)", len(products), limit, offset)
	return products, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// DecrementStock is a single conditional update; it never reads then writes.
func (r *PostgresProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	query := `
        UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = NOW()
        WHERE id = $1 AND stock_quantity >= $2
        RETURNING stock_quantity`
	var remaining int
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, id, quantity).Scan(&remaining)
	if err == nil {
		r.log.Debugf("Repository: Decremented stock of product %s by %d, %d left", id, quantity, remaining)
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.log.Errorf("Repository: Failed to decrement stock of product %s: %v", id, err)
		return 0, translate(err, "product")
	}

	var available int
	err = conn(ctx, r.db).QueryRowxContext(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, id).Scan(&available)
	if err != nil {
		return 0, translate(err, "product")
	}
	r.log.Warnf("Repository: Insufficient stock for product %s (requested %d, available %d)", id, quantity, available)
	return 0, &domain.InsufficientStockError{ProductID: id, Requested: quantity, Available: available}
}

func (r *PostgresProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	query := `
        UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = NOW()
        WHERE id = $1
        RETURNING stock_quantity`
	var remaining int
	if err := conn(ctx, r.db).QueryRowxContext(ctx, query, id, quantity).Scan(&remaining); err != nil {
		r.log.Errorf("Repository: Failed to increment stock of product %s: %v", id, err)
		return 0, translate(err, "product")
	}
	return remaining, nil
}
