package repository

import (
	"context"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var _ domain.CategoryRepository = (*PostgresCategoryRepository)(nil)

type PostgresCategoryRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresCategoryRepository(db *sqlx.DB, logger *logrus.Logger) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{
		db:  db,
		log: logger,
	}
}

// execOne runs a write that must touch exactly one row.
func execOne(ctx context.Context, db *sqlx.DB, what string, query string, args ...interface{}) error {
	res, err := conn(ctx, db).ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Internal(err, "could not confirm %s change", what)
	}
	if n == 0 {
		return domain.NotFound("%s not found", what)
	}
	return nil
}

func (r *PostgresCategoryRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	query := `
        INSERT INTO categories (id, name, description)
        VALUES ($1, $2, $3)
        RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, category.ID, category.Name, category.Description).
		Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.log.Warnf("Repository: Attempted to create duplicate category: %s", category.Name)
			return domain.Conflict("category with name '%s' already exists", category.Name)
		}
		r.log.Errorf("Repository: Failed to create category '%s': %v", category.Name, err)
		return translate(err, "category")
	}
	r.log.Infof("Repository: Category created with ID: %s", category.ID)
	return nil
}

func (r *PostgresCategoryRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var category domain.Category
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &category,
		`SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "category")
	}
	return &category, nil
}

func (r *PostgresCategoryRepository) UpdateCategory(ctx context.Context, category *domain.Category) error {
	query := `
        UPDATE categories SET name = $2, description = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, category.ID, category.Name, category.Description).
		Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return domain.Conflict("category with name '%s' already exists", category.Name)
		}
		r.log.Warnf("Repository: Failed to update category %s: %v", category.ID, err)
		return translate(err, "category")
	}
	return nil
}

func (r *PostgresCategoryRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := execOne(ctx, r.db, "category", `DELETE FROM categories WHERE id = $1`, id); err != nil {
		r.log.Warnf("Repository: Failed to delete category %s: %v", id, err)
		return err
	}
	r.log.Infof("Repository: Category deleted with ID: %s", id)
	return nil
}

func (r *PostgresCategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := make([]domain.Category, 0)
	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &categories,
		`SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		r.log.Errorf("Repository: Failed to list categories: %v", err)
		return nil, translate(err, "category")
	}
	return categories, nil
}

const subCategoryColumns = `id, category_id, name, description, created_at, updated_at`

func (r *PostgresCategoryRepository) CreateSubCategory(ctx context.Context, sub *domain.SubCategory) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	query := `
        INSERT INTO subcategories (id, category_id, name, description)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, sub.ID, sub.CategoryID, sub.Name, sub.Description).
		Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return domain.Conflict("subcategory '%s' already exists in this category", sub.Name)
		case pqForeignKeyViolation:
			return domain.Validation("category with id %s does not exist", sub.CategoryID)
		}
		r.log.Errorf("Repository: Failed to create subcategory '%s': %v", sub.Name, err)
		return translate(err, "subcategory")
	}
	r.log.Infof("Repository: Subcategory created with ID: %s", sub.ID)
	return nil
}

func (r *PostgresCategoryRepository) GetSubCategoryByID(ctx context.Context, id uuid.UUID) (*domain.SubCategory, error) {
	var sub domain.SubCategory
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &sub,
		`SELECT `+subCategoryColumns+` FROM subcategories WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "subcategory")
	}
	return &sub, nil
}

func (r *PostgresCategoryRepository) UpdateSubCategory(ctx context.Context, sub *domain.SubCategory) error {
	query := `
        UPDATE subcategories SET category_id = $2, name = $3, description = $4, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, sub.ID, sub.CategoryID, sub.Name, sub.Description).
		Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return domain.Conflict("subcategory '%s' already exists in this category", sub.Name)
		case pqForeignKeyViolation:
			return domain.Validation("category with id %s does not exist", sub.CategoryID)
		}
		return translate(err, "subcategory")
	}
	return nil
}

func (r *PostgresCategoryRepository) DeleteSubCategory(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, "subcategory", `DELETE FROM subcategories WHERE id = $1`, id)
}

func (r *PostgresCategoryRepository) ListSubCategories(ctx context.Context, categoryID *uuid.UUID) ([]domain.SubCategory, error) {
	subs := make([]domain.SubCategory, 0)
	query := `SELECT ` + subCategoryColumns + ` FROM subcategories`
	var args []interface{}
	if categoryID != nil {
		query += ` WHERE category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY name`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &subs, query, args...); err != nil {
		r.log.Errorf("Repository: Failed to list subcategories: %v", err)
		return nil, translate(err, "subcategory")
	}
	return subs, nil
}
