package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type SubCategory struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CategoryID  uuid.UUID `json:"category_id" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	CategoryID    *uuid.UUID      `json:"category_id" db:"category_id"`
	SubCategoryID *uuid.UUID      `json:"subcategory_id" db:"subcategory_id"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductUpdate is a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	CategoryID    *uuid.UUID
	SubCategoryID *uuid.UUID
	IsActive      *bool
}

func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil &&
		u.CategoryID == nil && u.SubCategoryID == nil && u.IsActive == nil
}

const (
	OrderingPrice         = "price"
	OrderingPriceDesc     = "-price"
	OrderingCreatedAt     = "created_at"
	OrderingCreatedAtDesc = "-created_at"
	OrderingName          = "name"
)

type ProductFilter struct {
	CategoryID      *uuid.UUID
	SubCategoryID   *uuid.UUID
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Search          string
	Ordering        string
	IncludeInactive bool
	Limit           int
	Offset          int
}

func IsValidOrdering(ordering string) bool {
	switch ordering {
	case "", OrderingPrice, OrderingPriceDesc, OrderingCreatedAt, OrderingCreatedAtDesc, OrderingName:
		return true
	default:
		return false
	}
}

// NormalizePage clamps pagination to the defaults used across the API.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *Category) error
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error)
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]Category, error)

	CreateSubCategory(ctx context.Context, sub *SubCategory) error
	GetSubCategoryByID(ctx context.Context, id uuid.UUID) (*SubCategory, error)
	UpdateSubCategory(ctx context.Context, sub *SubCategory) error
	DeleteSubCategory(ctx context.Context, id uuid.UUID) error
	ListSubCategories(ctx context.Context, categoryID *uuid.UUID) ([]SubCategory, error)
}

// ProductRepository owns the stock ledger. Stock only moves through
// DecrementStock and IncrementStock, both single conditional statements.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, update ProductUpdate) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error)
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error)
}

type CategoryUseCase interface {
	CreateCategory(ctx context.Context, category *Category) (*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	UpdateCategory(ctx context.Context, category *Category) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]Category, error)

	CreateSubCategory(ctx context.Context, sub *SubCategory) (*SubCategory, error)
	GetSubCategory(ctx context.Context, id uuid.UUID) (*SubCategory, error)
	UpdateSubCategory(ctx context.Context, sub *SubCategory) (*SubCategory, error)
	DeleteSubCategory(ctx context.Context, id uuid.UUID) error
	ListSubCategories(ctx context.Context, categoryID *uuid.UUID) ([]SubCategory, error)
}

type ProductUseCase interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, update ProductUpdate) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Product, error)
}
