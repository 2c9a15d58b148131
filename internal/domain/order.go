package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusCreated   OrderStatus = "created"
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusFailed    OrderStatus = "failed"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID          int64           `json:"id" db:"id"`
	UserID      int64           `json:"user_id" db:"user_id"`
	Status      OrderStatus     `json:"status" db:"status"`
	Items       []OrderItem     `json:"items" db:"-"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"-"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem.UnitPrice is the product price when the product was first added
// to the order. Price is always UnitPrice × Quantity; neither follows later
// changes to the live product price.
type OrderItem struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderLine is one requested (product, quantity) pair.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// RecalculateTotal sets TotalAmount to the sum of the item snapshots.
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price)
	}
	o.TotalAmount = total
}

func IsValidStatus(status OrderStatus) bool {
	switch status {
	case StatusCreated, StatusPending, StatusPaid, StatusFailed, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the order may still be edited by its owner.
func (s OrderStatus) IsOpen() bool {
	return s == StatusCreated || s == StatusPending
}

// AwaitsPayment reports whether a successful payment may move the order to paid.
func (s OrderStatus) AwaitsPayment() bool {
	return s == StatusCreated || s == StatusPending || s == StatusFailed
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	GetOrderForUser(ctx context.Context, id, userID int64) (*Order, error)
	ListOrdersByUserID(ctx context.Context, userID int64, limit, offset int) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error
	DeleteOrder(ctx context.Context, id int64) error

	FindOrderItem(ctx context.Context, orderID int64, productID uuid.UUID) (*OrderItem, error)
	CreateOrderItem(ctx context.Context, item *OrderItem) error
	UpdateOrderItem(ctx context.Context, item *OrderItem) error
}

type OrderUseCase interface {
	CreateOrder(ctx context.Context, userID int64, lines []OrderLine) (*Order, error)
	GetOrder(ctx context.Context, userID, id int64) (*Order, error)
	ListOrders(ctx context.Context, userID int64, limit, offset int) ([]Order, error)
	UpdateOrderItems(ctx context.Context, userID, id int64, lines []OrderLine) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) (*Order, error)
	DeleteOrder(ctx context.Context, userID, id int64) error
}

// Transactor runs fn inside one database transaction. Nested calls join the
// transaction already carried by ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
