package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	ID         int64           `json:"id" db:"id"`
	UserID     int64           `json:"user_id" db:"user_id"`
	Items      []CartItem      `json:"items" db:"-"`
	TotalPrice decimal.Decimal `json:"total_price" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// CartItem prices are live: UnitPrice is read from the product on every load.
type CartItem struct {
	ID         int64           `json:"id" db:"id"`
	CartID     int64           `json:"cart_id" db:"cart_id"`
	ProductID  uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

func (c *Cart) RecalculateTotal() {
	total := decimal.Zero
	for i := range c.Items {
		c.Items[i].TotalPrice = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(c.Items[i].Quantity)))
		total = total.Add(c.Items[i].TotalPrice)
	}
	c.TotalPrice = total
}

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID int64) (*Cart, error)
	AddCartItem(ctx context.Context, cartID int64, productID uuid.UUID, quantity int) (*CartItem, error)
	GetCartItem(ctx context.Context, cartID, itemID int64) (*CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (*CartItem, error)
	RemoveCartItem(ctx context.Context, cartID, itemID int64) error
	ClearCart(ctx context.Context, cartID int64) error
}

type CartUseCase interface {
	GetCart(ctx context.Context, userID int64) (*Cart, error)
	TotalPrice(ctx context.Context, userID int64) (decimal.Decimal, error)
	AddItem(ctx context.Context, userID int64, productID uuid.UUID, quantity int) (*Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*Cart, error)
	Clear(ctx context.Context, userID int64) (*Cart, error)
	Checkout(ctx context.Context, userID int64) (*Order, error)
}
