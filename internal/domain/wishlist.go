package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Wishlist struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Products  []Product `json:"products" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type WishlistRepository interface {
	GetOrCreateWishlist(ctx context.Context, userID int64) (*Wishlist, error)
	AddWishlistProduct(ctx context.Context, wishlistID int64, productID uuid.UUID) error
	RemoveWishlistProduct(ctx context.Context, wishlistID int64, productID uuid.UUID) error
}

type WishlistUseCase interface {
	GetWishlist(ctx context.Context, userID int64) (*Wishlist, error)
	AddProduct(ctx context.Context, userID int64, productID uuid.UUID) (*Wishlist, error)
	RemoveProduct(ctx context.Context, userID int64, productID uuid.UUID) (*Wishlist, error)
}
