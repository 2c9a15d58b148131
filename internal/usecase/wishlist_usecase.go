package usecase

import (
	"context"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var _ domain.WishlistUseCase = (*WishlistUseCase)(nil)

type WishlistUseCase struct {
	wishlistRepo domain.WishlistRepository
	productRepo  domain.ProductRepository
	log          *logrus.Logger
}

func NewWishlistUseCase(wishlistRepo domain.WishlistRepository, productRepo domain.ProductRepository, logger *logrus.Logger) *WishlistUseCase {
	return &WishlistUseCase{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		log:          logger,
	}
}

func (uc *WishlistUseCase) GetWishlist(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	return uc.wishlistRepo.GetOrCreateWishlist(ctx, userID)
}

// AddProduct is idempotent: adding a product twice keeps one entry.
func (uc *WishlistUseCase) AddProduct(ctx context.Context, userID int64, productID uuid.UUID) (*domain.Wishlist, error) {
	if _, err := uc.productRepo.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	wishlist, err := uc.wishlistRepo.GetOrCreateWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.wishlistRepo.AddWishlistProduct(ctx, wishlist.ID, productID); err != nil {
		uc.log.Warnf("Use Case: Adding product %s to wishlist of user %d failed: %v", productID, userID, err)
		return nil, err
	}
	return uc.wishlistRepo.GetOrCreateWishlist(ctx, userID)
}

func (uc *WishlistUseCase) RemoveProduct(ctx context.Context, userID int64, productID uuid.UUID) (*domain.Wishlist, error) {
	wishlist, err := uc.wishlistRepo.GetOrCreateWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.wishlistRepo.RemoveWishlistProduct(ctx, wishlist.ID, productID); err != nil {
		return nil, err
	}
	return uc.wishlistRepo.GetOrCreateWishlist(ctx, userID)
}
