package usecase

import (
	"context"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var _ domain.CartUseCase = (*CartUseCase)(nil)

type CartUseCase struct {
	tx          domain.Transactor
	cartRepo    domain.CartRepository
	productRepo domain.ProductRepository
	orders      domain.OrderUseCase
	log         *logrus.Logger
}

func NewCartUseCase(
	tx domain.Transactor,
	cartRepo domain.CartRepository,
	productRepo domain.ProductRepository,
	orders domain.OrderUseCase,
	logger *logrus.Logger,
) *CartUseCase {
	return &CartUseCase{
		tx:          tx,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orders:      orders,
		log:         logger,
	}
}

func (uc *CartUseCase) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := uc.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to load cart for user %d: %v", userID, err)
		return nil, err
	}
	return cart, nil
}

func (uc *CartUseCase) TotalPrice(ctx context.Context, userID int64) (decimal.Decimal, error) {
	cart, err := uc.GetCart(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.TotalPrice, nil
}

func (uc *CartUseCase) AddItem(ctx context.Context, userID int64, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.Validation("quantity must be at least 1")
	}
	product, err := uc.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.Validation("product %s is not available", productID)
	}

	cart, err := uc.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := uc.cartRepo.AddCartItem(ctx, cart.ID, productID, quantity)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to add product %s to cart %d: %v", productID, cart.ID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Cart %d now holds %d of product %s", cart.ID, item.Quantity, productID)
	return uc.GetCart(ctx, userID)
}

func (uc *CartUseCase) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.Validation("quantity must be at least 1")
	}
	cart, err := uc.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.cartRepo.UpdateCartItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		uc.log.Warnf("Use Case: Failed to update cart item %d for user %d: %v", itemID, userID, err)
		return nil, err
	}
	return uc.GetCart(ctx, userID)
}

func (uc *CartUseCase) RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error) {
	cart, err := uc.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.cartRepo.RemoveCartItem(ctx, cart.ID, itemID); err != nil {
		uc.log.Warnf("Use Case: Failed to remove cart item %d for user %d: %v", itemID, userID, err)
		return nil, err
	}
	return uc.GetCart(ctx, userID)
}

func (uc *CartUseCase) Clear(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := uc.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.cartRepo.ClearCart(ctx, cart.ID); err != nil {
		uc.log.Errorf("Use Case: Failed to clear cart %d for user %d: %v", cart.ID, userID, err)
		return nil, err
	}
	return uc.GetCart(ctx, userID)
}

// Checkout turns the cart into an order and empties the cart. Both happen in
// one transaction, so a stock failure leaves the cart untouched.
func (uc *CartUseCase) Checkout(ctx context.Context, userID int64) (*domain.Order, error) {
	var order *domain.Order
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		cart, err := uc.cartRepo.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return domain.Validation("cart is empty")
		}

		lines := make([]domain.OrderLine, 0, len(cart.Items))
		for _, item := range cart.Items {
			lines = append(lines, domain.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		order, err = uc.orders.CreateOrder(ctx, userID, lines)
		if err != nil {
			return err
		}
		return uc.cartRepo.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		uc.log.Warnf("Use Case: Checkout for user %d failed: %v", userID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: User %d checked out cart into order %d", userID, order.ID)
	return order, nil
}
