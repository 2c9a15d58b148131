package memory

import (
	"context"
	"sort"

	"shoplit/internal/domain"

	"github.com/google/uuid"
)

func (st *state) loadCartItem(item domain.CartItem) domain.CartItem {
	if p, ok := st.products[item.ProductID]; ok {
		item.UnitPrice = p.Price
	}
	return item
}

func (s *Store) GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	var found *domain.Cart
	err := s.do(ctx, func(st *state) error {
		var cart domain.Cart
		exists := false
		for _, c := range st.carts {
			if c.UserID == userID {
				cart, exists = c, true
				break
			}
		}
		if !exists {
			if _, ok := st.users[userID]; !ok {
				return domain.Validation("user with id %d does not exist", userID)
			}
			now := s.now()
			cart = domain.Cart{ID: st.nextID(), UserID: userID, CreatedAt: now, UpdatedAt: now}
			st.carts[cart.ID] = cart
		}
		items := make([]domain.CartItem, 0)
		for _, item := range st.cartItems {
			if item.CartID == cart.ID {
				items = append(items, st.loadCartItem(item))
			}
		}
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
		cart.Items = items
		cart.RecalculateTotal()
		found = &cart
		return nil
	})
	return found, err
}

func (s *Store) AddCartItem(ctx context.Context, cartID int64, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	var added *domain.CartItem
	err := s.do(ctx, func(st *state) error {
		if _, ok := st.carts[cartID]; !ok {
			return domain.NotFound("cart with id %d not found", cartID)
		}
		if _, ok := st.products[productID]; !ok {
			return domain.Validation("product with id %s does not exist", productID)
		}
		now := s.now()
		for id, item := range st.cartItems {
			if item.CartID == cartID && item.ProductID == productID {
				item.Quantity += quantity
				item.UpdatedAt = now
				st.cartItems[id] = item
				loaded := st.loadCartItem(item)
				added = &loaded
				return nil
			}
		}
		item := domain.CartItem{
			ID:        st.nextID(),
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.cartItems[item.ID] = item
		loaded := st.loadCartItem(item)
		added = &loaded
		return nil
	})
	return added, err
}

func (s *Store) GetCartItem(ctx context.Context, cartID, itemID int64) (*domain.CartItem, error) {
	var found *domain.CartItem
	err := s.do(ctx, func(st *state) error {
		item, ok := st.cartItems[itemID]
		if !ok || item.CartID != cartID {
			return domain.NotFound("cart item with id %d not found", itemID)
		}
		loaded := st.loadCartItem(item)
		found = &loaded
		return nil
	})
	return found, err
}

func (s *Store) UpdateCartItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (*domain.CartItem, error) {
	var updated *domain.CartItem
	err := s.do(ctx, func(st *state) error {
		item, ok := st.cartItems[itemID]
		if !ok || item.CartID != cartID {
			return domain.NotFound("cart item with id %d not found", itemID)
		}
		item.Quantity = quantity
		item.UpdatedAt = s.now()
		st.cartItems[itemID] = item
		loaded := st.loadCartItem(item)
		updated = &loaded
		return nil
	})
	return updated, err
}

func (s *Store) RemoveCartItem(ctx context.Context, cartID, itemID int64) error {
	return s.do(ctx, func(st *state) error {
		item, ok := st.cartItems[itemID]
		if !ok || item.CartID != cartID {
			return domain.NotFound("cart item with id %d not found", itemID)
		}
		delete(st.cartItems, itemID)
		return nil
	})
}

func (s *Store) ClearCart(ctx context.Context, cartID int64) error {
	return s.do(ctx, func(st *state) error {
		for id, item := range st.cartItems {
			if item.CartID == cartID {
				delete(st.cartItems, id)
			}
		}
		return nil
	})
}
