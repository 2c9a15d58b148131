package memory

import (
	"context"
	"sort"
	"time"

	"shoplit/internal/domain"

	"github.com/google/uuid"
)

func (s *Store) GetOrCreateWishlist(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	var found *domain.Wishlist
	err := s.do(ctx, func(st *state) error {
		var wishlist domain.Wishlist
		exists := false
		for _, w := range st.wishlists {
			if w.UserID == userID {
				wishlist, exists = w, true
				break
			}
		}
		if !exists {
			if _, ok := st.users[userID]; !ok {
				return domain.Validation("user with id %d does not exist", userID)
			}
			now := s.now()
			wishlist = domain.Wishlist{ID: st.nextID(), UserID: userID, CreatedAt: now, UpdatedAt: now}
			st.wishlists[wishlist.ID] = wishlist
			st.wishlistItems[wishlist.ID] = make(map[uuid.UUID]time.Time)
		}

		type added struct {
			product domain.Product
			at      time.Time
		}
		entries := make([]added, 0)
		for productID, at := range st.wishlistItems[wishlist.ID] {
			if p, ok := st.products[productID]; ok {
				entries = append(entries, added{product: p, at: at})
			}
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })
		wishlist.Products = make([]domain.Product, 0, len(entries))
		for _, e := range entries {
			wishlist.Products = append(wishlist.Products, e.product)
		}
		found = &wishlist
		return nil
	})
	return found, err
}

func (s *Store) AddWishlistProduct(ctx context.Context, wishlistID int64, productID uuid.UUID) error {
	return s.do(ctx, func(st *state) error {
		items, ok := st.wishlistItems[wishlistID]
		if !ok {
			return domain.NotFound("wishlist with id %d not found", wishlistID)
		}
		if _, ok := st.products[productID]; !ok {
			return domain.Validation("product with id %s does not exist", productID)
		}
		if _, exists := items[productID]; !exists {
			items[productID] = s.now()
		}
		return nil
	})
}

func (s *Store) RemoveWishlistProduct(ctx context.Context, wishlistID int64, productID uuid.UUID) error {
	return s.do(ctx, func(st *state) error {
		items, ok := st.wishlistItems[wishlistID]
		if !ok {
			return domain.NotFound("wishlist with id %d not found", wishlistID)
		}
		if _, exists := items[productID]; !exists {
			return domain.NotFound("product %s is not in the wishlist", productID)
		}
		delete(items, productID)
		return nil
	})
}
