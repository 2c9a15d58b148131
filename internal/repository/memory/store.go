// Package memory keeps every repository in process. Transactions take a
// snapshot of the whole state and restore it when the callback fails.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"shoplit/internal/domain"

	"github.com/google/uuid"
)

var (
	_ domain.Transactor             = (*Store)(nil)
	_ domain.UserRepository         = (*Store)(nil)
	_ domain.CategoryRepository     = (*Store)(nil)
	_ domain.ProductRepository      = (*Store)(nil)
	_ domain.OrderRepository        = (*Store)(nil)
	_ domain.PaymentRepository      = (*Store)(nil)
	_ domain.CartRepository         = (*Store)(nil)
	_ domain.NotificationRepository = (*Store)(nil)
	_ domain.OutboxRepository       = (*Store)(nil)
	_ domain.ReviewRepository       = (*Store)(nil)
	_ domain.WishlistRepository     = (*Store)(nil)
)

type state struct {
	seq           int64
	users         map[int64]domain.User
	categories    map[uuid.UUID]domain.Category
	subcategories map[uuid.UUID]domain.SubCategory
	products      map[uuid.UUID]domain.Product
	orders        map[int64]domain.Order
	orderItems    map[int64]domain.OrderItem
	payments      map[int64]domain.Payment
	carts         map[int64]domain.Cart
	cartItems     map[int64]domain.CartItem
	notifications map[int64]domain.Notification
	outbox        map[int64]domain.OutboxMessage
	reviews       map[uuid.UUID]domain.Review
	wishlists     map[int64]domain.Wishlist
	wishlistItems map[int64]map[uuid.UUID]time.Time
}

func newState() *state {
	return &state{
		users:         make(map[int64]domain.User),
		categories:    make(map[uuid.UUID]domain.Category),
		subcategories: make(map[uuid.UUID]domain.SubCategory),
		products:      make(map[uuid.UUID]domain.Product),
		orders:        make(map[int64]domain.Order),
		orderItems:    make(map[int64]domain.OrderItem),
		payments:      make(map[int64]domain.Payment),
		carts:         make(map[int64]domain.Cart),
		cartItems:     make(map[int64]domain.CartItem),
		notifications: make(map[int64]domain.Notification),
		outbox:        make(map[int64]domain.OutboxMessage),
		reviews:       make(map[uuid.UUID]domain.Review),
		wishlists:     make(map[int64]domain.Wishlist),
		wishlistItems: make(map[int64]map[uuid.UUID]time.Time),
	}
}

func (st *state) clone() *state {
	wishlistItems := make(map[int64]map[uuid.UUID]time.Time, len(st.wishlistItems))
	for id, items := range st.wishlistItems {
		wishlistItems[id] = maps.Clone(items)
	}
	return &state{
		seq:           st.seq,
		users:         maps.Clone(st.users),
		categories:    maps.Clone(st.categories),
		subcategories: maps.Clone(st.subcategories),
		products:      maps.Clone(st.products),
		orders:        maps.Clone(st.orders),
		orderItems:    maps.Clone(st.orderItems),
		payments:      maps.Clone(st.payments),
		carts:         maps.Clone(st.carts),
		cartItems:     maps.Clone(st.cartItems),
		notifications: maps.Clone(st.notifications),
		outbox:        maps.Clone(st.outbox),
		reviews:       maps.Clone(st.reviews),
		wishlists:     maps.Clone(st.wishlists),
		wishlistItems: wishlistItems,
	}
}

func (st *state) nextID() int64 {
	st.seq++
	return st.seq
}

type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: newState(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTx serialises fn against every other store access.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
