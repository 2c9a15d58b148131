package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"shoplit/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *Store, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: "Widget", Price: decimal.RequireFromString("12.50"), StockQuantity: stock, IsActive: true}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, 5)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.DecrementStock(ctx, p.ID, 3)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)
}

func TestWithinTx_NestedCallsJoin(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, 5)

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			_, err := s.DecrementStock(ctx, p.ID, 2)
			return err
		})
	})
	require.NoError(t, err)

	got, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.StockQuantity)
}

func TestDecrementStock_Insufficient(t *testing.T) {
	s := NewStore()
	p := seedProduct(t, s, 2)

	_, err := s.DecrementStock(context.Background(), p.ID, 3)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)
}

func TestDecrementStock_ConcurrentNeverOversells(t *testing.T) {
	s := NewStore()
	p := seedProduct(t, s, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.DecrementStock(context.Background(), p.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := s.GetProductByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, got.StockQuantity)
}

func TestListProducts_Filters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	cheap := &domain.Product{Name: "Pencil", Description: "graphite", Price: decimal.RequireFromString("1.00"), IsActive: true}
	dear := &domain.Product{Name: "Pen", Description: "fountain", Price: decimal.RequireFromString("40.00"), IsActive: true}
	hidden := &domain.Product{Name: "Prototype pen", Price: decimal.RequireFromString("5.00"), IsActive: false}
	for _, p := range []*domain.Product{cheap, dear, hidden} {
		require.NoError(t, s.CreateProduct(ctx, p))
	}

	minPrice := decimal.RequireFromString("2")
	got, err := s.ListProducts(ctx, domain.ProductFilter{MinPrice: &minPrice})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, dear.ID, got[0].ID)

	got, err = s.ListProducts(ctx, domain.ProductFilter{Search: "PEN", Ordering: domain.OrderingPrice})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, cheap.ID, got[0].ID)

	got, err = s.ListProducts(ctx, domain.ProductFilter{IncludeInactive: true, Ordering: domain.OrderingName})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestAddCartItem_Merges(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user := &domain.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, s.CreateUser(ctx, user))
	p := seedProduct(t, s, 10)

	cart, err := s.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	_, err = s.AddCartItem(ctx, cart.ID, p.ID, 2)
	require.NoError(t, err)
	item, err := s.AddCartItem(ctx, cart.ID, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	cart, err = s.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.TotalPrice.Equal(decimal.RequireFromString("62.50")))
}
