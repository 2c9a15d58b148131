package usecase

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"shoplit/internal/domain"
	"shoplit/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) InitializeTransaction(ctx context.Context, req domain.InitializeTransactionRequest) (*domain.InitializeTransactionResult, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, domain.InitializeTransactionRequest) *domain.InitializeTransactionResult); ok {
		return fn(ctx, req), args.Error(1)
	}
	res, _ := args.Get(0).(*domain.InitializeTransactionResult)
	return res, args.Error(1)
}

func (m *mockGateway) VerifyTransaction(ctx context.Context, reference string) (*domain.VerifyTransactionResult, error) {
	args := m.Called(ctx, reference)
	res, _ := args.Get(0).(*domain.VerifyTransactionResult)
	return res, args.Error(1)
}

type testEnv struct {
	store    *memory.Store
	gateway  *mockGateway
	products *ProductUseCase
	orders   *OrderUseCase
	carts    *CartUseCase
	payments *PaymentUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := newTestLogger()
	store := memory.NewStore()
	gateway := &mockGateway{}
	notifier := NewOutboxNotifier(store, logger)
	orders := NewOrderUseCase(store, store, store, store, notifier, logger)
	return &testEnv{
		store:    store,
		gateway:  gateway,
		products: NewProductUseCase(store, store, logger),
		orders:   orders,
		carts:    NewCartUseCase(store, store, store, orders, logger),
		payments: NewPaymentUseCase(store, store, store, store, gateway, notifier, logger),
	}
}

func (e *testEnv) seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user := &domain.User{Name: "Test User", Email: email, Phone: "+2348000000000"}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) seedProduct(t *testing.T, name, price string, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: name, Price: decimal.RequireFromString(price), StockQuantity: stock, IsActive: true}
	require.NoError(t, e.store.CreateProduct(context.Background(), p))
	return p
}

func (e *testEnv) stockOf(t *testing.T, p *domain.Product) int {
	t.Helper()
	got, err := e.store.GetProductByID(context.Background(), p.ID)
	require.NoError(t, err)
	return got.StockQuantity
}

func (e *testEnv) pendingJobs(t *testing.T) []domain.NotificationJob {
	t.Helper()
	msgs, err := e.store.FetchPendingOutbox(context.Background(), 0)
	require.NoError(t, err)
	jobs := make([]domain.NotificationJob, 0, len(msgs))
	for _, msg := range msgs {
		var job domain.NotificationJob
		require.NoError(t, json.Unmarshal(msg.Content, &job))
		jobs = append(jobs, job)
	}
	return jobs
}

func eventsOf(jobs []domain.NotificationJob, event string) []domain.NotificationJob {
	var matched []domain.NotificationJob
	for _, j := range jobs {
		if j.Event == event {
			matched = append(matched, j)
		}
	}
	return matched
}
