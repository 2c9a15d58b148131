package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"shoplit/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedOrder(t *testing.T, user *domain.User, price string, qty int) *domain.Order {
	t.Helper()
	p := e.seedProduct(t, "Item "+price, price, 100)
	order, err := e.orders.CreateOrder(context.Background(), user.ID, []domain.OrderLine{{ProductID: p.ID, Quantity: qty}})
	require.NoError(t, err)
	return order
}

func TestInitializePayment_SendsMinorUnitsAndPersistsGatewayReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	order := env.seedOrder(t, user, "1500.25", 2)

	env.gateway.On("InitializeTransaction", mock.Anything, mock.MatchedBy(func(req domain.InitializeTransactionRequest) bool {
		return req.AmountMinor == 300050 && req.Email == "payer@example.com" && req.Reference != ""
	})).Return(&domain.InitializeTransactionResult{
		Status:           true,
		Message:          "Authorization URL created",
		Reference:        "gw-ref-1",
		AuthorizationURL: "https://checkout.example.com/abc",
		AccessCode:       "abc",
	}, nil).Once()

	session, err := env.payments.InitializePayment(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/abc", session.PaymentURL)
	assert.Equal(t, "gw-ref-1", session.Payment.Reference)
	assert.Equal(t, domain.PaymentStatusInitiated, session.Payment.Status)
	assert.False(t, session.Payment.Verified)

	stored, err := env.store.GetPaymentByReference(ctx, "gw-ref-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, *stored.OrderID)
	env.gateway.AssertExpectations(t)

	reloaded, err := env.orders.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, reloaded.Status, "order status only moves on verification")
}

func TestInitializePayment_GatewayRejectionReturnsMessageVerbatim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	order := env.seedOrder(t, user, "10.00", 1)

	env.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(&domain.InitializeTransactionResult{Status: false, Message: "Invalid key"}, nil).Once()

	_, err := env.payments.InitializePayment(ctx, user.ID, order.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindPaymentRejected, domain.KindOf(err))
	assert.Equal(t, "Invalid key", domain.MessageOf(err))

	payments, err := env.payments.ListPayments(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	env.gateway.AssertNumberOfCalls(t, "InitializeTransaction", 1)
}

func TestInitializePayment_TransportFailureIsGatewayUnavailable(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "payer@example.com")
	order := env.seedOrder(t, user, "10.00", 1)

	env.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("dial tcp: %w", domain.ErrGatewayUnavailable)).Once()

	_, err := env.payments.InitializePayment(context.Background(), user.ID, order.ID)
	assert.Equal(t, domain.KindExternalService, domain.KindOf(err))
	assert.Equal(t, "payment gateway unavailable", domain.MessageOf(err))
	env.gateway.AssertNumberOfCalls(t, "InitializeTransaction", 1)
}

func TestInitializePayment_RetriesReferenceCollisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	first := env.seedOrder(t, user, "10.00", 1)
	second := env.seedOrder(t, user, "20.00", 1)

	env.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(func(_ context.Context, req domain.InitializeTransactionRequest) *domain.InitializeTransactionResult {
			return &domain.InitializeTransactionResult{Status: true, Reference: req.Reference}
		}, nil)

	refs := []string{"dup", "dup", "fresh"}
	var calls int32
	env.payments.WithReferenceGenerator(func() string {
		i := atomic.AddInt32(&calls, 1) - 1
		return refs[i]
	})

	s1, err := env.payments.InitializePayment(ctx, user.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "dup", s1.Payment.Reference)

	s2, err := env.payments.InitializePayment(ctx, user.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", s2.Payment.Reference)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInitializePayment_ConcurrentCallsGetDistinctReferences(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "payer@example.com")
	const n = 8
	orders := make([]*domain.Order, n)
	for i := range orders {
		orders[i] = env.seedOrder(t, user, fmt.Sprintf("%d.00", i+1), 1)
	}

	env.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(func(_ context.Context, req domain.InitializeTransactionRequest) *domain.InitializeTransactionResult {
			return &domain.InitializeTransactionResult{Status: true, Reference: req.Reference}
		}, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	refs := make(map[string]bool)
	for _, o := range orders {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			s, err := env.payments.InitializePayment(context.Background(), user.ID, orderID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			refs[s.Payment.Reference] = true
			mu.Unlock()
		}(o.ID)
	}
	wg.Wait()
	assert.Len(t, refs, n)
}

func TestInitializePayment_ReusesUnverifiedPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	order := env.seedOrder(t, user, "10.00", 1)

	env.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(func(_ context.Context, req domain.InitializeTransactionRequest) *domain.InitializeTransactionResult {
			return &domain.InitializeTransactionResult{Status: true, Reference: req.Reference}
		}, nil)

	s1, err := env.payments.InitializePayment(ctx, user.ID, order.ID)
	require.NoError(t, err)
	s2, err := env.payments.InitializePayment(ctx, user.ID, order.ID)
	require.NoError(t, err)

	assert.Equal(t, s1.Payment.ID, s2.Payment.ID)
	assert.NotEqual(t, s1.Payment.Reference, s2.Payment.Reference)
	payments, err := env.payments.ListPayments(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func initPayment(t *testing.T, env *testEnv, user *domain.User, order *domain.Order, reference string) {
	t.Helper()
	env.payments.WithReferenceGenerator(func() string { return reference })
	env.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(&domain.InitializeTransactionResult{Status: true, Reference: reference}, nil).Once()
	_, err := env.payments.InitializePayment(context.Background(), user.ID, order.ID)
	require.NoError(t, err)
}

func TestVerifyPayment_SuccessMarksOrderPaidOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	order := env.seedOrder(t, user, "25.00", 2)
	initPayment(t, env, user, order, "ref-ok")

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-ok").Return(&domain.VerifyTransactionResult{
		Status:            true,
		Reference:         "ref-ok",
		TransactionStatus: "success",
		AmountMinor:       5000,
	}, nil).Once()

	payment, err := env.payments.VerifyPayment(ctx, user.ID, "ref-ok")
	require.NoError(t, err)
	assert.True(t, payment.Verified)
	assert.Equal(t, domain.PaymentStatusPaid, payment.Status)

	reloaded, err := env.orders.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, reloaded.Status)
	assert.Len(t, eventsOf(env.pendingJobs(t), domain.EventPaymentSucceeded), 2)

	again, err := env.payments.VerifyPayment(ctx, user.ID, "ref-ok")
	require.NoError(t, err)
	assert.True(t, again.Verified)
	env.gateway.AssertNumberOfCalls(t, "VerifyTransaction", 1)
	assert.Len(t, eventsOf(env.pendingJobs(t), domain.EventPaymentSucceeded), 2)
}

func TestVerifyPayment_AmountMismatchFailsWithoutTouchingOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	order := env.seedOrder(t, user, "25.00", 2)
	initPayment(t, env, user, order, "ref-short")

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-short").Return(&domain.VerifyTransactionResult{
		Status:            true,
		TransactionStatus: "success",
		AmountMinor:       4999,
	}, nil).Once()

	_, err := env.payments.VerifyPayment(ctx, user.ID, "ref-short")
	assert.Equal(t, domain.KindPaymentFailed, domain.KindOf(err))

	payment, err := env.store.GetPaymentByReference(ctx, "ref-short")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
	assert.False(t, payment.Verified)

	reloaded, err := env.orders.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, reloaded.Status)
	assert.Len(t, eventsOf(env.pendingJobs(t), domain.EventPaymentFailed), 2)
}

func TestVerifyPayment_OtherUsersReferenceIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "payer@example.com")
	other := env.seedUser(t, "other@example.com")
	order := env.seedOrder(t, owner, "25.00", 1)
	initPayment(t, env, owner, order, "ref-private")

	_, err := env.payments.VerifyPayment(context.Background(), other.ID, "ref-private")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	env.gateway.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything)
}

func TestHandleWebhook_VerifiesChargeSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	order := env.seedOrder(t, user, "10.00", 1)
	initPayment(t, env, user, order, "ref-hook")

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-hook").Return(&domain.VerifyTransactionResult{
		Status:            true,
		TransactionStatus: "success",
		AmountMinor:       1000,
	}, nil).Once()

	var ignored domain.WebhookEvent
	ignored.Event = "transfer.success"
	require.NoError(t, env.payments.HandleWebhook(ctx, ignored))

	var unknown domain.WebhookEvent
	unknown.Event = domain.WebhookChargeSuccess
	unknown.Data.Reference = "nope"
	require.NoError(t, env.payments.HandleWebhook(ctx, unknown))

	var event domain.WebhookEvent
	event.Event = domain.WebhookChargeSuccess
	event.Data.Reference = "ref-hook"
	require.NoError(t, env.payments.HandleWebhook(ctx, event))
	require.NoError(t, env.payments.HandleWebhook(ctx, event))

	payment, err := env.store.GetPaymentByReference(ctx, "ref-hook")
	require.NoError(t, err)
	assert.True(t, payment.Verified)
	env.gateway.AssertNumberOfCalls(t, "VerifyTransaction", 1)
}

func TestVerifyPayment_GatewayDeclineMarksPaymentFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	order := env.seedOrder(t, user, "10.00", 1)
	initPayment(t, env, user, order, "ref-declined")

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-declined").
		Return(&domain.VerifyTransactionResult{Status: false, Message: "Transaction reference not found"}, nil).Once()

	_, err := env.payments.VerifyPayment(ctx, user.ID, "ref-declined")
	assert.Equal(t, domain.KindPaymentRejected, domain.KindOf(err))
	assert.Equal(t, "Transaction reference not found", domain.MessageOf(err))

	payment, err := env.store.GetPaymentByReference(ctx, "ref-declined")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
	assert.False(t, payment.Verified)
	assert.Len(t, eventsOf(env.pendingJobs(t), domain.EventPaymentFailed), 2)

	reloaded, err := env.orders.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, reloaded.Status)
}

func TestVerifyPayment_RepeatedFailureChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	order := env.seedOrder(t, user, "25.00", 2)
	initPayment(t, env, user, order, "ref-again")

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-again").
		Return(&domain.VerifyTransactionResult{Status: true, TransactionStatus: "abandoned", AmountMinor: 5000}, nil).Twice()

	_, err := env.payments.VerifyPayment(ctx, user.ID, "ref-again")
	assert.Equal(t, domain.KindPaymentFailed, domain.KindOf(err))
	first, err := env.store.GetPaymentByReference(ctx, "ref-again")
	require.NoError(t, err)

	_, err = env.payments.VerifyPayment(ctx, user.ID, "ref-again")
	assert.Equal(t, domain.KindPaymentFailed, domain.KindOf(err))

	second, err := env.store.GetPaymentByReference(ctx, "ref-again")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, second.Status)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)

	reloaded, err := env.orders.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, reloaded.Status)
	assert.Len(t, eventsOf(env.pendingJobs(t), domain.EventPaymentFailed), 2, "a repeated failure is not notified again")
	env.gateway.AssertNumberOfCalls(t, "VerifyTransaction", 2)
}

func TestOrderChanges_BlockedWhilePaymentAwaitsVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	widget := env.seedProduct(t, "Widget", "10.00", 5)
	order, err := env.orders.CreateOrder(ctx, user.ID, []domain.OrderLine{{ProductID: widget.ID, Quantity: 5}})
	require.NoError(t, err)
	initPayment(t, env, user, order, "ref-inflight")

	_, err = env.orders.UpdateOrderItems(ctx, user.ID, order.ID, []domain.OrderLine{{ProductID: widget.ID, Quantity: 1}})
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	_, err = env.orders.UpdateOrderStatus(ctx, order.ID, domain.StatusCancelled)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, domain.KindConflict, domain.KindOf(env.orders.DeleteOrder(ctx, user.ID, order.ID)))
	assert.Equal(t, 0, env.stockOf(t, widget))

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-inflight").
		Return(&domain.VerifyTransactionResult{Status: true, TransactionStatus: "success", AmountMinor: 5000}, nil).Once()
	_, err = env.payments.VerifyPayment(ctx, user.ID, "ref-inflight")
	require.NoError(t, err)

	reloaded, err := env.orders.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, reloaded.Status)
	assert.Equal(t, 0, env.stockOf(t, widget))
}

func TestVerifyPayment_LateSuccessLeavesCancelledOrderAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	widget := env.seedProduct(t, "Widget", "10.00", 5)
	order, err := env.orders.CreateOrder(ctx, user.ID, []domain.OrderLine{{ProductID: widget.ID, Quantity: 5}})
	require.NoError(t, err)
	initPayment(t, env, user, order, "ref-late")

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-late").
		Return(&domain.VerifyTransactionResult{Status: true, TransactionStatus: "abandoned"}, nil).Once()
	_, err = env.payments.VerifyPayment(ctx, user.ID, "ref-late")
	require.Error(t, err)

	_, err = env.orders.UpdateOrderStatus(ctx, order.ID, domain.StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, 5, env.stockOf(t, widget))

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-late").
		Return(&domain.VerifyTransactionResult{Status: true, TransactionStatus: "success", AmountMinor: 5000}, nil).Once()
	payment, err := env.payments.VerifyPayment(ctx, user.ID, "ref-late")
	require.NoError(t, err)
	assert.True(t, payment.Verified)

	reloaded, err := env.orders.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, reloaded.Status)
	assert.Equal(t, 5, env.stockOf(t, widget))
}

func TestVerifyPayment_OrderEditedAfterFailureIsNotPaidForOldAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "payer@example.com")
	widget := env.seedProduct(t, "Widget", "10.00", 20)
	order, err := env.orders.CreateOrder(ctx, user.ID, []domain.OrderLine{{ProductID: widget.ID, Quantity: 1}})
	require.NoError(t, err)
	initPayment(t, env, user, order, "ref-stale")

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-stale").
		Return(&domain.VerifyTransactionResult{Status: true, TransactionStatus: "abandoned"}, nil).Once()
	_, err = env.payments.VerifyPayment(ctx, user.ID, "ref-stale")
	require.Error(t, err)

	edited, err := env.orders.UpdateOrderItems(ctx, user.ID, order.ID, []domain.OrderLine{{ProductID: widget.ID, Quantity: 10}})
	require.NoError(t, err)
	require.Equal(t, "100.00", edited.TotalAmount.StringFixed(2))

	env.gateway.On("VerifyTransaction", mock.Anything, "ref-stale").
		Return(&domain.VerifyTransactionResult{Status: true, TransactionStatus: "success", AmountMinor: 1000}, nil).Once()
	_, err = env.payments.VerifyPayment(ctx, user.ID, "ref-stale")
	assert.Equal(t, domain.KindPaymentFailed, domain.KindOf(err))

	reloaded, err := env.orders.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, reloaded.Status)
	payment, err := env.store.GetPaymentByReference(ctx, "ref-stale")
	require.NoError(t, err)
	assert.False(t, payment.Verified)
}
