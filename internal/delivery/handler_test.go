package delivery

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"shoplit/internal/domain"
	"shoplit/internal/repository/memory"
	"shoplit/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "sk_test_secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) InitializeTransaction(ctx context.Context, req domain.InitializeTransactionRequest) (*domain.InitializeTransactionResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*domain.InitializeTransactionResult)
	return res, args.Error(1)
}

func (m *mockGateway) VerifyTransaction(ctx context.Context, reference string) (*domain.VerifyTransactionResult, error) {
	args := m.Called(ctx, reference)
	res, _ := args.Get(0).(*domain.VerifyTransactionResult)
	return res, args.Error(1)
}

type apiResponse struct {
	Status  string          `json:"Status"`
	Kind    string          `json:"Kind"`
	Message string          `json:"Message"`
	Data    json.RawMessage `json:"Data"`
}

type testServer struct {
	store   *memory.Store
	gateway *mockGateway
	router  *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.NewStore()
	gateway := &mockGateway{}
	notifier := usecase.NewOutboxNotifier(store, logger)
	orders := usecase.NewOrderUseCase(store, store, store, store, notifier, logger)

	router, err := NewRouter(Handlers{
		Users:         NewUserHandler(usecase.NewUserUseCase(store, logger), logger),
		Categories:    NewCategoryHandler(usecase.NewCategoryUseCase(store, logger), logger),
		Products:      NewProductHandler(usecase.NewProductUseCase(store, store, logger), logger),
		Carts:         NewCartHandler(usecase.NewCartUseCase(store, store, store, orders, logger), logger),
		Orders:        NewOrderHandler(orders, logger),
		Payments:      NewPaymentHandler(usecase.NewPaymentUseCase(store, store, store, store, gateway, notifier, logger), webhookSecret, logger),
		Notifications: NewNotificationHandler(usecase.NewNotificationUseCase(store, logger), logger),
		Reviews:       NewReviewHandler(usecase.NewReviewUseCase(store, store, logger), logger),
		Wishlists:     NewWishlistHandler(usecase.NewWishlistUseCase(store, store, logger), logger),
	}, store, logger)
	require.NoError(t, err)

	return &testServer{store: store, gateway: gateway, router: router}
}

type caller struct {
	userID int64
	admin  bool
}

func (s *testServer) do(t *testing.T, who caller, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if who.userID > 0 {
		req.Header.Set(headerUserID, strconv.FormatInt(who.userID, 10))
	}
	if who.admin {
		req.Header.Set(headerUserRole, roleAdmin)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func (s *testServer) seedUser(t *testing.T, email string) caller {
	t.Helper()
	user := &domain.User{Name: "Shopper", Email: email}
	require.NoError(t, s.store.CreateUser(context.Background(), user))
	return caller{userID: user.ID}
}

func (s *testServer) createProduct(t *testing.T, price string, stock int) domain.Product {
	t.Helper()
	rec, resp := s.do(t, caller{userID: 1, admin: true}, http.MethodPost, "/api/products", gin.H{
		"name":           "Widget",
		"price":          price,
		"stock_quantity": stock,
	})
	require.Equal(t, http.StatusCreated, rec.Code, resp.Message)
	var product domain.Product
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	return product
}

func (s *testServer) stockOf(t *testing.T, p domain.Product) int {
	t.Helper()
	got, err := s.store.GetProductByID(context.Background(), p.ID)
	require.NoError(t, err)
	return got.StockQuantity
}

func (s *testServer) placeOrder(t *testing.T, who caller, p domain.Product, qty int) domain.Order {
	t.Helper()
	rec, resp := s.do(t, who, http.MethodPost, "/api/orders", gin.H{
		"items": []gin.H{{"product_id": p.ID, "quantity": qty}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, resp.Message)
	var order domain.Order
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	return order
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, caller{}, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_IdentityAndRoles(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, caller{}, http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set(headerUserID, "abc")
	bad := httptest.NewRecorder()
	s.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	rec, _ = s.do(t, caller{userID: 7}, http.MethodPost, "/api/products", gin.H{"name": "x", "price": "1.00"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, caller{}, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateOrder_StockScenario(t *testing.T) {
	s := newTestServer(t)
	shopper := s.seedUser(t, "shopper@example.com")
	product := s.createProduct(t, "10.50", 5)

	order := s.placeOrder(t, shopper, product, 3)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Price.Equal(decimal.RequireFromString("31.50")))
	assert.Equal(t, domain.StatusCreated, order.Status)
	assert.Equal(t, 2, s.stockOf(t, product))

	rec, resp := s.do(t, shopper, http.MethodPost, "/api/orders", gin.H{
		"items": []gin.H{{"product_id": product.ID, "quantity": 3}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(domain.KindInsufficientStock), resp.Kind)
	assert.Equal(t, 2, s.stockOf(t, product))
}

func TestCreateOrder_RejectsMalformedBodies(t *testing.T) {
	s := newTestServer(t)
	shopper := s.seedUser(t, "shopper@example.com")
	product := s.createProduct(t, "1.00", 5)

	bodies := []interface{}{
		gin.H{"items": []gin.H{}},
		gin.H{"items": []gin.H{{"product_id": product.ID, "quantity": 0}}},
		gin.H{"items": []gin.H{{"quantity": 1}}},
		[]byte("{not json"),
	}
	for i, body := range bodies {
		rec, _ := s.do(t, shopper, http.MethodPost, "/api/orders", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %d", i)
	}
	assert.Equal(t, 5, s.stockOf(t, product))
}

func TestGetOrder_OtherUsersOrderIsNotFound(t *testing.T) {
	s := newTestServer(t)
	owner := s.seedUser(t, "owner@example.com")
	other := s.seedUser(t, "other@example.com")
	order := s.placeOrder(t, owner, s.createProduct(t, "2.00", 5), 1)

	path := fmt.Sprintf("/api/orders/%d", order.ID)
	rec, _ := s.do(t, owner, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := s.do(t, other, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(domain.KindNotFound), resp.Kind)
}

func TestUpdateOrderStatus_ValidatesStatusAndRole(t *testing.T) {
	s := newTestServer(t)
	shopper := s.seedUser(t, "shopper@example.com")
	product := s.createProduct(t, "2.00", 5)
	order := s.placeOrder(t, shopper, product, 2)
	path := fmt.Sprintf("/api/orders/%d/status", order.ID)

	rec, _ := s.do(t, shopper, http.MethodPatch, path, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, caller{userID: 1, admin: true}, http.MethodPatch, path, gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, caller{userID: 1, admin: true}, http.MethodPatch, path, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, s.stockOf(t, product))
}

func TestInitializePayment_Endpoint(t *testing.T) {
	s := newTestServer(t)
	shopper := s.seedUser(t, "payer@example.com")
	order := s.placeOrder(t, shopper, s.createProduct(t, "1999.00", 5), 1)

	s.gateway.On("InitializeTransaction", mock.Anything, mock.MatchedBy(func(req domain.InitializeTransactionRequest) bool {
		return req.AmountMinor == 199900 && req.Email == "payer@example.com"
	})).Return(&domain.InitializeTransactionResult{
		Status:           true,
		Reference:        "ref-http-1",
		AuthorizationURL: "https://checkout.example.com/ref-http-1",
	}, nil).Once()

	rec, resp := s.do(t, shopper, http.MethodPost, fmt.Sprintf("/api/payments/initialize/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)

	var session domain.PaymentSession
	require.NoError(t, json.Unmarshal(resp.Data, &session))
	assert.Equal(t, "https://checkout.example.com/ref-http-1", session.PaymentURL)
	assert.Equal(t, "ref-http-1", session.Payment.Reference)
	assert.False(t, session.Payment.Verified)
	s.gateway.AssertExpectations(t)
}

func TestInitializePayment_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	shopper := s.seedUser(t, "payer@example.com")
	stranger := s.seedUser(t, "stranger@example.com")
	order := s.placeOrder(t, shopper, s.createProduct(t, "10.00", 5), 1)
	path := fmt.Sprintf("/api/payments/initialize/%d", order.ID)

	rec, _ := s.do(t, stranger, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(&domain.InitializeTransactionResult{Status: false, Message: "Invalid Email Address Passed"}, nil).Once()
	rec, resp := s.do(t, shopper, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid Email Address Passed", resp.Message)

	s.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: dial tcp: timeout", domain.ErrGatewayUnavailable)).Once()
	rec, resp = s.do(t, shopper, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(domain.KindExternalService), resp.Kind)
	assert.NotContains(t, resp.Message, "dial tcp")
}

func TestVerifyPayment_Endpoint(t *testing.T) {
	s := newTestServer(t)
	shopper := s.seedUser(t, "payer@example.com")
	order := s.placeOrder(t, shopper, s.createProduct(t, "25.00", 5), 2)

	s.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(&domain.InitializeTransactionResult{Status: true, Reference: "ref-verify"}, nil).Once()
	rec, _ := s.do(t, shopper, http.MethodPost, fmt.Sprintf("/api/payments/initialize/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	s.gateway.On("VerifyTransaction", mock.Anything, "ref-verify").
		Return(&domain.VerifyTransactionResult{Status: true, TransactionStatus: "success", AmountMinor: 5000}, nil).Once()
	rec, resp := s.do(t, shopper, http.MethodPost, "/api/payments/verify/ref-verify", nil)
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)

	var payment domain.Payment
	require.NoError(t, json.Unmarshal(resp.Data, &payment))
	assert.True(t, payment.Verified)

	stored, err := s.store.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, stored.Status)

	rec, _ = s.do(t, shopper, http.MethodPost, "/api/payments/verify/unknown-ref", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhook_AlwaysOK(t *testing.T) {
	s := newTestServer(t)

	unknown := []byte(`{"event":"charge.success","data":{"reference":"nope","status":"success","amount":100}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(unknown))
	req.Header.Set(headerPaystackSignature, sign(unknown))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(unknown))
	req.Header.Set(headerPaystackSignature, "forged")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	garbage := []byte("not json")
	req = httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(garbage))
	req.Header.Set(headerPaystackSignature, sign(garbage))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.gateway.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything)
}

func TestCartCheckout_Endpoint(t *testing.T) {
	s := newTestServer(t)
	shopper := s.seedUser(t, "cart@example.com")
	product := s.createProduct(t, "4.00", 10)

	rec, _ := s.do(t, shopper, http.MethodPost, "/api/cart/items", gin.H{"product_id": product.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = s.do(t, shopper, http.MethodPost, "/api/cart/items", gin.H{"product_id": product.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := s.do(t, shopper, http.MethodGet, "/api/cart/total_price", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var total struct {
		TotalPrice decimal.Decimal `json:"total_price"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &total))
	assert.True(t, total.TotalPrice.Equal(decimal.RequireFromString("12.00")))

	rec, _ = s.do(t, shopper, http.MethodPost, "/api/cart/checkout", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 7, s.stockOf(t, product))

	rec, resp = s.do(t, shopper, http.MethodPost, "/api/cart/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(domain.KindValidation), resp.Kind)
}

func TestReviewsAndWishlist_Endpoints(t *testing.T) {
	s := newTestServer(t)
	shopper := s.seedUser(t, "fan@example.com")
	product := s.createProduct(t, "9.99", 1)

	reviewsPath := fmt.Sprintf("/api/products/%s/reviews", product.ID)
	rec, _ := s.do(t, shopper, http.MethodPost, reviewsPath, gin.H{"title": "Nice", "rating": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, shopper, http.MethodPost, reviewsPath, gin.H{"title": "Nice", "rating": 5})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = s.do(t, shopper, http.MethodPost, reviewsPath, gin.H{"title": "Again", "rating": 4})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp := s.do(t, caller{}, http.MethodGet, reviewsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []domain.Review
	require.NoError(t, json.Unmarshal(resp.Data, &reviews))
	assert.Len(t, reviews, 1)

	rec, _ = s.do(t, shopper, http.MethodPost, "/api/wishlist/products", gin.H{"product_id": product.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, resp = s.do(t, shopper, http.MethodPost, "/api/wishlist/products", gin.H{"product_id": product.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var wishlist domain.Wishlist
	require.NoError(t, json.Unmarshal(resp.Data, &wishlist))
	assert.Len(t, wishlist.Products, 1)

	rec, _ = s.do(t, shopper, http.MethodDelete, "/api/wishlist/products/"+product.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Validation("bad"), http.StatusBadRequest},
		{&domain.InsufficientStockError{Requested: 2, Available: 1}, http.StatusBadRequest},
		{domain.PaymentRejected("declined"), http.StatusBadRequest},
		{domain.PaymentFailed("failed"), http.StatusBadRequest},
		{domain.Forbidden("no"), http.StatusForbidden},
		{domain.NotFound("gone"), http.StatusNotFound},
		{domain.Conflict("dup"), http.StatusConflict},
		{domain.ExternalService(errors.New("timeout"), "gateway"), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapErrorToStatus(tt.err), tt.err.Error())
	}
}
