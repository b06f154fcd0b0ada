package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/service"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/health"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/middleware"
)

// ============================================================================
// Mocks
// ============================================================================

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart).Clone(), args.Error(1)
}

func (m *mockCartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int64) (bool, error) {
	args := m.Called(ctx, cart, expectedVersion)
	return args.Bool(0), args.Error(1)
}

type mockWishlistRepository struct {
	mock.Mock
}

func (m *mockWishlistRepository) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistRepository) Toggle(ctx context.Context, userID string, product domain.Product) (bool, error) {
	args := m.Called(ctx, userID, product)
	return args.Bool(0), args.Error(1)
}

func (m *mockWishlistRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

type noopEvents struct{}

func (noopEvents) PublishCartUpdated(context.Context, *domain.Cart) error { return nil }
func (noopEvents) PublishCartCleared(context.Context, string, int64) error { return nil }
func (noopEvents) PublishWishlistToggled(context.Context, string, string, bool, int) error {
	return nil
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	handler  http.Handler
	carts    *mockCartRepository
	wishlist *mockWishlistRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	carts := new(mockCartRepository)
	wishlist := new(mockWishlistRepository)
	logger := testLogger()

	cartSvc := service.NewCartService(carts, noopEvents{}, logger, 24*time.Hour)
	wishlistSvc := service.NewWishlistService(wishlist, noopEvents{}, logger)

	h := NewRouter(cartSvc, wishlistSvc, health.NewHandler(),
		middleware.IdentityConfig{TrustUserHeader: true}, logger)
	return &testServer{handler: h, carts: carts, wishlist: wishlist}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "user-1")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

var linen = domain.Product{ID: "prod-a", Name: "Linen Shirt", Price: 1000, Sizes: []string{"M", "L"}}

func storedCart(version int64, lines ...domain.CartLine) *domain.Cart {
	c := domain.NewCart("user-1", time.Now().UTC(), time.Hour)
	c.Version = version
	c.Lines = append(c.Lines, lines...)
	return c
}

// ============================================================================
// Cart endpoints
// ============================================================================

func TestGetCart_EmptyCart(t *testing.T) {
	s := newTestServer(t)
	s.carts.On("Get", mock.Anything, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))

	rec := s.do(t, http.MethodGet, "/api/v1/cart", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[CartResponse](t, rec)
	assert.Empty(t, env.Data.Lines)
	assert.NotNil(t, env.Data.Lines)
	assert.Zero(t, env.Data.TotalAmount)
	assert.Equal(t, "user-1", env.Data.UserID)
}

func TestGetCart_ReportsComputedTotals(t *testing.T) {
	s := newTestServer(t)
	s.carts.On("Get", mock.Anything, "user-1").Return(storedCart(2, domain.NewLine(linen, "M", 3)), nil)

	rec := s.do(t, http.MethodGet, "/api/v1/cart", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[CartResponse](t, rec)
	assert.Equal(t, int64(3000), env.Data.TotalAmount)
	assert.Equal(t, 3, env.Data.ItemCount)
	assert.Equal(t, int64(2), env.Data.Version)
}

func TestGetCart_RequiresIdentity(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCart_BackendDown(t *testing.T) {
	s := newTestServer(t)
	s.carts.On("Get", mock.Anything, "user-1").Return(nil, errors.New("dial tcp: connection refused"))

	rec := s.do(t, http.MethodGet, "/api/v1/cart", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode[CartResponse](t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "connection refused")
}

func TestAddItem(t *testing.T) {
	s := newTestServer(t)
	s.carts.On("Get", mock.Anything, "user-1").Return(storedCart(1, domain.NewLine(linen, "M", 1)), nil)
	s.carts.On("SaveIfVersion", mock.Anything, mock.Anything, int64(1)).Return(true, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{
		ProductID: linen.ID, Size: "M", Sizes: linen.Sizes, Name: linen.Name, Price: 1900,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[CartResponse](t, rec)
	require.Len(t, env.Data.Lines, 1)
	assert.Equal(t, 2, env.Data.Lines[0].Quantity)
	assert.Equal(t, int64(1000), env.Data.Lines[0].UnitPrice)
	assert.Equal(t, int64(2000), env.Data.TotalAmount)
	assert.Equal(t, int64(2), env.Data.Version)
}

func TestAddItem_ValidationError(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"size": "M", "price": 100})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[CartResponse](t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "product_id")
	assert.Contains(t, env.Error.Fields, "name")
}

func TestAddItem_MissingSize(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{
		ProductID: linen.ID, Sizes: linen.Sizes, Name: linen.Name, Price: 1000,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[CartResponse](t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	s.carts.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAddItem_MalformedJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString("{"))
	req.Header.Set(middleware.UserIDHeader, "user-1")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_WrongContentType(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString("product_id=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(middleware.UserIDHeader, "user-1")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAddItem_Conflict(t *testing.T) {
	s := newTestServer(t)
	s.carts.On("Get", mock.Anything, "user-1").Return(storedCart(1), nil)
	s.carts.On("SaveIfVersion", mock.Anything, mock.Anything, int64(1)).Return(false, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{
		ProductID: linen.ID, Size: "M", Name: linen.Name, Price: 1000,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateItemQuantity_ZeroRemovesLine(t *testing.T) {
	s := newTestServer(t)
	s.carts.On("Get", mock.Anything, "user-1").Return(storedCart(3, domain.NewLine(linen, "M", 2)), nil)
	s.carts.On("SaveIfVersion", mock.Anything, mock.Anything, int64(3)).Return(true, nil)

	path := "/api/v1/cart/items/" + domain.LineID(linen.ID, "M") + "?size=M"
	rec := s.do(t, http.MethodPut, path, UpdateQuantityRequest{Quantity: 0})

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[CartResponse](t, rec)
	assert.Empty(t, env.Data.Lines)
	assert.Zero(t, env.Data.ItemCount)
}

func TestUpdateItemQuantity_UnknownLineIsNoop(t *testing.T) {
	s := newTestServer(t)
	s.carts.On("Get", mock.Anything, "user-1").Return(storedCart(3, domain.NewLine(linen, "M", 2)), nil)

	rec := s.do(t, http.MethodPut, "/api/v1/cart/items/nope?size=M", UpdateQuantityRequest{Quantity: 5})

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[CartResponse](t, rec)
	assert.Equal(t, 2, env.Data.ItemCount)
	s.carts.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateItemQuantity_OverLimit(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/v1/cart/items/line-1?size=M", UpdateQuantityRequest{Quantity: 101})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItem(t *testing.T) {
	s := newTestServer(t)
	tote := domain.Product{ID: "prod-b", Name: "Tote", Price: 2500}
	s.carts.On("Get", mock.Anything, "user-1").Return(storedCart(1,
		domain.NewLine(linen, "M", 2), domain.NewLine(tote, "", 1)), nil)
	s.carts.On("SaveIfVersion", mock.Anything, mock.Anything, int64(1)).Return(true, nil)

	rec := s.do(t, http.MethodDelete, "/api/v1/cart/items/"+domain.LineID(linen.ID, "M")+"?size=M", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[CartResponse](t, rec)
	require.Len(t, env.Data.Lines, 1)
	assert.Equal(t, "prod-b", env.Data.Lines[0].ProductID)
	assert.Equal(t, int64(2500), env.Data.TotalAmount)
}

func TestClearCart(t *testing.T) {
	s := newTestServer(t)
	s.carts.On("Get", mock.Anything, "user-1").Return(storedCart(4, domain.NewLine(linen, "M", 2)), nil)
	s.carts.On("SaveIfVersion", mock.Anything, mock.Anything, int64(4)).Return(true, nil)

	rec := s.do(t, http.MethodDelete, "/api/v1/cart", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[CartResponse](t, rec)
	assert.Empty(t, env.Data.Lines)
	assert.Zero(t, env.Data.TotalAmount)
	assert.Equal(t, int64(5), env.Data.Version)
	s.carts.AssertExpectations(t)
}

func TestHealthLive(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
