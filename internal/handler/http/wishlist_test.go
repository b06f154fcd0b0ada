package http

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
)

func wishlistRows(products ...domain.Product) []domain.WishlistItem {
	out := make([]domain.WishlistItem, len(products))
	for i, p := range products {
		out[i] = domain.WishlistItem{UserID: "user-1", ProductID: p.ID, Product: p, CreatedAt: time.Now()}
	}
	return out
}

func TestGetWishlist(t *testing.T) {
	s := newTestServer(t)
	s.wishlist.On("List", mock.Anything, "user-1").Return(wishlistRows(linen), nil)

	rec := s.do(t, http.MethodGet, "/api/v1/wishlist", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[WishlistResponse](t, rec)
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, linen.ID, env.Data.Items[0].ID)
}

func TestToggleWishlist(t *testing.T) {
	s := newTestServer(t)
	s.wishlist.On("Toggle", mock.Anything, "user-1", mock.MatchedBy(func(p domain.Product) bool {
		return p.ID == linen.ID && p.Price == linen.Price
	})).Return(true, nil)
	s.wishlist.On("List", mock.Anything, "user-1").Return(wishlistRows(linen), nil)

	rec := s.do(t, http.MethodPost, "/api/v1/wishlist/toggle", ToggleWishlistRequest{
		Product: ProductRequest{ID: linen.ID, Name: linen.Name, Price: linen.Price, Sizes: linen.Sizes},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[ToggleResponse](t, rec)
	assert.True(t, env.Data.Added)
	assert.Len(t, env.Data.Items, 1)
}

func TestToggleWishlist_ValidationError(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/wishlist/toggle", map[string]any{"product": map[string]any{"name": "x"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.wishlist.AssertNotCalled(t, "Toggle", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleWishlist_StoreDown(t *testing.T) {
	s := newTestServer(t)
	s.wishlist.On("Toggle", mock.Anything, "user-1", mock.Anything).Return(false, errors.New("too many connections"))

	rec := s.do(t, http.MethodPost, "/api/v1/wishlist/toggle", ToggleWishlistRequest{
		Product: ProductRequest{ID: linen.ID, Name: linen.Name},
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIsInWishlist(t *testing.T) {
	s := newTestServer(t)
	s.wishlist.On("Exists", mock.Anything, "user-1", linen.ID).Return(true, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/wishlist/"+linen.ID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[map[string]bool](t, rec)
	assert.True(t, env.Data["in_wishlist"])
}
