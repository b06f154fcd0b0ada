package session

import (
	"context"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
)

// CartBackend persists a user's cart. Every mutation returns the
// authoritative cart after the change. AddItem adds one unit of product.
type CartBackend interface {
	FetchCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, product domain.Product, size string) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, lineID, size string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, lineID, size string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

// WishlistBackend persists a user's wishlist.
type WishlistBackend interface {
	FetchWishlist(ctx context.Context, userID string) (*domain.Wishlist, error)
	ToggleWishlist(ctx context.Context, userID string, product domain.Product) (*domain.Wishlist, error)
}

// IdentityProvider reports the signed-in user. An empty id means nobody is
// signed in.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (string, error)
}

// StaticIdentity always reports the same user.
type StaticIdentity string

func (s StaticIdentity) CurrentUser(context.Context) (string, error) { return string(s), nil }
