package repository

import (
	"context"
	"time"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a cart by its user ID. A missing cart is apperrors.ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// SaveIfVersion stores cart only if the stored cart is still at
	// expectedVersion (0 meaning no cart stored). It reports false when
	// another writer got there first. Carts are never deleted, only
	// emptied or expired, so versions only move forward while a cart lives.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int64) (bool, error)
}

// WishlistRepository defines the interface for wishlist persistence operations.
type WishlistRepository interface {
	// List returns the user's wishlist in insertion order.
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)

	// Toggle removes the product if present and inserts it otherwise, in one
	// transaction. It reports whether the product is present afterwards.
	Toggle(ctx context.Context, userID string, product domain.Product) (bool, error)

	// Exists checks whether a product is in the user's wishlist.
	Exists(ctx context.Context, userID, productID string) (bool, error)
}

// OrderFilter defines filter criteria for listing orders. Nil fields match
// everything.
type OrderFilter struct {
	UserID  *string
	Status  *string
	Page    int
	PerPage int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the filter, newest first, along with the
	// total count before pagination.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves the order from status `from` to `to`. It fails with
	// apperrors.ErrConflict when the stored status is no longer `from`.
	UpdateStatus(ctx context.Context, id, from, to, reason string, at time.Time) (*domain.Order, error)
}
