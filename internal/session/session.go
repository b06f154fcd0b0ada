package session

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Session owns the cart and wishlist of one signed-in user. It is created
// when the user signs in and closed when they sign out.
type Session struct {
	UserID   string
	Cart     *CartStore
	Wishlist *WishlistStore

	closeOnce sync.Once
}

// New creates a session for userID. The stores start empty; call Start to
// load persisted state.
func New(userID string, carts CartBackend, wishlists WishlistBackend, opts ...Option) *Session {
	return &Session{
		UserID:   userID,
		Cart:     NewCartStore(userID, carts, opts...),
		Wishlist: NewWishlistStore(userID, wishlists, opts...),
	}
}

// Start loads the cart and the wishlist concurrently.
func (s *Session) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Cart.Load(ctx); err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.Wishlist.Load(ctx); err != nil {
			return fmt.Errorf("load wishlist: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// IsLoading reports whether either store is loading.
func (s *Session) IsLoading() bool {
	return s.Cart.IsLoading() || s.Wishlist.IsLoading()
}

// Close stops both stores. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); s.Cart.Close() }()
		go func() { defer wg.Done(); s.Wishlist.Close() }()
		wg.Wait()
	})
}
