package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

const wishlistStoreName = "wishlist"

// WishlistStore is the shopper's set of liked products.
type WishlistStore struct {
	userID  string
	backend WishlistBackend
	core    *optimistic[*domain.Wishlist]
	subs    subscribers[[]domain.Product]
	loading atomic.Bool

	mu       sync.RWMutex
	wishlist *domain.Wishlist
}

// NewWishlistStore creates an empty wishlist store for userID.
func NewWishlistStore(userID string, backend WishlistBackend, opts ...Option) *WishlistStore {
	o := buildOptions(opts)
	s := &WishlistStore{
		userID:   userID,
		backend:  backend,
		wishlist: domain.NewWishlist(userID, nil),
	}
	s.core = &optimistic[*domain.Wishlist]{
		userID:  userID,
		opts:    o,
		q:       newQueue(wishlistStoreName),
		current: s.current,
		clone:   (*domain.Wishlist).Clone,
		commit:  s.commit,
	}
	return s
}

func (s *WishlistStore) current() *domain.Wishlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wishlist
}

func (s *WishlistStore) commit(_ context.Context, w *domain.Wishlist) {
	// NewWishlist dedupes, so a misbehaving backend cannot introduce duplicates.
	w = domain.NewWishlist(s.userID, w.Items)

	s.mu.Lock()
	s.wishlist = w
	s.mu.Unlock()

	s.subs.publish(w.Clone().Items)
}

// Load replaces the local wishlist with the persisted one.
func (s *WishlistStore) Load(ctx context.Context) error {
	return s.core.q.submit(ctx, "", func(ctx context.Context) error {
		s.loading.Store(true)
		defer s.loading.Store(false)

		remote, err := s.backend.FetchWishlist(ctx, s.userID)
		if errors.Is(err, apperrors.ErrNotFound) {
			remote, err = domain.NewWishlist(s.userID, nil), nil
		}
		if err != nil {
			return s.core.report(ctx, "load_wishlist", err)
		}
		s.commit(ctx, remote)
		return nil
	})
}

// Toggle removes product if it is in the wishlist and adds it otherwise.
func (s *WishlistStore) Toggle(ctx context.Context, product domain.Product) error {
	return s.core.run(ctx, mutation[*domain.Wishlist]{
		store: wishlistStoreName,
		op:    "toggle_wishlist",
		apply: func(w *domain.Wishlist) (bool, error) {
			if product.ID == "" {
				return false, apperrors.InvalidInput("product id is required")
			}
			w.Toggle(product)
			return true, nil
		},
		call: func(ctx context.Context) (*domain.Wishlist, error) {
			return s.backend.ToggleWishlist(ctx, s.userID, product)
		},
	})
}

// IsInWishlist reports whether productID is in the wishlist.
func (s *WishlistStore) IsInWishlist(productID string) bool {
	return s.current().Contains(productID)
}

// Items returns a copy of the wishlist in insertion order.
func (s *WishlistStore) Items() []domain.Product {
	return s.current().Clone().Items
}

// IsLoading reports whether a Load is in flight.
func (s *WishlistStore) IsLoading() bool { return s.loading.Load() }

// Subscribe registers fn to receive the item list after every change. The
// same rules as CartStore.Subscribe apply.
func (s *WishlistStore) Subscribe(fn func([]domain.Product)) (cancel func()) {
	return s.subs.add(fn)
}

// Close stops the mutation queue.
func (s *WishlistStore) Close() {
	s.core.q.close()
}
