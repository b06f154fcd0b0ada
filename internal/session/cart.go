package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

const cartStoreName = "cart"

// CartView is an immutable snapshot of the cart. Total and ItemCount are
// always recomputed from Lines. Callers must not modify Lines.
type CartView struct {
	Lines     []domain.CartLine
	Total     int64
	ItemCount int
	Currency  string
	Version   int64
}

func newCartView(c *domain.Cart) CartView {
	return CartView{
		Lines:     c.Clone().Lines,
		Total:     c.TotalAmount(),
		ItemCount: c.ItemCount(),
		Currency:  c.Currency,
		Version:   c.Version,
	}
}

// CartStore is the shopper's cart. Mutations are applied optimistically,
// run one at a time in submission order, and are rolled back if the backend
// rejects them. Reads never wait on mutations.
type CartStore struct {
	userID  string
	backend CartBackend
	opts    options
	core    *optimistic[*domain.Cart]
	subs    subscribers[CartView]
	loading atomic.Bool

	mu   sync.RWMutex
	cart *domain.Cart
	view CartView
}

// NewCartStore creates an empty cart store for userID. Call Load to fetch
// the persisted cart, and Close when the session ends.
func NewCartStore(userID string, backend CartBackend, opts ...Option) *CartStore {
	o := buildOptions(opts)
	empty := domain.NewCart(userID, time.Now().UTC(), 0)

	s := &CartStore{
		userID:  userID,
		backend: backend,
		opts:    o,
		cart:    empty,
		view:    newCartView(empty),
	}
	s.core = &optimistic[*domain.Cart]{
		userID:  userID,
		opts:    o,
		q:       newQueue(cartStoreName),
		current: s.current,
		clone:   (*domain.Cart).Clone,
		commit:  s.commit,
	}
	return s
}

func (s *CartStore) current() *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

// commit replaces the cart and publishes the new view. It only runs on the
// queue goroutine, so subscribers see views in order.
func (s *CartStore) commit(_ context.Context, c *domain.Cart) {
	c = c.Clone()
	view := newCartView(c)

	s.mu.Lock()
	s.cart = c
	s.view = view
	s.mu.Unlock()

	s.subs.publish(view)
}

// Load replaces the local cart with the persisted one. Totals are recomputed
// locally; a disagreeing server total is logged and otherwise ignored.
func (s *CartStore) Load(ctx context.Context) error {
	return s.core.q.submit(ctx, "", func(ctx context.Context) error {
		s.loading.Store(true)
		defer s.loading.Store(false)

		remote, err := s.backend.FetchCart(ctx, s.userID)
		if errors.Is(err, apperrors.ErrNotFound) {
			remote, err = domain.NewCart(s.userID, time.Now().UTC(), 0), nil
		}
		if err != nil {
			return s.core.report(ctx, "load_cart", err)
		}

		if computed := remote.TotalAmount(); remote.ReportedTotal != computed {
			s.opts.logger.WarnContext(ctx, "server cart total disagrees with line data",
				slog.String("user_id", s.userID),
				slog.Int64("reported_total", remote.ReportedTotal),
				slog.Int64("computed_total", computed),
			)
		}
		s.commit(ctx, remote)
		return nil
	})
}

// AddToCart adds one unit of product in size. The product needs an id and a
// name, and a product that declares sizes requires a non-empty size. An existing (product, size) line is incremented
// and keeps its original unit price.
func (s *CartStore) AddToCart(ctx context.Context, product domain.Product, size string) error {
	line := domain.NewLine(product, size, 1)
	return s.core.run(ctx, mutation[*domain.Cart]{
		store: cartStoreName,
		op:    "add_to_cart",
		apply: func(c *domain.Cart) (bool, error) {
			if err := domain.CheckAddable(product, size); err != nil {
				return false, err
			}
			return true, c.Add(line)
		},
		call: func(ctx context.Context) (*domain.Cart, error) {
			return s.backend.AddItem(ctx, s.userID, product, size)
		},
	})
}

// RemoveFromCart deletes the line matching lineID and size. A missing line
// is a no-op.
func (s *CartStore) RemoveFromCart(ctx context.Context, lineID, size string) error {
	return s.core.run(ctx, mutation[*domain.Cart]{
		store: cartStoreName,
		op:    "remove_from_cart",
		apply: func(c *domain.Cart) (bool, error) {
			return c.Remove(lineID, size), nil
		},
		call: func(ctx context.Context) (*domain.Cart, error) {
			return s.backend.RemoveItem(ctx, s.userID, lineID, size)
		},
	})
}

// UpdateQuantity sets the quantity of the matching line. Zero or less
// deletes the line; a missing line is a no-op. Rapid consecutive updates to
// the same line collapse to the newest value.
func (s *CartStore) UpdateQuantity(ctx context.Context, lineID string, quantity int, size string) error {
	return s.core.run(ctx, mutation[*domain.Cart]{
		store: cartStoreName,
		op:    "update_quantity",
		key:   "quantity\x00" + lineID + "\x00" + size,
		apply: func(c *domain.Cart) (bool, error) {
			return c.SetQuantity(lineID, size, quantity)
		},
		call: func(ctx context.Context) (*domain.Cart, error) {
			return s.backend.UpdateQuantity(ctx, s.userID, lineID, size, quantity)
		},
	})
}

// ClearCart empties the cart.
func (s *CartStore) ClearCart(ctx context.Context) error {
	return s.core.run(ctx, mutation[*domain.Cart]{
		store: cartStoreName,
		op:    "clear_cart",
		apply: func(c *domain.Cart) (bool, error) {
			c.Clear()
			return true, nil
		},
		call: func(ctx context.Context) (*domain.Cart, error) {
			return s.backend.ClearCart(ctx, s.userID)
		},
	})
}

// Snapshot returns the current view.
func (s *CartStore) Snapshot() CartView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Lines returns a copy of the current lines.
func (s *CartStore) Lines() []domain.CartLine {
	v := s.Snapshot()
	return append([]domain.CartLine(nil), v.Lines...)
}

// Total returns the current cart total in cents.
func (s *CartStore) Total() int64 { return s.Snapshot().Total }

// ItemCount returns the number of units in the cart.
func (s *CartStore) ItemCount() int { return s.Snapshot().ItemCount }

// IsLoading reports whether a Load is in flight.
func (s *CartStore) IsLoading() bool { return s.loading.Load() }

// Subscribe registers fn to receive every new view, including optimistic
// ones and rollbacks. fn runs on the store's mutation goroutine and must not
// call mutating methods of the same store. The returned func unsubscribes.
func (s *CartStore) Subscribe(fn func(CartView)) (cancel func()) {
	return s.subs.add(fn)
}

// Close stops the mutation queue. Queued mutations fail with ErrSessionClosed.
func (s *CartStore) Close() {
	s.core.q.close()
}
