package session

import (
	"context"
	"sync"
	"time"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
)

// MemoryBackend keeps carts and wishlists in process memory with the same
// merge and delete-on-zero rules as the server. It backs offline mode and
// tests, where failures can be injected with FailNext.
type MemoryBackend struct {
	mu        sync.Mutex
	carts     map[string]*domain.Cart
	wishlists map[string]*domain.Wishlist
	failures  []error
	delay     time.Duration
	calls     int
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		carts:     make(map[string]*domain.Cart),
		wishlists: make(map[string]*domain.Wishlist),
	}
}

// FailNext makes the next len(errs) calls return errs in order, without
// touching stored state.
func (m *MemoryBackend) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// SetDelay makes every call wait d (or until ctx is done) before answering.
func (m *MemoryBackend) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns the number of calls served so far, failed ones included.
func (m *MemoryBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SeedWishlist replaces userID's wishlist.
func (m *MemoryBackend) SeedWishlist(userID string, items ...domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wishlists[userID] = domain.NewWishlist(userID, items)
}

// SeedCart replaces userID's cart.
func (m *MemoryBackend) SeedCart(cart *domain.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.UserID] = cart.Clone()
}

func (m *MemoryBackend) enter(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	delay := m.delay
	var injected error
	if len(m.failures) > 0 {
		injected = m.failures[0]
		m.failures = m.failures[1:]
	}
	m.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return injected
}

func (m *MemoryBackend) cart(userID string) *domain.Cart {
	c, ok := m.carts[userID]
	if !ok {
		c = domain.NewCart(userID, time.Now().UTC(), 7*24*time.Hour)
		m.carts[userID] = c
	}
	return c
}

func (m *MemoryBackend) cartMutation(ctx context.Context, userID string, fn func(c *domain.Cart) error) (*domain.Cart, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.cart(userID)
	next := c.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	m.carts[userID] = next

	out := next.Clone()
	out.ReportedTotal = out.TotalAmount()
	return out, nil
}

func (m *MemoryBackend) FetchCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.cart(userID).Clone()
	out.ReportedTotal = out.TotalAmount()
	return out, nil
}

func (m *MemoryBackend) AddItem(ctx context.Context, userID string, product domain.Product, size string) (*domain.Cart, error) {
	return m.cartMutation(ctx, userID, func(c *domain.Cart) error {
		if err := domain.CheckAddable(product, size); err != nil {
			return err
		}
		return c.Add(domain.NewLine(product, size, 1))
	})
}

func (m *MemoryBackend) UpdateQuantity(ctx context.Context, userID, lineID, size string, quantity int) (*domain.Cart, error) {
	return m.cartMutation(ctx, userID, func(c *domain.Cart) error {
		_, err := c.SetQuantity(lineID, size, quantity)
		return err
	})
}

func (m *MemoryBackend) RemoveItem(ctx context.Context, userID, lineID, size string) (*domain.Cart, error) {
	return m.cartMutation(ctx, userID, func(c *domain.Cart) error {
		c.Remove(lineID, size)
		return nil
	})
}

func (m *MemoryBackend) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return m.cartMutation(ctx, userID, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
}

func (m *MemoryBackend) FetchWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wishlists[userID]; ok {
		return w.Clone(), nil
	}
	return domain.NewWishlist(userID, nil), nil
}

func (m *MemoryBackend) ToggleWishlist(ctx context.Context, userID string, product domain.Product) (*domain.Wishlist, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wishlists[userID]
	if !ok {
		w = domain.NewWishlist(userID, nil)
		m.wishlists[userID] = w
	}
	w.Toggle(product)
	return w.Clone(), nil
}
