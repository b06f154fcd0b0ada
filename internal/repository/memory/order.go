// Package memory holds in-process repositories for the offline shopper.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/repository"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

// OrderRepository implements repository.OrderRepository over a map.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository returns a repository seeded with orders. Later
// duplicates of an id replace earlier ones.
func NewOrderRepository(orders ...*domain.Order) *OrderRepository {
	r := &OrderRepository{orders: make(map[string]*domain.Order, len(orders))}
	for _, o := range orders {
		r.orders[o.ID] = o.Clone()
	}
	return r
}

// GetByID retrieves an order by id.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return o.Clone(), nil
}

// List returns the matching orders newest first, ties broken by id.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	matched := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		matched = append(matched, *o.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	total := len(matched)
	if filter.PerPage <= 0 {
		return matched, total, nil
	}
	start := (max(filter.Page, 1) - 1) * filter.PerPage
	if start >= total {
		return []domain.Order{}, total, nil
	}
	end := min(start+filter.PerPage, total)
	return matched[start:end], total, nil
}

// UpdateStatus moves the order from one status to another.
func (r *OrderRepository) UpdateStatus(_ context.Context, id, from, to, reason string, at time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	if o.Status != from {
		return nil, apperrors.Conflict(fmt.Sprintf("order %s is %s, not %s", id, o.Status, from))
	}
	o.SetStatus(to, reason, at)
	return o.Clone(), nil
}
