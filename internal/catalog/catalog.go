// Package catalog supplies the read-only product records shoppers browse and
// add to their carts.
package catalog

import (
	"context"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
)

// Source is a read-only product catalog.
type Source interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
}
