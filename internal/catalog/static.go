package catalog

import (
	"context"
	"strings"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

// Static is an in-memory catalog. It preserves the order products were given in.
type Static struct {
	products []domain.Product
	byID     map[string]int
}

// NewStatic returns a catalog over products. Later duplicates of an id are ignored.
func NewStatic(products ...domain.Product) *Static {
	s := &Static{byID: make(map[string]int, len(products))}
	for _, p := range products {
		if _, dup := s.byID[p.ID]; dup {
			continue
		}
		s.byID[p.ID] = len(s.products)
		s.products = append(s.products, p.Clone())
	}
	return s
}

// List returns the active products.
func (s *Static) List(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.IsActive {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// Get returns the product with the given id.
func (s *Static) Get(_ context.Context, id string) (domain.Product, error) {
	i, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	return s.products[i].Clone(), nil
}

// Fixtures returns the demo catalog used when no storefront API is configured.
func Fixtures() []domain.Product {
	return []domain.Product{
		{
			ID:           "prod-linen-shirt",
			Name:         "Linen Shirt",
			Description:  "Relaxed fit shirt in washed linen.",
			Price:        4999,
			ComparePrice: 6499,
			Images:       []string{"https://images.example.com/linen-shirt.jpg"},
			Sizes:        []string{"S", "M", "L", "XL"},
			Category:     "Men",
			Stock:        40,
			IsActive:     true,
		},
		{
			ID:          "prod-wrap-dress",
			Name:        "Wrap Dress",
			Description: "Midi wrap dress with tie waist.",
			Price:       7900,
			Images:      []string{"https://images.example.com/wrap-dress.jpg"},
			Sizes:       []string{"XS", "S", "M", "L"},
			Category:    "Women",
			Stock:       25,
			IsActive:    true,
		},
		{
			ID:          "prod-kids-hoodie",
			Name:        "Kids Hoodie",
			Description: "Brushed fleece hoodie.",
			Price:       2999,
			Images:      []string{"https://images.example.com/kids-hoodie.jpg"},
			Sizes:       []string{"4Y", "6Y", "8Y", "10Y"},
			Category:    "Kids",
			Stock:       60,
			IsActive:    true,
		},
		{
			ID:           "prod-runner",
			Name:         "Everyday Runner",
			Description:  "Lightweight knit running shoe.",
			Price:        11000,
			ComparePrice: 13000,
			Images:       []string{"https://images.example.com/runner.jpg"},
			Sizes:        []string{"40", "41", "42", "43", "44"},
			Category:     "Shoes",
			Stock:        18,
			IsActive:     true,
		},
		{
			ID:          "prod-canvas-tote",
			Name:        "Canvas Tote",
			Description: "Heavy canvas tote with inner pocket.",
			Price:       2500,
			Images:      []string{"https://images.example.com/canvas-tote.jpg"},
			Category:    "Bag",
			Stock:       100,
			IsActive:    true,
		},
		{
			ID:          "prod-gift-card",
			Name:        "Gift Card",
			Description: "Digital gift card.",
			Price:       5000,
			Category:    "Other",
			Stock:       1000,
			IsActive:    true,
		},
		{
			ID:       "prod-retired-cap",
			Name:     "Retired Cap",
			Price:    1500,
			Category: "Other",
			IsActive: false,
		},
	}
}
