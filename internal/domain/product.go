package domain

// Product is a catalog record. Prices are in minor units (cents).
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Price        int64    `json:"price"`
	ComparePrice int64    `json:"compare_price,omitempty"`
	Images       []string `json:"images,omitempty"`
	Sizes        []string `json:"sizes,omitempty"`
	Category     string   `json:"category,omitempty"`
	Stock        int      `json:"stock"`
	IsActive     bool     `json:"is_active"`
}

// HasSizes reports whether the product is sold in size variants, in which
// case a size must be chosen before it can be added to a cart.
func (p Product) HasSizes() bool {
	return len(p.Sizes) > 0
}

// Snapshot returns the denormalized copy a cart line keeps for display.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		Name:   p.Name,
		Images: append([]string(nil), p.Images...),
		Price:  p.Price,
	}
}

// Clone returns a deep copy of p.
func (p Product) Clone() Product {
	p.Images = append([]string(nil), p.Images...)
	p.Sizes = append([]string(nil), p.Sizes...)
	return p
}

// ProductSnapshot is the product data captured when a line was created. It is
// never re-synced with the catalog.
type ProductSnapshot struct {
	Name   string   `json:"name"`
	Images []string `json:"images,omitempty"`
	Price  int64    `json:"price"`
}
