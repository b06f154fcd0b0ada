package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

const (
	// MaxLineQuantity is the largest quantity a single cart line may hold.
	MaxLineQuantity = 100
	// MaxCartLines is the largest number of distinct lines a cart may hold.
	MaxCartLines = 50
	// DefaultCurrency is used for carts created without an explicit currency.
	DefaultCurrency = "USD"
)

var (
	ErrProductRequired = fmt.Errorf("%w: product id is required", apperrors.ErrInvalidInput)
	ErrNameRequired    = fmt.Errorf("%w: product name is required", apperrors.ErrInvalidInput)
	ErrSizeRequired    = fmt.Errorf("%w: a size must be selected for this product", apperrors.ErrInvalidInput)
	ErrQuantityLimit = fmt.Errorf("%w: quantity per line cannot exceed %d", apperrors.ErrInvalidInput, MaxLineQuantity)
	ErrTooManyLines  = fmt.Errorf("%w: cart cannot hold more than %d lines", apperrors.ErrInvalidInput, MaxCartLines)
	ErrBadQuantity   = fmt.Errorf("%w: quantity must be at least 1", apperrors.ErrInvalidInput)
)

// CheckAddable reports whether p may be added to a cart in size: it needs an
// id and a name, and a size when it is sold in sizes.
func CheckAddable(p Product, size string) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return ErrProductRequired
	case strings.TrimSpace(p.Name) == "":
		return ErrNameRequired
	case p.HasSizes() && size == "":
		return ErrSizeRequired
	}
	return nil
}

// lineNamespace scopes line ids so they never collide with other UUIDv5 users.
var lineNamespace = uuid.MustParse("6f0f5d64-8d2b-5b8e-9a53-3c1c2b7f4e10")

// LineID derives the id of the line holding (productID, size). Client and
// server compute the same id independently.
func LineID(productID, size string) string {
	return uuid.NewSHA1(lineNamespace, []byte(productID+"\x00"+size)).String()
}

// CartLine is one (product, size) entry in a cart.
type CartLine struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Product   ProductSnapshot `json:"product"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice int64           `json:"unit_price"`
}

// Subtotal is UnitPrice × Quantity.
func (l CartLine) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// NewLine builds a line for product at size with the product's current price.
func NewLine(p Product, size string, quantity int) CartLine {
	return CartLine{
		ID:        LineID(p.ID, size),
		ProductID: p.ID,
		Product:   p.Snapshot(),
		Size:      size,
		Quantity:  quantity,
		UnitPrice: p.Price,
	}
}

// Cart represents a shopping cart.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Lines     []CartLine `json:"lines"`
	Currency  string     `json:"currency"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`

	// ReportedTotal is the total the persistence layer reported alongside the
	// cart. It is an audit value only; TotalAmount is authoritative.
	ReportedTotal int64 `json:"-"`
}

// NewCart returns an empty cart for userID expiring ttl after now.
func NewCart(userID string, now time.Time, ttl time.Duration) *Cart {
	return &Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		Lines:     []CartLine{},
		Currency:  DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// TotalAmount is the sum of every line's subtotal, in cents.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

// ItemCount is the sum of every line's quantity.
func (c *Cart) ItemCount() int {
	var count int
	for _, l := range c.Lines {
		count += l.Quantity
	}
	return count
}

// FindLine returns the index of the line with lineID and size, or -1.
func (c *Cart) FindLine(lineID, size string) int {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID && c.Lines[i].Size == size {
			return i
		}
	}
	return -1
}

// FindProduct returns the index of the line holding (productID, size), or -1.
func (c *Cart) FindProduct(productID, size string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].Size == size {
			return i
		}
	}
	return -1
}

// Add merges line into the cart. An existing (product, size) line has its
// quantity increased and keeps its original unit price and snapshot;
// otherwise the line is appended. The cart is left untouched on error.
func (c *Cart) Add(line CartLine) error {
	if line.Quantity < 1 {
		return ErrBadQuantity
	}

	if idx := c.FindProduct(line.ProductID, line.Size); idx >= 0 {
		next := c.Lines[idx].Quantity + line.Quantity
		if next > MaxLineQuantity {
			return ErrQuantityLimit
		}
		c.Lines[idx].Quantity = next
		return nil
	}

	if line.Quantity > MaxLineQuantity {
		return ErrQuantityLimit
	}
	if len(c.Lines) >= MaxCartLines {
		return ErrTooManyLines
	}
	if line.ID == "" {
		line.ID = LineID(line.ProductID, line.Size)
	}
	c.Lines = append(c.Lines, line)
	return nil
}

// Remove deletes the line matching lineID and size. It reports whether a
// line was removed.
func (c *Cart) Remove(lineID, size string) bool {
	idx := c.FindLine(lineID, size)
	if idx < 0 {
		return false
	}
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	return true
}

// SetQuantity sets the quantity of the matching line. A quantity of zero or
// less deletes the line. It reports whether a line matched.
func (c *Cart) SetQuantity(lineID, size string, quantity int) (bool, error) {
	if quantity > MaxLineQuantity {
		return false, ErrQuantityLimit
	}
	idx := c.FindLine(lineID, size)
	if idx < 0 {
		return false, nil
	}
	if quantity <= 0 {
		c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
		return true, nil
	}
	c.Lines[idx].Quantity = quantity
	return true, nil
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.Lines = []CartLine{}
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Lines = make([]CartLine, len(c.Lines))
	for i, l := range c.Lines {
		l.Product.Images = append([]string(nil), l.Product.Images...)
		out.Lines[i] = l
	}
	return &out
}
