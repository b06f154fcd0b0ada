package domain

import "time"

// Wishlist is the set of products a user has liked, unique by product id and
// kept in insertion order for display.
type Wishlist struct {
	UserID string    `json:"user_id"`
	Items  []Product `json:"items"`
}

// WishlistItem is a stored wishlist row.
type WishlistItem struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWishlist builds a wishlist from items, dropping repeated product ids.
func NewWishlist(userID string, items []Product) *Wishlist {
	w := &Wishlist{UserID: userID, Items: make([]Product, 0, len(items))}
	for _, p := range items {
		if !w.Contains(p.ID) {
			w.Items = append(w.Items, p.Clone())
		}
	}
	return w
}

// Contains reports whether productID is in the wishlist.
func (w *Wishlist) Contains(productID string) bool {
	for i := range w.Items {
		if w.Items[i].ID == productID {
			return true
		}
	}
	return false
}

// Toggle removes p if present and inserts it otherwise. It reports whether p
// is in the wishlist afterwards.
func (w *Wishlist) Toggle(p Product) bool {
	for i := range w.Items {
		if w.Items[i].ID == p.ID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return false
		}
	}
	w.Items = append(w.Items, p.Clone())
	return true
}

// Clone returns a deep copy of the wishlist.
func (w *Wishlist) Clone() *Wishlist {
	if w == nil {
		return nil
	}
	out := &Wishlist{UserID: w.UserID, Items: make([]Product, len(w.Items))}
	for i, p := range w.Items {
		out.Items[i] = p.Clone()
	}
	return out
}
