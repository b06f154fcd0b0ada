package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWishlist_ToggleTwiceRestores(t *testing.T) {
	w := NewWishlist("user-1", nil)

	assert.True(t, w.Toggle(productA))
	assert.True(t, w.Contains("prod-a"))

	assert.False(t, w.Toggle(productA))
	assert.False(t, w.Contains("prod-a"))
	assert.Empty(t, w.Items)
}

func TestWishlist_Scenario(t *testing.T) {
	w := NewWishlist("user-1", nil)
	x := Product{ID: "x", Name: "X"}
	y := Product{ID: "y", Name: "Y"}

	w.Toggle(x)
	assert.True(t, w.Contains("x"))

	w.Toggle(y)
	assert.True(t, w.Contains("x"))
	assert.True(t, w.Contains("y"))

	w.Toggle(x)
	assert.False(t, w.Contains("x"))
	assert.True(t, w.Contains("y"))
	assert.Len(t, w.Items, 1)
}

func TestNewWishlist_DropsDuplicates(t *testing.T) {
	w := NewWishlist("user-1", []Product{productA, productB, productA})
	assert.Len(t, w.Items, 2)
	assert.Equal(t, "prod-a", w.Items[0].ID)
	assert.Equal(t, "prod-b", w.Items[1].ID)
}

func TestWishlist_CloneIsDeep(t *testing.T) {
	w := NewWishlist("user-1", []Product{productA})
	cp := w.Clone()
	cp.Items[0].Images[0] = "other.jpg"
	cp.Toggle(productB)

	assert.Equal(t, "a.jpg", w.Items[0].Images[0])
	assert.Len(t, w.Items, 1)
}

func TestProduct_SnapshotAndSizes(t *testing.T) {
	assert.True(t, productA.HasSizes())
	assert.False(t, productC.HasSizes())

	snap := productA.Snapshot()
	assert.Equal(t, ProductSnapshot{Name: "Linen Shirt", Images: []string{"a.jpg"}, Price: 1000}, snap)
	snap.Images[0] = "mutated.jpg"
	assert.Equal(t, "a.jpg", productA.Images[0])
}

func TestCheckAddable(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		size    string
		want    error
	}{
		{"sized with size", productA, "M", nil},
		{"unsized without size", productC, "", nil},
		{"sized without size", productA, "", ErrSizeRequired},
		{"missing id", Product{Name: "x"}, "", ErrProductRequired},
		{"blank name", Product{ID: "p", Name: "  "}, "", ErrNameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAddable(tt.product, tt.size)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
