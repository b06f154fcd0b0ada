package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations for the wishlist store.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	listSQL = `
		SELECT user_id, product_id, product, created_at
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY created_at, product_id`

	existsSQL = `SELECT EXISTS(SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)`

	toggleDeleteSQL = `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`

	toggleInsertSQL = `
		INSERT INTO wishlist_items (user_id, product_id, product)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING`
)

// WishlistRepository implements repository.WishlistRepository using PostgreSQL.
type WishlistRepository struct {
	db database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(db database.DBTX) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// List returns the user's wishlist, oldest first.
func (r *WishlistRepository) List(ctx context.Context, userID string) (items []domain.WishlistItem, err error) {
	ctx, end := database.TraceQuery(ctx, "ListWishlist", listSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	items = []domain.WishlistItem{}
	for rows.Next() {
		var (
			item    domain.WishlistItem
			product []byte
		)
		if err := rows.Scan(&item.UserID, &item.ProductID, &product, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		if err := json.Unmarshal(product, &item.Product); err != nil {
			return nil, fmt.Errorf("decode wishlist product %s: %w", item.ProductID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist rows: %w", err)
	}

	return items, nil
}

// Toggle deletes the row if it exists and inserts it otherwise. Both steps
// run in one transaction so concurrent toggles cannot leave a duplicate.
func (r *WishlistRepository) Toggle(ctx context.Context, userID string, product domain.Product) (added bool, err error) {
	ctx, end := database.TraceQuery(ctx, "ToggleWishlist", toggleDeleteSQL)
	defer func() { end(err) }()

	snapshot, err := json.Marshal(product)
	if err != nil {
		return false, fmt.Errorf("encode wishlist product: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin toggle wishlist: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, toggleDeleteSQL, userID, product.ID)
	if err != nil {
		return false, fmt.Errorf("remove from wishlist: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err = tx.Exec(ctx, toggleInsertSQL, userID, product.ID, snapshot); err != nil {
			return false, fmt.Errorf("add to wishlist: %w", err)
		}
		added = true
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit toggle wishlist: %w", err)
	}
	return added, nil
}

// Exists checks whether a product is in the user's wishlist.
func (r *WishlistRepository) Exists(ctx context.Context, userID, productID string) (exists bool, err error) {
	ctx, end := database.TraceQuery(ctx, "WishlistExists", existsSQL)
	defer func() { end(err) }()

	if err := r.db.QueryRow(ctx, existsSQL, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check wishlist item exists: %w", err)
	}
	return exists, nil
}
