package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCartRepository(client, 24*time.Hour), mr
}

func sampleCart(version int64) *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	c := domain.NewCart("user-001", now, 24*time.Hour)
	c.Version = version
	_ = c.Add(domain.NewLine(domain.Product{ID: "prod-1", Name: "Linen Shirt", Price: 1990, Images: []string{"s.jpg"}}, "M", 2))
	return c
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart(3)
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set("cart:"+cart.UserID, string(data)))

	got, err := repo.Get(context.Background(), cart.UserID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
	assert.Equal(t, int64(3), got.Version)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, domain.LineID("prod-1", "M"), got.Lines[0].ID)
	assert.Equal(t, "Linen Shirt", got.Lines[0].Product.Name)
	assert.Equal(t, int64(3980), got.TotalAmount())
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	_, err := repo.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Get_CorruptData(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:user-001", "{not json"))

	_, err := repo.Get(context.Background(), "user-001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestCartRepository_Get_RedisDown(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, time.Hour)

	_, err := repo.Get(context.Background(), "user-001")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

// ---------------------------------------------------------------------------
// SaveIfVersion
// ---------------------------------------------------------------------------

func TestCartRepository_SaveIfVersion_CreatesFromEmpty(t *testing.T) {
	repo, mr := setupTestRedis(t)

	saved, err := repo.SaveIfVersion(context.Background(), sampleCart(1), 0)
	require.NoError(t, err)
	assert.True(t, saved)

	assert.True(t, mr.Exists("cart:user-001"))
	assert.Equal(t, 24*time.Hour, mr.TTL("cart:user-001"))
}

func TestCartRepository_SaveIfVersion_RejectsStaleVersion(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	saved, err := repo.SaveIfVersion(ctx, sampleCart(1), 0)
	require.NoError(t, err)
	require.True(t, saved)

	saved, err = repo.SaveIfVersion(ctx, sampleCart(2), 1)
	require.NoError(t, err)
	require.True(t, saved)

	// a writer that still believes the cart is at version 1
	stale := sampleCart(2)
	stale.Lines = nil
	saved, err = repo.SaveIfVersion(ctx, stale, 1)
	require.NoError(t, err)
	assert.False(t, saved)

	got, err := repo.Get(ctx, "user-001")
	require.NoError(t, err)
	assert.Len(t, got.Lines, 1)
	assert.Equal(t, int64(2), got.Version)
}

func TestCartRepository_SaveIfVersion_ExpectsEmptyButExists(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := repo.SaveIfVersion(ctx, sampleCart(1), 0)
	require.NoError(t, err)

	saved, err := repo.SaveIfVersion(ctx, sampleCart(1), 0)
	require.NoError(t, err)
	assert.False(t, saved)
}

// ---------------------------------------------------------------------------
// Clear
// ---------------------------------------------------------------------------

func TestCartRepository_StaleWriterCannotOverwriteAfterClear(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	saved, err := repo.SaveIfVersion(ctx, sampleCart(1), 0)
	require.NoError(t, err)
	require.True(t, saved)

	stale, err := repo.Get(ctx, "user-001")
	require.NoError(t, err)
	stale.Lines[0].Quantity++
	stale.Version = 2

	cleared, err := repo.Get(ctx, "user-001")
	require.NoError(t, err)
	cleared.Clear()
	cleared.Version = 2
	saved, err = repo.SaveIfVersion(ctx, cleared, 1)
	require.NoError(t, err)
	require.True(t, saved)

	readded := cleared.Clone()
	require.NoError(t, readded.Add(domain.NewLine(domain.Product{ID: "prod-2", Name: "Tote", Price: 2500}, "L", 1)))
	readded.Version = 3
	saved, err = repo.SaveIfVersion(ctx, readded, 2)
	require.NoError(t, err)
	require.True(t, saved)

	saved, err = repo.SaveIfVersion(ctx, stale, 1)
	require.NoError(t, err)
	assert.False(t, saved)

	got, err := repo.Get(ctx, "user-001")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "prod-2", got.Lines[0].ProductID)
}

func TestCartRepository_Ping(t *testing.T) {
	repo, _ := setupTestRedis(t)
	require.NoError(t, repo.Ping(context.Background()))
}
