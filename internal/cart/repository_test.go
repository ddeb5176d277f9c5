package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisclient "github.com/angelmondragon/ebookshop-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redisclient.NewFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	repo, err := NewRedisRepository(client, ttl)
	require.NoError(t, err)
	return repo, srv
}

func TestRoundTripThroughRedisKeepsEveryField(t *testing.T) {
	repo, srv := newRedisRepo(t, time.Hour)
	ctx := context.Background()

	p := product("P", "12.34")
	p.Description = "A long description"
	p.Language = "fr"

	s := NewStore(nil)
	s.Subscribe(func(c Change) {
		require.NoError(t, repo.Save(ctx, "sess-1", c.Snapshot.Items))
	})
	s.AddToCart(p, 3)

	require.True(t, srv.Exists("ebk:cart:sess-1"))

	restored, err := repo.Load(ctx, "sess-1")
	require.NoError(t, err)
	reloaded := NewStore(restored)

	items := reloaded.Items()
	require.Len(t, items, 1)
	got := items[0]
	assert.Equal(t, "P", got.ID)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, p.Category, got.Category)
	assert.Equal(t, p.Image, got.Image)
	assert.True(t, got.Price.Equal(p.Price))
	assert.Equal(t, p.Author, got.Author)
	assert.Equal(t, p.Description, got.Description)
	assert.Equal(t, p.Language, got.Language)
	assert.Equal(t, p.Link, got.Link)
	requireTotal(t, reloaded, "37.02")
}

func TestClearThenReloadIsEmpty(t *testing.T) {
	repo, srv := newRedisRepo(t, time.Hour)
	ctx := context.Background()

	s := NewStore(nil)
	s.Subscribe(func(c Change) {
		require.NoError(t, repo.Save(ctx, "sess-2", c.Snapshot.Items))
	})
	s.AddToCart(product("A", "10"), 2)
	s.ClearCart()

	assert.False(t, srv.Exists("ebk:cart:sess-2"))

	restored, err := repo.Load(ctx, "sess-2")
	require.NoError(t, err)
	reloaded := NewStore(restored)
	assert.Empty(t, reloaded.Items())
	requireTotal(t, reloaded, "0")
}

func TestLoadMissingSlotIsEmptyCart(t *testing.T) {
	repo, _ := newRedisRepo(t, time.Hour)
	items, err := repo.Load(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoadSlidesExpiry(t *testing.T) {
	repo, srv := newRedisRepo(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "sess-3", []Item{{ID: "A", Quantity: 1}}))
	srv.FastForward(50 * time.Minute)
	assert.Equal(t, 10*time.Minute, srv.TTL("ebk:cart:sess-3"))

	_, err := repo.Load(ctx, "sess-3")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, srv.TTL("ebk:cart:sess-3"))

	srv.FastForward(2 * time.Hour)
	items, err := repo.Load(ctx, "sess-3")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoadCorruptSlot(t *testing.T) {
	repo, srv := newRedisRepo(t, time.Hour)
	require.NoError(t, srv.Set("ebk:cart:bad", "{not json"))

	_, err := repo.Load(context.Background(), "bad")
	assert.True(t, errors.Is(err, ErrCorruptSlot))
}

func TestLoadSurfacesRedisOutage(t *testing.T) {
	repo, srv := newRedisRepo(t, time.Hour)
	srv.Close()

	_, err := repo.Load(context.Background(), "sess")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCorruptSlot))
}
