package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(newTestRedis(t), time.Minute)
	ctx := context.Background()
	url := "https://cdn.example.com/space/0.json"

	missed, err := cache.Get(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, missed)

	questions := []Question{
		{ID: 0, Prompt: "Pick one", Options: []string{"a", "b"}, Answer: []string{"a"}},
	}
	require.NoError(t, cache.Set(ctx, url, questions))

	got, err := cache.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, questions, got)
}

func TestCacheKeysAreURLScoped(t *testing.T) {
	cache := NewCache(newTestRedis(t), time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "https://a.example.com/q.json", []Question{{ID: 1}}))

	got, err := cache.Get(ctx, "https://b.example.com/q.json")
	require.NoError(t, err)
	assert.Nil(t, got)
}
