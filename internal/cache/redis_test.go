package cache

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/go-redis/redis/v7"
	"github.com/stretchr/testify/require"
)

func newTestRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = c.Close()
		mr.Close()
	})
	return c
}

func TestRedis_SetGet(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	c := NewRedis(client, "dc:")

	require.NoError(t, c.Set("k", map[string]string{"a": "b"}, 0))
	var got map[string]string
	found, err := c.Get("k", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "b", got["a"])
}

func TestRedis_Miss(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	c := NewRedis(client, "")
	var got string
	found, err := c.Get("missing", &got)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedis_BadJSONTreatedAsMiss(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	c := NewRedis(client, "")
	require.NoError(t, client.Set(c.key("bad"), []byte("{not-json"), 0).Err())

	var dst map[string]any
	found, err := c.Get("bad", &dst)
	require.NoError(t, err)
	require.False(t, found)
}
