package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/go-redis/redis/v7"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
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

func TestRedisLimiter_KeyPrefixing(t *testing.T) {
	t.Parallel()

	client := newTestRedis(t)
	l := NewRedis(client, "pfx:", Limits{RatePerSec: 1, Burst: 1, Block: time.Second})
	require.Equal(t, "pfx:rl:rdap.example", l.key("rdap.example"))
	require.Equal(t, "pfx:rl:default", l.key(""))
}

func TestRedisLimiter_AcquireBlockAndRefill(t *testing.T) {
	t.Parallel()

	client := newTestRedis(t)
	l := NewRedis(client, "pfx:", Limits{RatePerSec: 1.0, Burst: 2, Block: 2 * time.Second})
	ctx := context.Background()

	ok, _, err := l.Acquire(ctx, "rdap.example")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = l.Acquire(ctx, "rdap.example")
	require.NoError(t, err)
	require.True(t, ok)

	ok, retry, err := l.Acquire(ctx, "rdap.example")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 2*time.Second, retry)
}

func TestRedisLimiter_BlockUntil(t *testing.T) {
	t.Parallel()

	client := newTestRedis(t)
	l := NewRedis(client, "", Limits{RatePerSec: 1, Burst: 1, Block: time.Second})
	ctx := context.Background()

	require.NoError(t, l.BlockUntil(ctx, "host", time.Now().Add(3*time.Second)))
	ok, retry, err := l.Acquire(ctx, "host")
	require.NoError(t, err)
	require.False(t, ok)
	require.InDelta(t, 3*time.Second, retry, float64(200*time.Millisecond))
}
