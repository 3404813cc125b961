package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_BurstBlockAndRefill(t *testing.T) {
	t.Parallel()

	limits := Limits{RatePerSec: 1.0, Burst: 2, Block: 2 * time.Second}
	l := NewMemory(limits)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ctx := context.Background()

	ok, retry, err := l.Acquire(ctx, "rdap.example")
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, retry)

	ok, retry, err = l.Acquire(ctx, "rdap.example")
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, retry)

	ok, retry, err = l.Acquire(ctx, "rdap.example")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 2*time.Second, retry)

	now = now.Add(500 * time.Millisecond)
	ok, retry, err = l.Acquire(ctx, "rdap.example")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1500*time.Millisecond, retry)

	now = now.Add(3 * time.Second)
	ok, retry, err = l.Acquire(ctx, "rdap.example")
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, retry)
}

func TestMemoryLimiter_BlockUntil_ExtendsForwardOnly(t *testing.T) {
	t.Parallel()

	l := NewMemory(Limits{RatePerSec: 1, Burst: 1, Block: time.Second})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, l.BlockUntil(ctx, "host", now.Add(5*time.Second)))
	ok, retry, err := l.Acquire(ctx, "host")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 5*time.Second, retry)

	// A shorter block must not shrink the existing one.
	require.NoError(t, l.BlockUntil(ctx, "host", now.Add(1*time.Second)))
	ok, retry, err = l.Acquire(ctx, "host")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 5*time.Second, retry)
}

func TestMemoryLimiter_IndependentProviders(t *testing.T) {
	t.Parallel()

	l := NewMemory(Limits{RatePerSec: 1, Burst: 1, Block: time.Second})
	ctx := context.Background()

	okA, _, err := l.Acquire(ctx, "a")
	require.NoError(t, err)
	require.True(t, okA)

	okB, _, err := l.Acquire(ctx, "b")
	require.NoError(t, err)
	require.True(t, okB, "provider b must have its own bucket")
}
