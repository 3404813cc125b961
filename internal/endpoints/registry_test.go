package endpoints

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openrdap/rdap/bootstrap"
	"github.com/stretchr/testify/require"

	"go.domaincheck.dev/checker/internal/cache"
)

func TestRegistry_StaticTableHit(t *testing.T) {
	t.Parallel()

	r := New(cache.NewMemory(), true, time.Hour, time.Hour)
	entry, err := r.Resolve(context.Background(), "com")
	require.NoError(t, err)
	require.Equal(t, "static", string(entry.Source))
	require.Contains(t, entry.URLTemplate, "{domain}")
}

func TestRegistry_BootstrapFetchIsCoalesced(t *testing.T) {
	t.Parallel()

	r := New(cache.NewMemory(), true, time.Hour, time.Hour, WithStaticTable(map[string]string{}))

	var calls int32
	u, _ := url.Parse("https://rdap.example-registry.test/xyz")
	r.lookupBootstrap = func(ctx context.Context, tld string) (*bootstrap.Answer, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond) // widen the coalescing window
		return &bootstrap.Answer{URLs: []*url.URL{u}}, nil
	}

	const n = 50
	var wg sync.WaitGroup
	results := make([]*string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := r.Resolve(context.Background(), "xyz")
			require.NoError(t, err)
			s := entry.URLTemplate
			results[i] = &s
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, calls, "expected exactly one bootstrap fetch for 50 concurrent lookups of the same TLD")
	for _, r := range results {
		require.NotNil(t, r)
		require.Contains(t, *r, "rdap.example-registry.test")
	}
}

func TestRegistry_NoMatchIsCachedAsNegative(t *testing.T) {
	t.Parallel()

	r := New(cache.NewMemory(), true, time.Hour, time.Hour, WithStaticTable(map[string]string{}))

	var calls int32
	r.lookupBootstrap = func(ctx context.Context, tld string) (*bootstrap.Answer, error) {
		atomic.AddInt32(&calls, 1)
		return &bootstrap.Answer{}, nil
	}

	entry, err := r.Resolve(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.True(t, entry.Negative)

	// Second call should hit the negative cache entry, not refetch.
	entry2, err := r.Resolve(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.True(t, entry2.Negative)
	require.EqualValues(t, 1, calls)
}

func TestRegistry_BootstrapDisabledWithoutStaticOrCacheHit(t *testing.T) {
	t.Parallel()

	r := New(cache.NewMemory(), false, time.Hour, time.Hour, WithStaticTable(map[string]string{}))
	_, err := r.Resolve(context.Background(), "zzz")
	require.Error(t, err)
}

func TestRegistry_FetchFailureDoesNotPoisonCache(t *testing.T) {
	t.Parallel()

	r := New(cache.NewMemory(), true, time.Hour, time.Hour, WithStaticTable(map[string]string{}))

	var calls int32
	u, _ := url.Parse("https://rdap.example-registry.test/ok")
	r.lookupBootstrap = func(ctx context.Context, tld string) (*bootstrap.Answer, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return nil, context.DeadlineExceeded
		}
		return &bootstrap.Answer{URLs: []*url.URL{u}}, nil
	}

	_, err := r.Resolve(context.Background(), "flaky")
	require.Error(t, err)

	entry, err := r.Resolve(context.Background(), "flaky")
	require.NoError(t, err)
	require.False(t, entry.Negative)
	require.EqualValues(t, 2, calls)
}
