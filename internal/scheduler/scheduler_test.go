package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go.domaincheck.dev/checker/internal/model"
	"go.domaincheck.dev/checker/internal/normalize"
)

type instrumentedRunner struct {
	inFlight  int32
	maxInUse  int32
	delay     time.Duration
	onRun     func(fqdn string)
}

func (r *instrumentedRunner) Run(ctx context.Context, fqdn, tld string) model.DomainResult {
	n := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	for {
		max := atomic.LoadInt32(&r.maxInUse)
		if n <= max || atomic.CompareAndSwapInt32(&r.maxInUse, max, n) {
			break
		}
	}
	if r.onRun != nil {
		r.onRun(fqdn)
	}
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return model.DomainResult{FQDN: fqdn, Availability: model.Unknown, Error: model.Cancelled()}
	}
	return model.DomainResult{FQDN: fqdn, Availability: model.Available, MethodUsed: model.MethodStructured}
}

func expandAll(fqdns ...string) []normalize.Expanded {
	out := make([]normalize.Expanded, len(fqdns))
	for i, f := range fqdns {
		out[i] = normalize.Expanded{FQDN: f}
	}
	return out
}

func TestScheduler_NeverExceedsConcurrency(t *testing.T) {
	t.Parallel()

	r := &instrumentedRunner{delay: 5 * time.Millisecond}
	var inputs []string
	for i := 0; i < 40; i++ {
		inputs = append(inputs, string(rune('a'+i%26))+string(rune('0'+i%10))+".com")
	}

	s := New(r, 5)
	results := s.Batch(context.Background(), expandAll(inputs...))

	require.Len(t, results, 40)
	require.LessOrEqual(t, atomic.LoadInt32(&r.maxInUse), int32(5))
}

func TestScheduler_BatchPreservesInputOrder(t *testing.T) {
	t.Parallel()

	// Reverse-order completion: later items finish sooner.
	r := &instrumentedRunner{}
	r.delay = 0
	var mu sync.Mutex
	order := []string{"e.com", "d.com", "c.com", "b.com", "a.com"}
	delays := map[string]time.Duration{
		"e.com": 5 * time.Millisecond,
		"d.com": 4 * time.Millisecond,
		"c.com": 3 * time.Millisecond,
		"b.com": 2 * time.Millisecond,
		"a.com": 1 * time.Millisecond,
	}
	runner := &delayedRunner{delays: delays, mu: &mu}

	s := New(runner, 10)
	results := s.Batch(context.Background(), expandAll(order...))
	require.Len(t, results, 5)
	for i, fqdn := range order {
		require.Equal(t, fqdn, results[i].FQDN)
	}
}

type delayedRunner struct {
	delays map[string]time.Duration
	mu     *sync.Mutex
}

func (r *delayedRunner) Run(ctx context.Context, fqdn, tld string) model.DomainResult {
	time.Sleep(r.delays[fqdn])
	return model.DomainResult{FQDN: fqdn, Availability: model.Available}
}

func TestScheduler_InvalidInputIsolation(t *testing.T) {
	t.Parallel()
	r := &instrumentedRunner{}
	s := New(r, 2)

	expanded := []normalize.Expanded{
		{FQDN: "ok.com"},
		{FQDN: "--bad", Error: model.InvalidInput("invalid label: --bad")},
		{FQDN: "also.ok"},
	}
	results := s.Batch(context.Background(), expanded)
	require.Len(t, results, 3)
	require.Equal(t, model.Unknown, results[1].Availability)
	require.NotNil(t, results[1].Error)
	require.Equal(t, model.KindInvalidInput, results[1].Error.Kind)
	require.Equal(t, model.Available, results[0].Availability)
	require.Equal(t, model.Available, results[2].Availability)
}

func TestScheduler_CancellationDrainsWithCancelledResults(t *testing.T) {
	t.Parallel()

	r := &instrumentedRunner{delay: 200 * time.Millisecond}
	var inputs []normalize.Expanded
	for i := 0; i < 50; i++ {
		inputs = append(inputs, normalize.Expanded{FQDN: string(rune('a'+i%26)) + ".com"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := New(r, 5)

	resultsCh := s.Stream(ctx, inputs)
	time.AfterFunc(20*time.Millisecond, cancel)

	var count int
	for res := range resultsCh {
		count++
		if res.Error != nil {
			require.Equal(t, model.Unknown, res.Availability)
		}
	}
	require.Equal(t, 50, count)
}
