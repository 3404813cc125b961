// Package scheduler implements bounded fan-out over an expanded domain
// sequence: a semaphore-guarded worker pool that invokes the
// Orchestrator per domain, with backpressure, cancellation propagation,
// and both streaming (completion order) and batch (input order) output
// modes. Built on the errgroup.WithContext + g.Go/g.Wait fan-out idiom,
// generalized from a fixed handful of top-level goroutines into an
// N-worker pool bounded by golang.org/x/sync/semaphore.
package scheduler

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"go.domaincheck.dev/checker/internal/model"
	"go.domaincheck.dev/checker/internal/normalize"
)

// Runner invokes the Orchestrator for one FQDN. Implemented by
// *orchestrator.Orchestrator; kept as an interface here so the
// scheduler has no import-time dependency on the protocol clients.
type Runner interface {
	Run(ctx context.Context, fqdn, tld string) model.DomainResult
}

// Scheduler fans out Orchestrator.Run calls across a bounded worker
// pool.
type Scheduler struct {
	Runner      Runner
	Concurrency int
}

// New builds a Scheduler. concurrency <= 0 is treated as 1.
func New(runner Runner, concurrency int) *Scheduler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scheduler{Runner: runner, Concurrency: concurrency}
}

// indexed pairs a DomainResult with its position in the expanded input
// sequence, so batch mode can restore input order after concurrent
// completion.
type indexed struct {
	pos int
	res model.DomainResult
}

// Stream runs the expanded inputs through the worker pool and returns
// results on a channel in completion order. The channel is closed once
// every input has produced exactly one result, including results
// synthesized for inputs that failed normalization. Cancelling ctx
// drains in-flight work and emits `unknown`/Cancelled for domains that
// were started but did not finish; the channel still closes.
func (s *Scheduler) Stream(ctx context.Context, expanded []normalize.Expanded) <-chan model.DomainResult {
	out := make(chan model.DomainResult, 2*s.Concurrency)
	indexedOut := s.streamIndexed(ctx, expanded)
	go func() {
		defer close(out)
		for ir := range indexedOut {
			out <- ir.res
		}
	}()
	return out
}

// streamIndexed is Stream's internal implementation; it tags each result
// with its position in `expanded` so Batch can restore input order
// without relying on FQDN string identity (which is not unique when two
// distinct inputs fail normalization to the same trimmed string).
func (s *Scheduler) streamIndexed(ctx context.Context, expanded []normalize.Expanded) <-chan indexed {
	out := make(chan indexed, 2*s.Concurrency)

	go func() {
		defer close(out)

		sem := semaphore.NewWeighted(int64(s.Concurrency))
		g, gctx := errgroup.WithContext(context.Background())

		type posItem struct {
			pos int
			e   normalize.Expanded
		}

		var mu sync.Mutex

		// producer: a bounded channel decouples iteration (which may be
		// arbitrarily long, e.g. --all-tlds) from worker availability. On
		// cancellation the producer still owes a result for every input it
		// never got to send, so every domain yields exactly one result
		// even when the run is aborted partway through.
		in := make(chan posItem, 2*s.Concurrency)
		go func() {
			defer close(in)
			for i, e := range expanded {
				select {
				case in <- posItem{pos: i, e: e}:
				case <-ctx.Done():
					for j := i; j < len(expanded); j++ {
						mu.Lock()
						out <- indexed{pos: j, res: cancelledResult(expanded[j])}
						mu.Unlock()
					}
					return
				}
			}
		}()

		for item := range in {
			item := item
			if err := sem.Acquire(gctx, 1); err != nil {
				// Context was cancelled while waiting for a permit; emit a
				// Cancelled result directly rather than dropping the input.
				mu.Lock()
				out <- indexed{pos: item.pos, res: cancelledResult(item.e)}
				mu.Unlock()
				continue
			}
			g.Go(func() error {
				defer sem.Release(1)
				res := s.runOne(ctx, item.e)
				mu.Lock()
				out <- indexed{pos: item.pos, res: res}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}

// Batch runs the pool to completion and returns results re-sorted to
// input order.
func (s *Scheduler) Batch(ctx context.Context, expanded []normalize.Expanded) []model.DomainResult {
	collected := make([]indexed, 0, len(expanded))
	for ir := range s.streamIndexed(ctx, expanded) {
		collected = append(collected, ir)
	}

	sort.SliceStable(collected, func(i, j int) bool { return collected[i].pos < collected[j].pos })

	out := make([]model.DomainResult, len(collected))
	for i, c := range collected {
		out[i] = c.res
	}
	return out
}

func (s *Scheduler) runOne(ctx context.Context, e normalize.Expanded) model.DomainResult {
	if e.Error != nil {
		return model.DomainResult{FQDN: e.FQDN, Availability: model.Unknown, MethodUsed: model.MethodNone, Error: e.Error}
	}
	if ctx.Err() != nil {
		return cancelledResult(e)
	}
	return s.Runner.Run(ctx, e.FQDN, normalize.TLD(e.FQDN))
}

func cancelledResult(e normalize.Expanded) model.DomainResult {
	return model.DomainResult{FQDN: e.FQDN, Availability: model.Unknown, MethodUsed: model.MethodNone, Error: model.Cancelled()}
}
