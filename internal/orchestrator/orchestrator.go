// Package orchestrator implements the per-domain state machine: it picks
// a protocol order, retries transient failures with jittered backoff,
// falls back from structured to textual (or vice versa) on inconclusive
// outcomes, and merges partial metadata across protocols: cache check,
// rate limiter, protocol attempt, suggested-delay handling, expressed
// as an explicit state machine rather than a reconciliation loop.
package orchestrator

import (
	"context"
	"math/rand"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"

	"go.domaincheck.dev/checker/internal/config"
	"go.domaincheck.dev/checker/internal/endpoints"
	"go.domaincheck.dev/checker/internal/model"
	"go.domaincheck.dev/checker/internal/ratelimit"
	"go.domaincheck.dev/checker/internal/structured"
	"go.domaincheck.dev/checker/internal/textual"
)

// StructuredLookup abstracts the structured-protocol client so the
// orchestrator can be tested without HTTP.
type StructuredLookup interface {
	Lookup(ctx context.Context, urlStr, fqdn string) (model.Availability, *model.Registration, *model.CheckError)
}

// TextualLookup abstracts the textual-protocol client.
type TextualLookup interface {
	Lookup(ctx context.Context, fqdn, tld string) (model.Availability, *model.Registration, *model.CheckError)
}

// EndpointResolver abstracts the endpoint registry.
type EndpointResolver interface {
	Resolve(ctx context.Context, tld string) (*model.EndpointEntry, error)
}

var (
	_ StructuredLookup = (*structured.Client)(nil)
	_ TextualLookup    = (*textual.Client)(nil)
	_ EndpointResolver = (*endpoints.Registry)(nil)
)

// Orchestrator runs the Start/TryStructured/TryTextual/Done state
// machine described for a single domain.
type Orchestrator struct {
	Structured StructuredLookup
	Textual    TextualLookup
	Endpoints  EndpointResolver
	Limiter    ratelimit.ProviderLimiter

	cfg config.Configuration
	rnd func() float64
	now func() time.Time
}

// New builds an Orchestrator bound to cfg's retry/backoff/protocol_order
// settings.
func New(cfg config.Configuration, structuredClient StructuredLookup, textualClient TextualLookup, registry EndpointResolver, limiter ratelimit.ProviderLimiter) *Orchestrator {
	return &Orchestrator{
		Structured: structuredClient,
		Textual:    textualClient,
		Endpoints:  registry,
		Limiter:    limiter,
		cfg:        cfg,
		rnd:        rand.Float64,
		now:        time.Now,
	}
}

// Run drives one domain through the state machine to completion,
// producing the final DomainResult. fqdn is the name sent in both
// protocols' queries; tld selects its endpoint and textual server.
func (o *Orchestrator) Run(ctx context.Context, fqdn, tld string) model.DomainResult {
	res := model.DomainResult{FQDN: fqdn, Availability: model.Unknown, MethodUsed: model.MethodNone}

	order := o.protocolSequence()
	var reg model.Registration
	haveReg := false
	var failures *multierror.Error

	for _, proto := range order {
		if ctx.Err() != nil {
			res.Error = model.Cancelled()
			res.Availability = model.Unknown
			return res
		}

		var avail model.Availability
		var protoReg *model.Registration
		var cerr *model.CheckError
		var attempted bool

		switch proto {
		case model.ProtocolStructured:
			avail, protoReg, cerr, attempted = o.runStructured(ctx, fqdn, tld, &res)
		case model.ProtocolTextual:
			avail, protoReg, cerr, attempted = o.runTextual(ctx, fqdn, tld, &res)
		}

		if protoReg != nil {
			if haveReg {
				reg.MergeFrom(protoReg)
			} else {
				reg = *protoReg
				haveReg = true
			}
		}

		// Remember the most recent error regardless of whether this
		// protocol was attempted, so a TLD missing both an endpoint and a
		// textual server still surfaces a terminal error. res.Error holds
		// the last one tried; after the loop the earlier ones are attached
		// to it, so the error lists both kinds.
		// The prior terminal error, if any, is folded into failures before
		// being overwritten so the final CheckError never wraps itself.
		if cerr != nil {
			if res.Error != nil {
				failures = multierror.Append(failures, res.Error)
			}
			res.Error = cerr
		}

		if !attempted {
			// No endpoint/server existed for this protocol; try the next.
			continue
		}

		if cerr == nil && avail != model.Unknown {
			// Definitive outcome: available or taken.
			res.Availability = avail
			res.MethodUsed = method(proto)
			if haveReg {
				reg.ApplyTo(&res)
			}
			return res
		}
	}

	// Every protocol tried ended inconclusively: attach the earlier
	// protocol's error to the terminal one so a caller inspecting
	// res.Error sees the full chain, not just whichever protocol ran
	// last.
	if res.Error != nil && failures.ErrorOrNil() != nil {
		res.Error.Err = failures.ErrorOrNil()
	}

	if haveReg {
		reg.ApplyTo(&res)
	}
	return res
}

func method(p model.Protocol) model.Method {
	if p == model.ProtocolStructured {
		return model.MethodStructured
	}
	return model.MethodTextual
}

func (o *Orchestrator) protocolSequence() []model.Protocol {
	switch o.cfg.ProtocolOrder {
	case config.StructuredOnly:
		return []model.Protocol{model.ProtocolStructured}
	case config.TextualOnly:
		return []model.Protocol{model.ProtocolTextual}
	case config.TextualThenStructured:
		return []model.Protocol{model.ProtocolTextual, model.ProtocolStructured}
	default:
		return []model.Protocol{model.ProtocolStructured, model.ProtocolTextual}
	}
}

// runStructured executes the structured protocol with retry, recording
// each attempt on res.Attempts. attempted is false when there was no
// endpoint to query at all (so the caller should not count this as a
// terminal failure for fallback purposes beyond trying textual next).
func (o *Orchestrator) runStructured(ctx context.Context, fqdn, tld string, res *model.DomainResult) (model.Availability, *model.Registration, *model.CheckError, bool) {
	entry, err := o.Endpoints.Resolve(ctx, tld)
	if err != nil || entry == nil || entry.Negative || entry.URLTemplate == "" {
		res.Attempts = append(res.Attempts, model.Attempt{
			Protocol: model.ProtocolStructured,
			Outcome:  "error",
			Error:    model.EndpointUnavailable(tld),
		})
		return model.Unknown, nil, model.EndpointUnavailable(tld), false
	}

	url := entry.Expand(fqdn)
	host := providerKey(url)

	var lastAvail model.Availability = model.Unknown
	var lastReg *model.Registration
	var lastErr *model.CheckError

	for attempt := 1; attempt <= o.cfg.Retries+1; attempt++ {
		if ctx.Err() != nil {
			return model.Unknown, lastReg, model.Cancelled(), true
		}

		if o.Limiter != nil {
			if ok, retryAfter, lerr := o.Limiter.Acquire(ctx, host); lerr == nil && !ok {
				lastErr = model.RateLimited("structured", retryAfter)
				o.recordAttempt(res, model.ProtocolStructured, "error", lastErr, 0)
				if attempt > o.cfg.Retries || !o.sleepBeforeRetry(ctx, attempt, lastErr) {
					break
				}
				continue
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.PerAttemptTimeout)
		start := o.now()
		avail, reg, cerr := o.Structured.Lookup(attemptCtx, url, fqdn)
		elapsed := o.now().Sub(start)
		cancel()

		lastAvail, lastReg, lastErr = avail, reg, cerr
		o.recordAttempt(res, model.ProtocolStructured, outcomeString(avail, cerr), cerr, elapsed)

		if cerr == nil {
			return avail, reg, nil, true
		}
		if !model.IsRetryable(cerr) {
			break
		}
		if attempt > o.cfg.Retries || !o.sleepBeforeRetry(ctx, attempt, cerr) {
			break
		}
	}

	return lastAvail, lastReg, lastErr, true
}

func (o *Orchestrator) runTextual(ctx context.Context, fqdn, tld string, res *model.DomainResult) (model.Availability, *model.Registration, *model.CheckError, bool) {
	var lastAvail model.Availability = model.Unknown
	var lastReg *model.Registration
	var lastErr *model.CheckError

	for attempt := 1; attempt <= o.cfg.Retries+1; attempt++ {
		if ctx.Err() != nil {
			return model.Unknown, lastReg, model.Cancelled(), true
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.PerAttemptTimeout)
		start := o.now()
		avail, reg, cerr := o.Textual.Lookup(attemptCtx, fqdn, tld)
		elapsed := o.now().Sub(start)
		cancel()

		if cerr != nil && cerr.Kind == model.KindNoTextualServer {
			return model.Unknown, nil, cerr, false
		}

		lastAvail, lastReg, lastErr = avail, reg, cerr
		o.recordAttempt(res, model.ProtocolTextual, outcomeString(avail, cerr), cerr, elapsed)

		if cerr == nil {
			return avail, reg, nil, true
		}
		if !model.IsRetryable(cerr) {
			break
		}
		if attempt > o.cfg.Retries || !o.sleepBeforeRetry(ctx, attempt, cerr) {
			break
		}
	}

	return lastAvail, lastReg, lastErr, true
}

func (o *Orchestrator) recordAttempt(res *model.DomainResult, proto model.Protocol, outcome string, cerr *model.CheckError, elapsed time.Duration) {
	res.Attempts = append(res.Attempts, model.Attempt{Protocol: proto, Outcome: outcome, Error: cerr, Elapsed: elapsed})
}

func outcomeString(avail model.Availability, cerr *model.CheckError) string {
	if cerr != nil {
		return "error"
	}
	return string(avail)
}

// sleepBeforeRetry blocks for the backoff duration and reports whether
// a retry should proceed (false if the context ended first).
func (o *Orchestrator) sleepBeforeRetry(ctx context.Context, attempt int, cerr *model.CheckError) bool {
	delay := o.backoff(attempt)
	if cerr != nil && cerr.RetryAfter > delay {
		delay = cerr.RetryAfter
	}
	if delay <= 0 {
		return true
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff computes retry_base_delay * 2^(attempt-1) with ±20% jitter,
// capped at 10s.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	base := o.cfg.RetryBaseDelay
	if base <= 0 {
		return 0
	}
	mult := 1 << uint(attempt-1)
	d := base * time.Duration(mult)
	const cap = 10 * time.Second
	if d > cap {
		d = cap
	}
	jitter := 1 + (o.rnd()*0.4 - 0.2) // uniform in [0.8, 1.2]
	d = time.Duration(float64(d) * jitter)
	if d > cap {
		d = cap
	}
	return d
}

func providerKey(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return urlStr
	}
	return u.Host
}
