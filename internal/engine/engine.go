// Package engine wires the Normalizer, Endpoint Registry, structured and
// textual clients, Orchestrator, and Scheduler into the single entry
// point external callers use: hand it a Configuration and a list of
// inputs, get back a stream or a sorted batch of DomainResult values.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	redis "github.com/go-redis/redis/v7"
	"github.com/google/uuid"

	"go.domaincheck.dev/checker/internal/cache"
	"go.domaincheck.dev/checker/internal/config"
	"go.domaincheck.dev/checker/internal/endpoints"
	"go.domaincheck.dev/checker/internal/model"
	"go.domaincheck.dev/checker/internal/normalize"
	"go.domaincheck.dev/checker/internal/orchestrator"
	"go.domaincheck.dev/checker/internal/ratelimit"
	"go.domaincheck.dev/checker/internal/scheduler"
	"go.domaincheck.dev/checker/internal/structured"
	"go.domaincheck.dev/checker/internal/textual"
)

// defaultLimits bounds the per-provider token bucket shared by every
// backend; providers are RDAP/WHOIS hosts, not end users, so a small
// fixed budget is enough to stay polite without a config surface of its
// own.
var defaultLimits = ratelimit.Limits{RatePerSec: 2, Burst: 4, Block: 2 * time.Second}

// Engine is the composed domain availability checker.
type Engine struct {
	cfg       config.Configuration
	log       logr.Logger
	scheduler *scheduler.Scheduler
}

// New builds an Engine from a validated Configuration. log may be the
// zero value (logr.Discard()) for library callers that don't want
// engine-level logging. When cfg.CacheBackend is "redis", a single
// go-redis client built from cfg.RedisAddr backs both the cache and the
// per-provider rate limiter.
func New(cfg config.Configuration, log logr.Logger) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	c, limiter, err := buildCacheAndLimiter(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: cache: %w", err)
	}

	return build(cfg, log, c, limiter)
}

func limitRedirects(max int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return fmt.Errorf("structured: stopped after %d redirects", max)
		}
		return nil
	}
}

// buildCacheAndLimiter constructs the cache and rate limiter for the
// configured backend. The redis backend shares one client between both,
// since they are the engine's only two stateful collaborators.
func buildCacheAndLimiter(cfg config.Configuration) (cache.Cache, ratelimit.ProviderLimiter, error) {
	switch cache.Backend(cfg.CacheBackend) {
	case cache.BackendSQLite:
		c, err := cache.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return c, ratelimit.NewMemory(defaultLimits), nil
	case cache.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return cache.NewRedis(client, "domaincheck:"), ratelimit.NewRedis(client, "domaincheck:", defaultLimits), nil
	default:
		return cache.NewMemory(), ratelimit.NewMemory(defaultLimits), nil
	}
}

// NewWithCache is like New but takes an already-constructed Cache and
// always uses an in-process rate limiter, for tests that want a
// shared/fake cache without dialing Redis.
func NewWithCache(cfg config.Configuration, log logr.Logger, c cache.Cache) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return build(cfg, log, c, ratelimit.NewMemory(defaultLimits))
}

// build wires the Endpoint Registry, protocol clients, Orchestrator, and
// Scheduler given an already-constructed cache and limiter.
func build(cfg config.Configuration, log logr.Logger, c cache.Cache, limiter ratelimit.ProviderLimiter) (*Engine, error) {
	registry := endpoints.New(c, cfg.Bootstrap, cfg.BootstrapRefreshInterval, cfg.NegativeCacheTTL)

	structuredClient := structured.New(&http.Client{CheckRedirect: limitRedirects(5)}, cfg.UserAgent)

	textualClient := textual.New()
	if cfg.SignaturesPath != "" {
		table, err := textual.LoadSignatureFile(cfg.SignaturesPath)
		if err != nil {
			return nil, fmt.Errorf("engine: signatures: %w", err)
		}
		for tld, sig := range table {
			textualClient.Signatures[tld] = sig
		}
	}

	orch := orchestrator.New(cfg, structuredClient, textualClient, registry, limiter)
	sched := scheduler.New(orch, cfg.Concurrency)

	return &Engine{cfg: cfg, log: log, scheduler: sched}, nil
}

// expand normalizes and expands raw inputs per the engine's
// configuration, tagging the run with a correlation ID for logging.
func (e *Engine) expand(inputs []string) (string, []normalize.Expanded) {
	runID := uuid.NewString()
	expanded := normalize.Expand(inputs, e.cfg.TLDs)
	e.log.V(1).Info("expanded inputs", "run_id", runID, "inputs", len(inputs), "expanded", len(expanded))
	return runID, expanded
}

// Stream returns DomainResult values in completion order.
func (e *Engine) Stream(ctx context.Context, inputs []string) <-chan model.DomainResult {
	runID, expanded := e.expand(inputs)
	out := e.scheduler.Stream(ctx, expanded)
	logged := make(chan model.DomainResult, cap(out))
	go func() {
		defer close(logged)
		for res := range out {
			e.log.V(2).Info("result", "run_id", runID, "fqdn", res.FQDN, "availability", res.Availability)
			logged <- res
		}
	}()
	return logged
}

// Run returns DomainResult values sorted to input order.
func (e *Engine) Run(ctx context.Context, inputs []string) []model.DomainResult {
	_, expanded := e.expand(inputs)
	return e.scheduler.Batch(ctx, expanded)
}
