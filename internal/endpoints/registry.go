// Package endpoints implements the Endpoint Registry: resolving a TLD
// to its structured-protocol (RDAP) base URL via, in order, the
// compiled-in static table, the process cache, and finally a coalesced
// bootstrap fetch through github.com/openrdap/rdap/bootstrap.
package endpoints

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/openrdap/rdap/bootstrap"
	"golang.org/x/sync/singleflight"

	"go.domaincheck.dev/checker/internal/cache"
	"go.domaincheck.dev/checker/internal/model"
)

const cacheKeyPrefix = "endpoint:"

// Registry resolves TLDs to structured-protocol endpoints.
type Registry struct {
	cache   cache.Cache
	static  map[string]string
	bclient *bootstrap.Client

	bootstrapEnabled bool
	refreshInterval  time.Duration
	negativeTTL      time.Duration

	sf  singleflight.Group
	now func() time.Time

	// lookupBootstrap is the bootstrap.Client.Lookup call, factored out
	// as an injectable field so tests can count/fake invocations without
	// a network round trip.
	lookupBootstrap func(ctx context.Context, tld string) (*bootstrap.Answer, error)
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithBootstrapClient overrides the default *bootstrap.Client, mainly
// for tests that need to fake the upstream document fetch.
func WithBootstrapClient(bc *bootstrap.Client) Option {
	return func(r *Registry) { r.bclient = bc }
}

// WithStaticTable overrides the compiled-in static table.
func WithStaticTable(table map[string]string) Option {
	return func(r *Registry) { r.static = table }
}

// New builds a Registry. bootstrapEnabled, refreshInterval and
// negativeTTL mirror config.Configuration's Bootstrap,
// BootstrapRefreshInterval and NegativeCacheTTL fields.
func New(c cache.Cache, bootstrapEnabled bool, refreshInterval, negativeTTL time.Duration, opts ...Option) *Registry {
	r := &Registry{
		cache:            c,
		static:           StaticTable(),
		bclient:          &bootstrap.Client{},
		bootstrapEnabled: bootstrapEnabled,
		refreshInterval:  refreshInterval,
		negativeTTL:      negativeTTL,
		now:              time.Now,
	}
	r.lookupBootstrap = func(ctx context.Context, tld string) (*bootstrap.Answer, error) {
		return r.bclient.Lookup((&bootstrap.Question{RegistryType: bootstrap.DNS, Query: tld}).WithContext(ctx))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the EndpointEntry for tld, consulting the static
// table, then the cache, then (if enabled and still unresolved) a
// bootstrap fetch. Concurrent Resolve calls for the same TLD while a
// bootstrap fetch is in flight share a single upstream request.
func (r *Registry) Resolve(ctx context.Context, tld string) (*model.EndpointEntry, error) {
	tld = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(tld), "."))
	if tld == "" {
		return nil, fmt.Errorf("endpoints: empty tld")
	}

	if base, ok := r.static[tld]; ok {
		return &model.EndpointEntry{
			TLD:         tld,
			URLTemplate: templateFromBase(base),
			Source:      model.SourceStatic,
			FetchedAt:   r.now(),
		}, nil
	}

	var cached model.EndpointEntry
	if found, err := r.cache.Get(cacheKeyPrefix+tld, &cached); err == nil && found {
		return &cached, nil
	}

	if !r.bootstrapEnabled {
		return nil, fmt.Errorf("endpoints: no known endpoint for %q and bootstrap is disabled", tld)
	}

	v, err, _ := r.sf.Do(tld, func() (any, error) {
		// Re-check the cache: another goroutine may have populated it
		// between our miss above and acquiring the singleflight slot.
		var again model.EndpointEntry
		if found, err := r.cache.Get(cacheKeyPrefix+tld, &again); err == nil && found {
			return &again, nil
		}
		return r.fetch(ctx, tld)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.EndpointEntry), nil
}

func (r *Registry) fetch(ctx context.Context, tld string) (*model.EndpointEntry, error) {
	answer, err := r.lookupBootstrap(ctx, tld)
	if err != nil {
		// A failed fetch does not poison the cache; the next Resolve
		// call for this TLD will simply try again.
		return nil, fmt.Errorf("endpoints: bootstrap fetch for %q: %w", tld, err)
	}
	if answer == nil || len(answer.URLs) == 0 {
		neg := &model.EndpointEntry{TLD: tld, Source: model.SourceBootstrap, Negative: true, FetchedAt: r.now()}
		_ = r.cache.Set(cacheKeyPrefix+tld, neg, r.negativeTTL)
		return neg, nil
	}

	base := pickHTTPS(answer.URLs)
	entry := &model.EndpointEntry{
		TLD:         tld,
		URLTemplate: templateFromBase(strings.TrimSuffix(base.String(), "/")),
		Source:      model.SourceBootstrap,
		FetchedAt:   r.now(),
	}
	_ = r.cache.Set(cacheKeyPrefix+tld, entry, r.refreshInterval)
	return entry, nil
}

// pickHTTPS prefers an https URL, falling back to the first entry.
func pickHTTPS(urls []*url.URL) *url.URL {
	for _, u := range urls {
		if u != nil && strings.EqualFold(u.Scheme, "https") {
			return u
		}
	}
	if len(urls) > 0 {
		return urls[0]
	}
	return nil
}

// templateFromBase builds a URLTemplate from a bare base URL, e.g.
// "https://rdap.verisign.com/com/v1" -> ".../v1/domain/{domain}".
func templateFromBase(base string) string {
	base = strings.TrimSuffix(base, "/")
	return base + "/domain/{domain}"
}
