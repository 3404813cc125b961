// Package config defines the engine's Configuration type and its
// defaulting/validation: a plain struct with doc-comment defaults,
// defaulted in one pass rather than through a generated defaulter.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ProtocolOrder selects which protocol(s) the Orchestrator tries, and in
// which order.
type ProtocolOrder string

const (
	StructuredOnly        ProtocolOrder = "structured-only"
	TextualOnly           ProtocolOrder = "textual-only"
	StructuredThenTextual ProtocolOrder = "structured-then-textual"
	TextualThenStructured ProtocolOrder = "textual-then-structured"
)

// Configuration is the full set of recognized options.
type Configuration struct {
	// Concurrency is the max number of simultaneous in-flight checks.
	//
	// +default=10
	Concurrency int

	// PerAttemptTimeout bounds a single protocol attempt.
	//
	// +default=30s
	PerAttemptTimeout time.Duration

	// Retries is the number of additional attempts on transient failure,
	// per protocol.
	//
	// +default=0
	Retries int

	// RetryBaseDelay is the base for exponential backoff between retries.
	//
	// +default=500ms
	RetryBaseDelay time.Duration

	// TLDs are the candidate TLDs used to expand a bare label. Merged
	// with Preset's TLD list when both are set.
	TLDs []string

	// Preset names a static TLD set (e.g. "startup", "enterprise").
	Preset string

	// AllTLDs expands bare labels against the full known TLD set.
	AllTLDs bool

	// ProtocolOrder controls structured/textual sequencing.
	//
	// +default=structured-then-textual
	ProtocolOrder ProtocolOrder

	// Bootstrap enables consulting the dynamic endpoint registry on a
	// static-table cache miss. SetDefaults cannot tell an unset false
	// from an explicit one; LoadFile applies this default.
	//
	// +default=true
	Bootstrap bool

	// BootstrapRefreshInterval is the TTL for a cached bootstrap document.
	//
	// +default=24h
	BootstrapRefreshInterval time.Duration

	// NegativeCacheTTL bounds how long a "no endpoint known" answer is
	// cached before the registry will try bootstrapping the TLD again.
	//
	// +default=1h
	NegativeCacheTTL time.Duration

	// UserAgent is sent on structured-protocol requests.
	//
	// +default=domaincheck/1.0
	UserAgent string

	// CacheBackend selects the endpoint/result cache implementation:
	// "memory" (default), "redis", or "sqlite".
	//
	// +default=memory
	CacheBackend string

	// RedisAddr is the address used when CacheBackend == "redis".
	RedisAddr string

	// SQLitePath is the database file used when CacheBackend == "sqlite".
	//
	// +default=domaincheck-cache.sqlite
	SQLitePath string

	// SignaturesPath optionally points at a TOML file of per-TLD WHOIS
	// not-found/rate-limit signatures (see textual.LoadSignatureFile),
	// letting operators extend coverage without a rebuild. Empty means
	// the compiled-in table is used as-is.
	SignaturesPath string
}

// SetDefaults fills zero-valued fields with the documented defaults.
func (c *Configuration) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	if c.PerAttemptTimeout <= 0 {
		c.PerAttemptTimeout = 30 * time.Second
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.ProtocolOrder == "" {
		c.ProtocolOrder = StructuredThenTextual
	}
	if c.BootstrapRefreshInterval <= 0 {
		c.BootstrapRefreshInterval = 24 * time.Hour
	}
	if c.NegativeCacheTTL <= 0 {
		c.NegativeCacheTTL = time.Hour
	}
	if c.UserAgent == "" {
		c.UserAgent = "domaincheck/1.0"
	}
	if c.CacheBackend == "" {
		c.CacheBackend = "memory"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "domaincheck-cache.sqlite"
	}

	tlds := append([]string{}, c.TLDs...)
	if c.Preset != "" {
		tlds = append(tlds, Preset(c.Preset)...)
	}
	if c.AllTLDs {
		tlds = append(tlds, AllKnownTLDs()...)
	}
	c.TLDs = dedupLower(tlds)
}

// Validate reports a configuration error, if any. Called once by the
// engine constructor; not re-checked per domain.
func (c *Configuration) Validate() error {
	switch c.ProtocolOrder {
	case StructuredOnly, TextualOnly, StructuredThenTextual, TextualThenStructured:
	default:
		return fmt.Errorf("config: unknown protocol_order %q", c.ProtocolOrder)
	}
	switch c.CacheBackend {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.CacheBackend)
	}
	if c.CacheBackend == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("config: redis cache backend requires RedisAddr")
	}
	if c.Retries < 0 {
		return fmt.Errorf("config: retries must be >= 0")
	}
	return nil
}

func dedupLower(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
