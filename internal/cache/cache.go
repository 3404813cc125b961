// Package cache provides the pluggable key/value store behind the
// endpoint registry: a small TTL-aware interface with memory, Redis, and
// sqlite backends, the latter for callers that want the bootstrap cache
// to survive restarts. Structured/textual lookup results are not cached.
package cache

import "time"

// Cache is a TTL-aware key/value store. Get unmarshals JSON into dst
// and reports whether the key was present and unexpired.
type Cache interface {
	Get(key string, dst any) (found bool, err error)
	Set(key string, value any, ttl time.Duration) error
}

// Backend names a Cache implementation, mirroring the config option.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	BackendSQLite Backend = "sqlite"
)
