package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the on-disk TOML shape; durations and the TLD list are
// strings/slices here and converted into Configuration by LoadFile.
type fileConfig struct {
	Concurrency              int      `toml:"concurrency"`
	PerAttemptTimeout        string   `toml:"per_attempt_timeout"`
	Retries                  int      `toml:"retries"`
	RetryBaseDelay           string   `toml:"retry_base_delay"`
	TLDs                     []string `toml:"tlds"`
	Preset                   string   `toml:"preset"`
	AllTLDs                  bool     `toml:"all_tlds"`
	ProtocolOrder            string   `toml:"protocol_order"`
	Bootstrap                *bool    `toml:"bootstrap"`
	BootstrapRefreshInterval string   `toml:"bootstrap_refresh_interval"`
	UserAgent                string   `toml:"user_agent"`
	CacheBackend             string   `toml:"cache_backend"`
	RedisAddr                string   `toml:"redis_addr"`
	SQLitePath               string   `toml:"sqlite_path"`
	SignaturesPath           string   `toml:"signatures_path"`
}

// LoadFile reads a TOML configuration file (as routedns does for its own
// config) into a Configuration. A missing path is not an error; it just
// yields a Configuration with only Bootstrap set (to its default, true)
// for the caller to default.
func LoadFile(path string) (Configuration, error) {
	var fc fileConfig
	// SetDefaults cannot tell an unset bool from an explicit false, so
	// Bootstrap's default is applied here.
	cfg := Configuration{Bootstrap: true}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	cfg.Concurrency = fc.Concurrency
	cfg.Retries = fc.Retries
	cfg.TLDs = fc.TLDs
	cfg.Preset = fc.Preset
	cfg.AllTLDs = fc.AllTLDs
	cfg.ProtocolOrder = ProtocolOrder(fc.ProtocolOrder)
	cfg.UserAgent = fc.UserAgent
	cfg.CacheBackend = fc.CacheBackend
	cfg.RedisAddr = fc.RedisAddr
	cfg.SQLitePath = fc.SQLitePath
	cfg.SignaturesPath = fc.SignaturesPath
	if fc.Bootstrap != nil {
		cfg.Bootstrap = *fc.Bootstrap
	} else {
		cfg.Bootstrap = true
	}
	if d, err := time.ParseDuration(fc.PerAttemptTimeout); err == nil {
		cfg.PerAttemptTimeout = d
	}
	if d, err := time.ParseDuration(fc.RetryBaseDelay); err == nil {
		cfg.RetryBaseDelay = d
	}
	if d, err := time.ParseDuration(fc.BootstrapRefreshInterval); err == nil {
		cfg.BootstrapRefreshInterval = d
	}
	return cfg, nil
}

// ApplyEnv overlays the DC_* environment variables recognized as
// consumed by the outer CLI. The core engine itself reads none of
// these directly; this function is the CLI-side translation layer.
func ApplyEnv(cfg Configuration, lookup func(string) (string, bool)) Configuration {
	if v, ok := lookup("DC_PRESET"); ok && v != "" {
		cfg.Preset = v
	}
	if v, ok := lookup("DC_CONCURRENCY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v, ok := lookup("DC_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PerAttemptTimeout = d
		}
	}
	if v, ok := lookup("DC_BOOTSTRAP"); ok {
		cfg.Bootstrap = strings.EqualFold(v, "true") || v == "1"
	}
	return cfg
}

// OSEnvLookup adapts os.LookupEnv to the lookup signature ApplyEnv wants,
// so tests can pass a fake map instead.
func OSEnvLookup(key string) (string, bool) { return os.LookupEnv(key) }
