package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"deptree/pkg/source/maven"
)

// Cache backend names accepted in the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// DefaultCacheTTL is how long POM responses are cached when the config file
// does not say otherwise.
const DefaultCacheTTL = 24 * time.Hour

// Duration wraps time.Duration so TTLs can be written as "24h" or "90m" in
// the config file.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config is the optional user configuration, loaded from
// ~/.config/deptree/config.toml. Flags override config values.
type Config struct {
	Repo     string      `toml:"repo"`      // default repository URL for url mode
	Filter   string      `toml:"filter"`    // default exclusion substring
	MaxDepth int         `toml:"max_depth"` // traversal depth limit (0 = builtin default)
	MaxNodes int         `toml:"max_nodes"` // traversal node limit (0 = builtin default)
	Cache    CacheConfig `toml:"cache"`
	Serve    ServeConfig `toml:"serve"`
}

// CacheConfig selects and configures the response cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend"`    // "file" (default), "redis", or "none"
	TTL       Duration `toml:"ttl"`        // entry lifetime, e.g. "24h"
	RedisAddr string   `toml:"redis_addr"` // host:port for the redis backend
}

// TTLValue returns the configured TTL as a time.Duration.
func (c CacheConfig) TTLValue() time.Duration { return time.Duration(c.TTL) }

// ServeConfig configures the HTTP API server.
type ServeConfig struct {
	Addr string `toml:"addr"` // listen address, e.g. ":8080"
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Repo: maven.DefaultBaseURL,
		Cache: CacheConfig{
			Backend:   CacheBackendFile,
			TTL:       Duration(DefaultCacheTTL),
			RedisAddr: "localhost:6379",
		},
		Serve: ServeConfig{Addr: ":8080"},
	}
}

// LoadConfig reads the config file at path on top of the defaults. A missing
// file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	switch cfg.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return Config{}, fmt.Errorf("load config %s: unknown cache backend %q", path, cfg.Cache.Backend)
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = Duration(DefaultCacheTTL)
	}
	return cfg, nil
}
