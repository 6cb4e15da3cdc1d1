// Package config loads brickwall settings from a TOML file.
//
// Missing files yield defaults. Environment variables override file values:
// BRICKWALL_CATALOG, BRICKWALL_ADDR, BRICKWALL_LOG_LEVEL, REDIS_ADDR and
// MONGO_URI.
package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/cache"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/pipeline"
	"github.com/matzehuels/brickwall/pkg/store"
)

// AppName names the application's directories.
const AppName = "brickwall"

// Config is the top-level configuration.
type Config struct {
	// Catalog is the default catalog file.
	Catalog string        `toml:"catalog"`
	Server  ServerConfig  `toml:"server"`
	Layout  LayoutConfig  `toml:"layout"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
	// ImageBase is the URL prefix images are served under.
	ImageBase string `toml:"image_base"`
}

// LayoutConfig holds layout defaults.
type LayoutConfig struct {
	Width      float64        `toml:"width"`
	MaxBlocks  float64        `toml:"max_blocks"`
	Separation float64        `toml:"separation"`
	RowGap     float64        `toml:"row_gap"`
	PageSize   int            `toml:"page_size"`
	Weights    *brick.Weights `toml:"weights"`
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	Redis   cache.RedisConfig `toml:"redis"`

	// Prefix namespaces every key, for galleries sharing one backend.
	Prefix string `toml:"prefix"`
}

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// StoreConfig selects and configures the render record store.
type StoreConfig struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	TTL     string            `toml:"ttl"`
	Mongo   store.MongoConfig `toml:"mongo"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  "10s",
			WriteTimeout: "2m",
			ImageBase:    "/images",
		},
		Layout: LayoutConfig{
			Width:     pipeline.DefaultWidth,
			MaxBlocks: pipeline.DefaultMaxBlocks,
			PageSize:  pipeline.DefaultPageSize,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     defaultCacheDir(),
		},
		Store: StoreConfig{
			Backend: StoreMemory,
			TTL:     store.DefaultTTL.String(),
			Mongo: store.MongoConfig{
				Database:   store.DefaultDatabase,
				Collection: store.DefaultCollection,
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultPath returns ~/.config/brickwall/config.toml, honouring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName, "config.toml")
}

// CacheDir returns the XDG cache directory for the application.
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

func defaultCacheDir() string {
	dir, err := CacheDir()
	if err != nil {
		return ""
	}
	return dir
}

// Load reads configuration from a TOML file. A missing file returns the
// defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
		default:
			md, err := toml.Decode(string(data), cfg)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
			}
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
			}
			if cfg.Catalog != "" && !filepath.IsAbs(cfg.Catalog) {
				cfg.Catalog = filepath.Join(filepath.Dir(path), cfg.Catalog)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as TOML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create config directory")
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write config")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BRICKWALL_CATALOG"); v != "" {
		c.Catalog = v
	}
	if v := os.Getenv("BRICKWALL_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("BRICKWALL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Backend = CacheRedis
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Store.Backend = StoreMongo
		c.Store.Mongo.URI = v
	}
}

// Validate checks backend names, durations and layout values.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheFile:
		if c.Cache.Dir == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.dir is required for the file cache")
		}
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis.addr is required for the redis cache")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid cache backend %q (valid: none, memory, file, redis)", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreFile:
		if c.Store.Dir == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.dir is required for the file store")
		}
	case StoreMongo:
		if c.Store.Mongo.URI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.mongo.uri is required for the mongo store")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid store backend %q (valid: memory, file, mongo)", c.Store.Backend)
	}

	for name, v := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"store.ttl":            c.Store.TTL,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", name)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid logging.level %q", c.Logging.Level)
	}

	opts := c.PipelineOptions()
	if err := opts.ValidateForLayout(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout")
	}
	if c.Layout.PageSize < 0 || c.Layout.PageSize > pipeline.MaxPageSize {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.page_size must be between 1 and %d", pipeline.MaxPageSize)
	}
	return nil
}

// PipelineOptions returns pipeline options seeded from the layout section.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		CatalogPath: c.Catalog,
		Width:       c.Layout.Width,
		MaxBlocks:   c.Layout.MaxBlocks,
		Separation:  c.Layout.Separation,
		RowGap:      c.Layout.RowGap,
		PageSize:    c.Layout.PageSize,
		Weights:     c.Layout.Weights,
	}
}

// ReadTimeout returns the server read timeout.
func (c *Config) ReadTimeout() time.Duration { return duration(c.Server.ReadTimeout, 10*time.Second) }

// WriteTimeout returns the server write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return duration(c.Server.WriteTimeout, 2*time.Minute)
}

// StoreTTL returns how long render records are kept.
func (c *Config) StoreTTL() time.Duration { return duration(c.Store.TTL, store.DefaultTTL) }

func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || s == "" {
		return def
	}
	return d
}

// OpenCache creates the configured cache backend.
func (c CacheConfig) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheMemory:
		return cache.NewMemoryCache(), nil
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.Redis)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to redis at %s", c.Redis.Addr)
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(c.Dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "open cache dir %s", c.Dir)
		}
		return fc, nil
	}
}

// Keyer returns the cache keyer, scoped by Prefix when set.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Prefix)
}

// OpenStore creates the configured record store.
func (s StoreConfig) OpenStore(ctx context.Context) (store.Store, error) {
	switch s.Backend {
	case StoreFile:
		return store.NewFileStore(s.Dir)
	case StoreMongo:
		return store.NewMongoStore(ctx, s.Mongo)
	default:
		return store.NewMemoryStore(), nil
	}
}
