package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/brickwall/pkg/cache"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/pipeline"
	"github.com/matzehuels/brickwall/pkg/store"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BRICKWALL_CATALOG", "BRICKWALL_ADDR", "BRICKWALL_LOG_LEVEL", "REDIS_ADDR", "MONGO_URI"} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Layout.Width != pipeline.DefaultWidth || cfg.Layout.MaxBlocks != pipeline.DefaultMaxBlocks {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Cache.Backend != CacheFile || filepath.Base(cfg.Cache.Dir) != AppName {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
catalog = "gallery.toml"

[server]
addr = ":9000"

[layout]
width = 1024
row_gap = 8
page_size = 24

[layout.weights]
panorama = 5
landscape = 3
wide = 2
portrait = 1
panorama_ratio = 2.0
landscape_ratio = 1.5
wide_ratio = 1.0

[cache]
backend = "memory"

[store]
backend = "file"
dir = "/tmp/renders"
ttl = "1h"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Catalog != filepath.Join(dir, "gallery.toml") {
		t.Errorf("Catalog = %q, want it resolved next to the config", cfg.Catalog)
	}
	if cfg.Server.Addr != ":9000" || cfg.Layout.Width != 1024 || cfg.Layout.PageSize != 24 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Layout.Weights == nil || cfg.Layout.Weights.Panorama != 5 {
		t.Errorf("Weights = %+v", cfg.Layout.Weights)
	}
	if cfg.StoreTTL() != time.Hour {
		t.Errorf("StoreTTL() = %v, want 1h", cfg.StoreTTL())
	}

	opts := cfg.PipelineOptions()
	if opts.Width != 1024 || opts.RowGap != 8 || opts.Weights.Panorama != 5 {
		t.Errorf("PipelineOptions() = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "server = ["},
		{"unknown key", "colour = \"red\""},
		{"bad cache backend", "[cache]\nbackend = \"memcached\""},
		{"redis without addr", "[cache]\nbackend = \"redis\""},
		{"mongo without uri", "[store]\nbackend = \"mongo\""},
		{"bad duration", "[server]\nread_timeout = \"soon\""},
		{"bad width", "[layout]\nwidth = -1"},
		{"bad level", "[logging]\nlevel = \"loud\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRICKWALL_ADDR", ":7000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.Redis.Addr != "localhost:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Store.Backend != StoreMongo {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
}

func TestSaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":1234"
	cfg.Cache.Backend = CacheNone
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Server.Addr != ":1234" || loaded.Cache.Backend != CacheNone {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()

	c, err := CacheConfig{Backend: CacheMemory}.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.MemoryCache); !ok {
		t.Errorf("memory backend returned %T", c)
	}

	c, err = CacheConfig{Backend: CacheFile, Dir: t.TempDir()}.OpenCache(ctx)
	if err != nil || c == nil {
		t.Fatalf("file cache: %v", err)
	}

	s, err := StoreConfig{Backend: StoreFile, Dir: t.TempDir()}.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*store.FileStore); !ok {
		t.Errorf("file backend returned %T", s)
	}
}

func TestLoadExampleConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join("..", "..", "examples", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) error: %v", path, err)
	}
	if want := filepath.Join(filepath.Dir(path), "gallery.toml"); cfg.Catalog != want {
		t.Errorf("Catalog = %q, want %q", cfg.Catalog, want)
	}
	if cfg.Layout.Width != 960 || cfg.Layout.PageSize != 24 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}

	opts := cfg.PipelineOptions()
	opts.Formats = []string{pipeline.FormatJSON}
	res, err := pipeline.NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute on example catalog: %v", err)
	}
	if res.Stats.ImageCount != 9 || res.Stats.Probed != 0 {
		t.Errorf("Stats = %+v", res.Stats)
	}
}

func TestCacheKeyerPrefix(t *testing.T) {
	opts := cache.ArtifactKeyOpts{Format: "svg"}
	plain := CacheConfig{}.Keyer().ArtifactKey("h", opts)
	scoped := CacheConfig{Prefix: "drawings:"}.Keyer().ArtifactKey("h", opts)
	if scoped != "drawings:"+plain {
		t.Errorf("scoped key = %q, want prefix on %q", scoped, plain)
	}
}
