package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/cache"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/observability"
	"github.com/matzehuels/brickwall/pkg/paging"
	"github.com/matzehuels/brickwall/pkg/probe"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete select → probe → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Select
	selectStart := time.Now()
	cat, items, page, err := r.Select(opts)
	if err != nil {
		return nil, err
	}
	result.Catalog = cat
	result.Page = page
	result.Stats.SelectTime = time.Since(selectStart)

	opts.Logger.Debug("selected images",
		"catalog", opts.CatalogPath,
		"tag", opts.Tag,
		"page", page.Number(),
		"images", len(items))

	// Stage 2: Probe
	probeStart := time.Now()
	items, probeStats, err := r.Probe(ctx, cat, items, opts)
	if err != nil {
		return nil, err
	}
	result.Items = items
	result.Stats.ImageCount = len(items)
	result.Stats.Probed = probeStats.Probed
	result.Stats.ProbeTime = time.Since(probeStart)
	result.CacheInfo.ProbeHits = probeStats.CacheHits

	if probeStats.Probed > 0 {
		opts.Logger.Info("probed images",
			"count", probeStats.Probed,
			"cached", probeStats.CacheHits,
			"duration", result.Stats.ProbeTime)
	}

	// Stage 3: Layout
	layoutStart := time.Now()
	sizes, err := gallery.Sizes(items)
	if err != nil {
		return nil, err
	}
	layout, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, sizes, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = layout
	result.Stats.RowCount = len(layout.Rows)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	if data, err := json.Marshal(layout); err == nil {
		result.LayoutHash = cache.Hash(data)
	}

	opts.Logger.Info("computed layout",
		"images", layout.Len(),
		"rows", len(layout.Rows),
		"height", layout.PixelHeight(),
		"duration", result.Stats.LayoutTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Select loads the catalog and returns the images on the requested page.
func (r *Runner) Select(opts Options) (*gallery.Catalog, []gallery.Item, paging.Page, error) {
	if err := opts.ValidateForSelect(); err != nil {
		return nil, nil, paging.Page{}, err
	}

	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = gallery.Load(opts.CatalogPath); err != nil {
			return nil, nil, paging.Page{}, err
		}
	}

	items := cat.Filter(opts.Tag)
	size := opts.PageSize
	if opts.All && len(items) > 0 {
		size = len(items)
	}
	page := paging.Goto(len(items), size, opts.Page)
	if opts.Page > 0 && page.Number() != opts.Page {
		return nil, nil, paging.Page{}, errors.New(errors.ErrCodeNotFound, "page %d does not exist (%d pages)", opts.Page, page.Count())
	}

	start, end := page.Bounds()
	return cat, items[start:end], page, nil
}

// ProbeStats reports the work done by [Runner.Probe].
type ProbeStats struct {
	Probed    int
	CacheHits int
}

// Probe fills in the natural size of every item that lacks one. Items are
// decoded concurrently; results pass through a [brick.Assembler] so that
// opts.OnRow sees final rows in order while probing is still running.
func (r *Runner) Probe(ctx context.Context, cat *gallery.Catalog, items []gallery.Item, opts Options) ([]gallery.Item, ProbeStats, error) {
	r.applyLogger(&opts)
	opts.SetLayoutDefaults()

	out := make([]gallery.Item, len(items))
	copy(out, items)

	asm := brick.NewAssembler(opts.LayoutConfig().Packer, len(out))
	emit := func(rows []brick.Row) {
		for _, row := range rows {
			opts.Logger.Debug("row ready", "start", row.Start, "images", row.Len(), "weight", row.Weight)
			if opts.OnRow != nil {
				opts.OnRow(row)
			}
		}
	}

	var jobs []probe.Job
	for i, it := range out {
		if it.HasSize() {
			rows, err := asm.Add(i, it.Size())
			if err != nil {
				return nil, ProbeStats{}, err
			}
			emit(rows)
			continue
		}
		if cat == nil {
			return nil, ProbeStats{}, errors.New(errors.ErrCodeInvalidDimensions, "image %s has no known size", it.Src)
		}
		jobs = append(jobs, probe.Job{Index: i, Path: cat.Path(it)})
	}

	var stats ProbeStats
	if len(jobs) > 0 {
		p := &probe.Prober{Workers: opts.Workers, Logger: opts.Logger}
		if !opts.Refresh {
			p.Cache, p.Keyer = r.Cache, r.Keyer
		}
		err := p.Each(ctx, jobs, func(l probe.Loaded) error {
			w, h := l.Size.Round()
			out[l.Index] = out[l.Index].WithSize(w, h)
			stats.Probed++
			if l.Cached {
				stats.CacheHits++
			}
			rows, err := asm.Add(l.Index, l.Size)
			if err != nil {
				return err
			}
			emit(rows)
			return nil
		})
		if err != nil {
			return nil, stats, err
		}
	}

	if !asm.Done() {
		return nil, stats, errors.New(errors.ErrCodeInternal, "image %d was never loaded", asm.Blocked())
	}
	return out, stats, nil
}

// ComputeLayoutWithCacheInfo packs and scales sizes with caching and returns cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, sizes []brick.Size, opts Options) (brick.Layout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return brick.Layout{}, false, err
	}
	if err := brick.Validate(sizes); err != nil {
		return brick.Layout{}, false, err
	}
	cfg := opts.LayoutConfig()
	if err := cfg.Check(sizes); err != nil {
		return brick.Layout{}, false, err
	}
	hooks := observability.Pipeline()

	sizesHash, err := cache.HashJSON(sizes)
	if err != nil {
		return brick.Layout{}, false, errors.Wrap(errors.ErrCodeInternal, err, "hash sizes")
	}
	cacheKey := r.Keyer.LayoutKey(sizesHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached brick.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	start := time.Now()
	hooks.OnLayoutStart(ctx, len(sizes))
	layout := brick.Compute(sizes, cfg)
	hooks.OnLayoutComplete(ctx, len(layout.Rows), time.Since(start), nil)

	if data, err := json.Marshal(layout); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return layout, false, nil
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, sizes []brick.Size, opts Options) (brick.Layout, error) {
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, sizes, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *Result, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutHash := res.LayoutHash
	if layoutHash == "" {
		data, err := json.Marshal(res.Layout)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
		}
		layoutHash = cache.Hash(data)
	}
	itemsHash, err := cache.HashJSON(res.Items)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash items")
	}
	key := func(format string) string {
		return r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format, res.Page, itemsHash))
	}

	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, key(format))
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	var root string
	if res.Catalog != nil {
		root = res.Catalog.ImageRoot
	}
	rendered, err := Render(ctx, res.Wall(opts), root, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		if err := r.Cache.Set(ctx, key(format), data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
