// Package probe discovers the natural pixel size of gallery images.
//
// Only image headers are decoded. JPEG, PNG, GIF and WebP are supported.
// [Prober.Run] decodes many images concurrently and reports each result as
// soon as it is known, so results arrive in completion order rather than
// catalog order. Feed them to a [brick.Assembler] to recover row order.
package probe

import (
	"bufio"
	"context"
	"encoding/json"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/cache"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/observability"
)

// Loaded reports that the image at Index has the given natural size.
type Loaded struct {
	Index int        `json:"index"`
	Size  brick.Size `json:"size"`
	// Cached is true when the size came from the cache.
	Cached bool `json:"cached,omitempty"`
}

// Job is one image to probe. Index is passed through to [Loaded].
type Job struct {
	Index int
	Path  string
}

// DecodeSize reads an image header from r and returns its size and format
// name.
func DecodeSize(r io.Reader) (brick.Size, string, error) {
	cfg, format, err := image.DecodeConfig(bufio.NewReader(r))
	if err != nil {
		return brick.Size{}, "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode image header")
	}
	s := brick.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}
	if err := errors.ValidateDimensions(s.Width, s.Height); err != nil {
		return brick.Size{}, format, err
	}
	return s, format, nil
}

// File returns the natural size of the image at path.
func File(path string) (brick.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return brick.Size{}, errors.Wrap(errors.ErrCodeImageNotFound, err, "image %s", path)
		}
		return brick.Size{}, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()

	s, _, err := DecodeSize(f)
	if err != nil {
		return brick.Size{}, errors.Annotate(err, "%s", path)
	}
	return s, nil
}

// Prober decodes image sizes concurrently.
type Prober struct {
	// Workers bounds concurrent decodes. Zero means GOMAXPROCS.
	Workers int
	// Cache stores decoded sizes keyed by path, mtime and file size.
	// Nil disables caching.
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// Run probes every job and sends one Loaded per job on out, in completion
// order. Run closes out before returning. The first failure cancels the
// remaining work and is returned.
func (p *Prober) Run(ctx context.Context, jobs []Job, out chan<- Loaded) (err error) {
	defer close(out)

	hooks := observability.Pipeline()
	hooks.OnProbeStart(ctx, len(jobs))
	start := time.Now()
	defer func() { hooks.OnProbeComplete(ctx, len(jobs), time.Since(start), err) }()

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			loaded, err := p.probe(ctx, job)
			if err != nil {
				return err
			}
			select {
			case out <- loaded:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

// Each probes every job and calls fn for each result on the calling
// goroutine. fn never runs concurrently with itself.
func (p *Prober) Each(ctx context.Context, jobs []Job, fn func(Loaded) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make(chan Loaded)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, jobs, out) }()

	var fnErr error
	for l := range out {
		if fnErr != nil {
			continue
		}
		if fnErr = fn(l); fnErr != nil {
			cancel()
		}
	}
	runErr := <-done
	if fnErr != nil {
		return fnErr
	}
	return runErr
}

func (p *Prober) probe(ctx context.Context, job Job) (Loaded, error) {
	if err := ctx.Err(); err != nil {
		return Loaded{}, err
	}

	info, err := os.Stat(job.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Loaded{}, errors.Wrap(errors.ErrCodeImageNotFound, err, "image %s", job.Path)
		}
		return Loaded{}, errors.Wrap(errors.ErrCodeInternal, err, "stat %s", job.Path)
	}

	var key string
	if p.Cache != nil {
		keyer := p.Keyer
		if keyer == nil {
			keyer = cache.NewDefaultKeyer()
		}
		key = keyer.ProbeKey(job.Path, info.ModTime().UnixNano(), info.Size())
		if s, ok := p.cached(ctx, key); ok {
			return Loaded{Index: job.Index, Size: s, Cached: true}, nil
		}
	}

	s, err := File(job.Path)
	if err != nil {
		return Loaded{}, err
	}
	if p.Logger != nil {
		p.Logger.Debug("probed image", "path", job.Path, "width", s.Width, "height", s.Height)
	}

	if key != "" {
		if data, err := json.Marshal(s); err == nil {
			if err := p.Cache.Set(ctx, key, data, cache.TTLProbe); err == nil {
				observability.Cache().OnCacheSet(ctx, "probe", len(data))
			}
		}
	}
	return Loaded{Index: job.Index, Size: s}, nil
}

func (p *Prober) cached(ctx context.Context, key string) (brick.Size, bool) {
	data, ok, err := p.Cache.Get(ctx, key)
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "probe")
		return brick.Size{}, false
	}
	var s brick.Size
	if err := json.Unmarshal(data, &s); err != nil || s.Width <= 0 || s.Height <= 0 {
		observability.Cache().OnCacheMiss(ctx, "probe")
		return brick.Size{}, false
	}
	observability.Cache().OnCacheHit(ctx, "probe")
	return s, true
}
