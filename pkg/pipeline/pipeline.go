// Package pipeline provides the gallery pipeline shared by the CLI and the
// HTTP server.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Select: load the catalog, filter it by tag and cut out one page
//  2. Probe: discover the natural size of every image on the page
//  3. Layout: pack the sizes into rows and scale each row
//  4. Render: generate output in various formats (HTML, SVG, JSON, PNG)
//
// Probed sizes, layouts and artifacts are cached.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    CatalogPath: "gallery.toml",
//	    Formats:     []string{"html"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	page := result.Artifacts["html"]
package pipeline

import (
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/cache"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/paging"
	"github.com/matzehuels/brickwall/pkg/render/sink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default row width in pixels.
	DefaultWidth = brick.DefaultRowWidth

	// DefaultMaxBlocks is the default row capacity in weight units.
	DefaultMaxBlocks = brick.DefaultMaxBlocks

	// DefaultPageSize is the default number of images per page.
	DefaultPageSize = paging.DefaultSize

	// DefaultPNGScale is the default contact sheet resolution multiplier.
	DefaultPNGScale = 1.0

	// MaxWidth bounds the row width accepted from requests.
	MaxWidth = 10000.0

	// MaxPageSize bounds the page size accepted from requests.
	MaxPageSize = 500
)

// Format constants for output formats.
const (
	FormatHTML = "html"
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatHTML: true,
	FormatSVG:  true,
	FormatJSON: true,
	FormatPNG:  true,
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the gallery pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Select options
	CatalogPath string `json:"catalog,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Page        int    `json:"page,omitempty"` // zero-based
	PageSize    int    `json:"page_size,omitempty"`
	All         bool   `json:"all,omitempty"` // lay out every image on one page

	// Probe options
	Workers int  `json:"-"`
	Refresh bool `json:"refresh,omitempty"`

	// Layout options
	Width      float64        `json:"width,omitempty"`
	MaxBlocks  float64        `json:"max_blocks,omitempty"`
	Separation float64        `json:"separation,omitempty"`
	RowGap     float64        `json:"row_gap,omitempty"`
	Weights    *brick.Weights `json:"weights,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Title     string   `json:"title,omitempty"`
	ImageBase string   `json:"image_base,omitempty"`
	Labels    bool     `json:"labels,omitempty"`
	PNGScale  float64  `json:"png_scale,omitempty"`

	// Runtime options (not serialized)
	Catalog *gallery.Catalog        `json:"-"` // preloaded catalog, overrides CatalogPath
	PageURL func(number int) string `json:"-"`
	OnRow   func(brick.Row)         `json:"-"` // called as rows become final during probing
	Logger  *log.Logger             `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Catalog is the loaded catalog.
	Catalog *gallery.Catalog

	// Items are the images on the page, with natural sizes filled in.
	Items []gallery.Item

	// Page is the paging state of the selection.
	Page paging.Page

	// Layout is the computed brick wall for Items.
	Layout brick.Layout

	// LayoutHash is the content hash of Layout.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Wall returns the render input for the result.
func (r *Result) Wall(opts Options) sink.Wall {
	title := opts.Title
	if title == "" && r.Catalog != nil {
		title = r.Catalog.Title
	}
	return sink.Wall{
		Title:  title,
		Items:  r.Items,
		Layout: r.Layout,
		Page:   r.Page,
		Tag:    opts.Tag,
	}
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ImageCount int
	RowCount   int
	Probed     int // images whose size had to be discovered
	SelectTime time.Duration
	ProbeTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ProbeHits int  // probed sizes served from cache
	LayoutHit bool // whether the layout came from cache
	RenderHit bool // whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: html, svg, json, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForSelect(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForSelect checks the catalog and paging fields.
func (o *Options) ValidateForSelect() error {
	if o.Catalog == nil && o.CatalogPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "catalog is required")
	}
	if o.Page < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "page must not be negative, got %d", o.Page)
	}
	if o.PageSize < 0 || o.PageSize > MaxPageSize {
		return errors.New(errors.ErrCodeInvalidInput, "page_size must be between 1 and %d, got %d", MaxPageSize, o.PageSize)
	}
	if o.Tag != "" {
		if err := errors.ValidateTag(o.Tag); err != nil {
			return err
		}
	}
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.MaxBlocks == 0 {
		o.MaxBlocks = DefaultMaxBlocks
	}
	if o.Weights == nil || o.Weights.IsZero() {
		w := brick.DefaultWeights()
		o.Weights = &w
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if !finite(o.Width) || o.Width <= 0 || o.Width > MaxWidth {
		return errors.New(errors.ErrCodeInvalidInput, "width must be in (0, %g], got %v", MaxWidth, o.Width)
	}
	if !finite(o.MaxBlocks) || o.MaxBlocks <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_blocks must be positive, got %v", o.MaxBlocks)
	}
	if !finite(o.Separation) || o.Separation < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "separation must not be negative, got %v", o.Separation)
	}
	if !finite(o.RowGap) || o.RowGap < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "row_gap must not be negative, got %v", o.RowGap)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatHTML}
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if !finite(o.PNGScale) || o.PNGScale <= 0 || o.PNGScale > 4 {
		return errors.New(errors.ErrCodeInvalidInput, "png_scale must be in (0, 4], got %v", o.PNGScale)
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutConfig returns the brick configuration for the options.
func (o *Options) LayoutConfig() brick.Config {
	o.SetLayoutDefaults()
	return brick.Config{
		Packer: brick.Packer{Weights: *o.Weights, MaxBlocks: o.MaxBlocks},
		Scaler: brick.Scaler{Width: o.Width, Separation: o.Separation},
		RowGap: o.RowGap,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	o.SetLayoutDefaults()
	return cache.LayoutKeyOpts{
		Width:      o.Width,
		MaxBlocks:  o.MaxBlocks,
		Separation: o.Separation,
		RowGap:     o.RowGap,
		Weights:    *o.Weights,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string, p paging.Page, itemsHash string) cache.ArtifactKeyOpts {
	prev, next := o.pageLinks(p)
	return cache.ArtifactKeyOpts{
		Format:    format,
		Title:     o.Title,
		Tag:       strings.ToLower(o.Tag),
		Page:      p.Number(),
		PageCount: p.Count(),
		ItemsHash: itemsHash,
		ImageBase: o.ImageBase,
		Labels:    o.Labels,
		PrevURL:   prev,
		NextURL:   next,
		Scale:     o.PNGScale,
	}
}

// pageLinks resolves the navigation links the HTML sink writes for p.
func (o *Options) pageLinks(p paging.Page) (prev, next string) {
	if o.PageURL == nil {
		return "", ""
	}
	if !p.IsBeginning() {
		prev = o.PageURL(p.Prev().Number())
	}
	if !p.IsEnd() {
		next = o.PageURL(p.Next().Number())
	}
	return prev, next
}

// HasFormat reports whether format is requested.
func (o *Options) HasFormat(format string) bool {
	return slices.Contains(o.Formats, format)
}
