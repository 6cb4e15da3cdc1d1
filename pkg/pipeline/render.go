package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/observability"
	"github.com/matzehuels/brickwall/pkg/render/sink"
)

// Render generates output artifacts in the requested formats. root is the
// directory the catalog's image paths are relative to; only PNG reads it.
func Render(ctx context.Context, w sink.Wall, root string, opts Options) (artifacts map[string][]byte, err error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatHTML:
			data, err = sink.RenderHTML(w, buildHTMLOptions(opts)...)
		case FormatSVG:
			data = sink.RenderSVG(w, buildSVGOptions(opts)...)
		case FormatJSON:
			data, err = sink.RenderJSON(w, sink.WithJSONImageBase(opts.ImageBase))
		case FormatPNG:
			if root == "" {
				return nil, errors.New(errors.ErrCodeInvalidInput, "png output needs an image root")
			}
			data, err = sink.RenderPNG(ctx, w, sink.DirOpener(root),
				sink.WithPNGScale(opts.PNGScale),
				sink.WithPNGWorkers(opts.Workers))
		default:
			return nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, errors.Annotate(err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func buildHTMLOptions(opts Options) []sink.HTMLOption {
	var out []sink.HTMLOption
	if opts.ImageBase != "" {
		out = append(out, sink.WithImageBase(opts.ImageBase))
	}
	if opts.PageURL != nil {
		out = append(out, sink.WithPageURL(opts.PageURL))
	}
	return out
}

func buildSVGOptions(opts Options) []sink.SVGOption {
	out := []sink.SVGOption{sink.WithWeights()}
	if opts.Labels {
		out = append(out, sink.WithLabels())
	}
	if opts.ImageBase != "" {
		base := opts.ImageBase
		out = append(out, sink.WithImages(func(src string) string { return joinURL(base, src) }))
	}
	return out
}

func joinURL(base, src string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/" + src
}
