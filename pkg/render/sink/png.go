package sink

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"
	"runtime"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/brickwall/pkg/errors"
)

// Opener loads the image for a catalog src.
type Opener func(src string) (image.Image, error)

// DirOpener opens images relative to root, honouring EXIF orientation.
func DirOpener(root string) Opener {
	return func(src string) (image.Image, error) {
		img, err := imaging.Open(filepath.Join(root, filepath.FromSlash(src)), imaging.AutoOrientation(true))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeImageNotFound, err, "open image %s", src)
		}
		return img, nil
	}
}

// PNGOption configures [RenderPNG].
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale      float64
	background color.Color
	workers    int
}

// WithPNGScale multiplies the output resolution, e.g. 2 for a retina sheet.
func WithPNGScale(s float64) PNGOption { return func(r *pngRenderer) { r.scale = s } }

// WithPNGBackground sets the colour shown in row gaps.
func WithPNGBackground(c color.Color) PNGOption {
	return func(r *pngRenderer) { r.background = c }
}

// WithPNGWorkers bounds concurrent image decodes.
func WithPNGWorkers(n int) PNGOption { return func(r *pngRenderer) { r.workers = n } }

// RenderPNG composes a contact sheet: every image resized into its cell.
func RenderPNG(ctx context.Context, w Wall, open Opener, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1, background: color.White}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 || math.IsInf(r.scale, 0) || math.IsNaN(r.scale) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %v", r.scale)
	}
	if r.workers <= 0 {
		r.workers = runtime.GOMAXPROCS(0)
	}

	cw := int(math.Round(w.Layout.Width * r.scale))
	ch := int(math.Ceil(w.Layout.Height * r.scale))
	if cw <= 0 || ch <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty layout")
	}

	cells := w.Layout.Cells()
	tiles := make([]*image.NRGBA, len(cells))
	rects := make([]image.Rectangle, len(cells))
	srcs := make([]string, len(cells))
	for i, c := range cells {
		it, ok := w.item(c)
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "cell %d has no catalog item", c.Index)
		}
		srcs[i] = it.Src
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, c := range cells {
		x0, y0 := int(math.Round(c.X*r.scale)), int(math.Round(c.Y*r.scale))
		x1, y1 := int(math.Round(c.Right()*r.scale)), int(math.Round(c.Bottom()*r.scale))
		rects[i] = image.Rect(x0, y0, x1, y1)
		if rects[i].Empty() {
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := open(srcs[i])
			if err != nil {
				return err
			}
			tiles[i] = imaging.Resize(img, rects[i].Dx(), rects[i].Dy(), imaging.Lanczos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sheet := imaging.New(cw, ch, r.background)
	for i, tile := range tiles {
		if tile == nil {
			continue
		}
		draw.Draw(sheet, rects[i], tile, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, sheet, imaging.PNG); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}
