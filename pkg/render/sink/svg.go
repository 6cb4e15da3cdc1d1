package sink

import (
	"bytes"
	"fmt"
	"html"
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	labels     bool
	weights    bool
	background string
	imageURL   func(src string) string
}

// WithLabels draws each image's caption inside its cell.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithWeights annotates every row with its packing weight.
func WithWeights() SVGOption { return func(r *svgRenderer) { r.weights = true } }

// WithBackground sets the canvas fill colour.
func WithBackground(color string) SVGOption {
	return func(r *svgRenderer) { r.background = color }
}

// WithImages embeds the images as <image> elements, resolving each catalog
// src through url.
func WithImages(url func(src string) string) SVGOption {
	return func(r *svgRenderer) { r.imageURL = url }
}

// RenderSVG draws the wall as an SVG document.
func RenderSVG(w Wall, opts ...SVGOption) []byte {
	r := svgRenderer{background: "#ffffff"}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := w.Layout.Width, float64(w.Layout.PixelHeight())

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	if w.Title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(w.Title))
	}
	fmt.Fprintf(&buf, `  <rect class="background" width="100%%" height="100%%" fill="%s"/>`+"\n", html.EscapeString(r.background))

	for ri, row := range w.Layout.Rows {
		fmt.Fprintf(&buf, `  <g class="row" id="row-%d">`+"\n", ri)
		for _, c := range row.Cells {
			r.renderCell(&buf, w, c.Index, c.X, c.Y, c.Width, c.Height)
		}
		if r.weights {
			fmt.Fprintf(&buf, `    <text class="weight" x="%.2f" y="%.2f" font-family="monospace" font-size="11" text-anchor="end" fill="#d33">%g</text>`+"\n",
				width-4, row.Y+14, row.Weight)
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderCell(buf *bytes.Buffer, w Wall, index int, x, y, cw, ch float64) {
	fmt.Fprintf(buf, `    <rect class="cell" id="cell-%d" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="#eeeeee" stroke="#333333" stroke-width="1"/>`+"\n",
		index, x, y, cw, ch)

	if index < 0 || index >= len(w.Items) {
		return
	}
	it := w.Items[index]

	if r.imageURL != nil {
		fmt.Fprintf(buf, `    <image href="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" preserveAspectRatio="none"/>`+"\n",
			html.EscapeString(r.imageURL(it.Src)), x, y, cw, ch)
	}
	if r.labels {
		fmt.Fprintf(buf, `    <text class="caption" x="%.2f" y="%.2f" font-family="sans-serif" font-size="12" text-anchor="middle" fill="#333333">%s</text>`+"\n",
			x+cw/2, y+ch/2, html.EscapeString(it.Caption()))
	}
}
