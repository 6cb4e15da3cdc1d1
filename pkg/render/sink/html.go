package sink

import (
	"bytes"
	"html/template"
	"path"
	"strings"

	"github.com/matzehuels/brickwall/pkg/errors"
)

// HTMLOption configures [RenderHTML].
type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	imageBase string
	pageURL   func(number int) string
	info      bool
}

// WithImageBase prefixes every image src with base, e.g. "/images".
func WithImageBase(base string) HTMLOption {
	return func(r *htmlRenderer) { r.imageBase = base }
}

// WithPageURL adds previous/next links built by url. Page numbers are
// zero-based.
func WithPageURL(url func(number int) string) HTMLOption {
	return func(r *htmlRenderer) { r.pageURL = url }
}

// WithoutInfo omits the date and description block under each caption.
func WithoutInfo() HTMLOption { return func(r *htmlRenderer) { r.info = false } }

type htmlCell struct {
	Index       int
	Left, Width int
	Height      int
	Src         string
	Caption     string
	Date        string
	Description []string
}

type htmlRow struct {
	Top, Height int
	Cells       []htmlCell
}

type htmlPage struct {
	Title      string
	Tag        string
	Width      int
	Height     int
	Rows       []htmlRow
	Info       bool
	PageNumber int
	PageCount  int
	PrevURL    string
	NextURL    string
}

var pageTemplate = template.Must(template.New("gallery").Funcs(template.FuncMap{
	"inc": func(n int) int { return n + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body { margin: 0; font-family: sans-serif; background: #fafafa; color: #222; }
  header, nav { max-width: {{.Width}}px; margin: 1em auto; }
  .wall { position: relative; margin: 0 auto; }
  .image-row { position: absolute; left: 0; }
  .image-cell { position: absolute; top: 0; overflow: hidden; }
  .image-cell img { display: block; width: 100%; height: 100%; }
  .image-info { position: absolute; left: 0; right: 0; bottom: 0; padding: 0.5em; background: rgba(0,0,0,0.55); color: #fff; opacity: 0; transition: opacity 0.2s; }
  .image-cell:hover .image-info { opacity: 1; }
  .image-info .caption { font-weight: bold; }
  .image-info p { margin: 0.25em 0 0; font-size: 0.85em; }
  nav { display: flex; justify-content: space-between; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  {{- if .Tag}}
  <p class="tag">#{{.Tag}}</p>
  {{- end}}
</header>
<div class="wall" style="width: {{.Width}}px; height: {{.Height}}px">
{{- range .Rows}}
  <div class="image-row" style="top: {{.Top}}px; width: 100%; height: {{.Height}}px">
  {{- range .Cells}}
    <div class="image-cell" id="image-{{.Index}}" style="left: {{.Left}}px; width: {{.Width}}px; height: {{.Height}}px">
      <a class="hero" href="{{.Src}}"><img src="{{.Src}}" alt="{{.Caption}}" width="{{.Width}}" height="{{.Height}}" loading="lazy"></a>
      <div class="image-info">
        <div class="caption">{{.Caption}}</div>
        {{- if $.Info}}
        {{- if .Date}}
        <p class="date">{{.Date}}</p>
        {{- end}}
        {{- range .Description}}
        <p>{{.}}</p>
        {{- end}}
        {{- end}}
      </div>
    </div>
  {{- end}}
  </div>
{{- end}}
</div>
{{- if gt .PageCount 1}}
<nav>
  {{- if .PrevURL}}<a class="prev" href="{{.PrevURL}}">&larr; previous</a>{{else}}<span></span>{{end}}
  <span class="page">page {{inc .PageNumber}} of {{.PageCount}}</span>
  {{- if .NextURL}}<a class="next" href="{{.NextURL}}">next &rarr;</a>{{else}}<span></span>{{end}}
</nav>
{{- end}}
</body>
</html>
`))

// RenderHTML writes the wall as a standalone HTML page. Each cell links to
// the full-size image.
func RenderHTML(w Wall, opts ...HTMLOption) ([]byte, error) {
	r := htmlRenderer{info: true}
	for _, opt := range opts {
		opt(&r)
	}

	title := w.Title
	if title == "" {
		title = "Gallery"
	}
	p := htmlPage{
		Title:      title,
		Tag:        w.Tag,
		Width:      int(w.Layout.Width),
		Height:     w.Layout.PixelHeight(),
		Info:       r.info,
		PageNumber: w.Page.Number(),
		PageCount:  w.Page.Count(),
	}
	if r.pageURL != nil {
		if !w.Page.IsBeginning() {
			p.PrevURL = r.pageURL(w.Page.Prev().Number())
		}
		if !w.Page.IsEnd() {
			p.NextURL = r.pageURL(w.Page.Next().Number())
		}
	}

	for _, row := range w.Layout.Rows {
		hr := htmlRow{Top: int(row.Y + 0.5), Height: int(row.Height + 0.5)}
		for _, c := range row.Cells {
			it, ok := w.item(c)
			if !ok {
				return nil, errors.New(errors.ErrCodeInternal, "cell %d has no catalog item", c.Index)
			}
			cw, ch := c.Pixels()
			hr.Cells = append(hr.Cells, htmlCell{
				Index:       c.Index,
				Left:        int(c.X + 0.5),
				Width:       cw,
				Height:      ch,
				Src:         r.url(it.Src),
				Caption:     it.Caption(),
				Date:        it.Date,
				Description: it.Description,
			})
		}
		p.Rows = append(p.Rows, hr)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render html")
	}
	return buf.Bytes(), nil
}

func (r *htmlRenderer) url(src string) string {
	if r.imageBase == "" {
		return src
	}
	return strings.TrimSuffix(r.imageBase, "/") + "/" + path.Clean(src)
}
