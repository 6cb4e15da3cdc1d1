package sink

import (
	"encoding/json"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/paging"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	imageBase string
	compact   bool
}

// WithJSONImageBase prefixes every exported src with base.
func WithJSONImageBase(base string) JSONOption {
	return func(r *jsonRenderer) { r.imageBase = base }
}

// WithJSONCompact disables indentation.
func WithJSONCompact() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

type jsonOutput struct {
	Title  string      `json:"title,omitempty"`
	Tag    string      `json:"tag,omitempty"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Page   jsonPage    `json:"page"`
	Rows   []jsonRow   `json:"rows"`
	Images []jsonImage `json:"images"`
}

type jsonPage struct {
	paging.Page
	Number int  `json:"number"`
	Count  int  `json:"count"`
	First  bool `json:"first"`
	Last   bool `json:"last"`
}

type jsonRow struct {
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Weight float64 `json:"weight"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
}

type jsonImage struct {
	brick.Cell
	Src         string   `json:"src"`
	Caption     string   `json:"caption"`
	Date        string   `json:"date,omitempty"`
	Description []string `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	NaturalW    int      `json:"natural_width,omitempty"`
	NaturalH    int      `json:"natural_height,omitempty"`
}

// RenderJSON exports the wall as a JSON document: rows with their weights,
// positioned images with their metadata, and the paging state.
func RenderJSON(w Wall, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Title:  w.Title,
		Tag:    w.Tag,
		Width:  w.Layout.Width,
		Height: w.Layout.Height,
		Page: jsonPage{
			Page:   w.Page,
			Number: w.Page.Number(),
			Count:  w.Page.Count(),
			First:  w.Page.IsBeginning(),
			Last:   w.Page.IsEnd(),
		},
		Rows:   make([]jsonRow, 0, len(w.Layout.Rows)),
		Images: make([]jsonImage, 0, w.Layout.Len()),
	}

	h := htmlRenderer{imageBase: r.imageBase}
	for _, row := range w.Layout.Rows {
		out.Rows = append(out.Rows, jsonRow{
			Start:  row.Start,
			End:    row.Start + len(row.Cells),
			Weight: row.Weight,
			Y:      row.Y,
			Height: row.Height,
		})
		for _, c := range row.Cells {
			img := jsonImage{Cell: c}
			if it, ok := w.item(c); ok {
				img.Src = h.url(it.Src)
				img.Caption = it.Caption()
				img.Date = it.Date
				img.Description = it.Description
				img.Tags = it.Tags
				img.NaturalW, img.NaturalH = it.Width, it.Height
			}
			out.Images = append(out.Images, img)
		}
	}

	if r.compact {
		return json.Marshal(out)
	}
	return json.MarshalIndent(out, "", "  ")
}
