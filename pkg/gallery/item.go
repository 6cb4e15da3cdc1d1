package gallery

import (
	"path"
	"slices"
	"strings"

	"github.com/matzehuels/brickwall/pkg/brick"
)

// Item is one image in the catalog.
type Item struct {
	Src         string   `json:"src" toml:"src"`
	Date        string   `json:"date,omitempty" toml:"date,omitempty"`
	Description []string `json:"description,omitempty" toml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" toml:"tags,omitempty"`

	// Width and Height are the natural pixel size. Zero means unknown.
	Width  int `json:"width,omitempty" toml:"width,omitempty"`
	Height int `json:"height,omitempty" toml:"height,omitempty"`
}

// Caption returns the file name shown over the image cell.
func (it Item) Caption() string { return path.Base(it.Src) }

// HasSize reports whether the natural size is known.
func (it Item) HasSize() bool { return it.Width > 0 && it.Height > 0 }

// Size returns the natural size for layout.
func (it Item) Size() brick.Size {
	return brick.Size{Width: float64(it.Width), Height: float64(it.Height)}
}

// HasTag reports whether the item carries tag (case-insensitive).
func (it Item) HasTag(tag string) bool {
	return slices.ContainsFunc(it.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

// WithSize returns a copy of it with the natural size set.
func (it Item) WithSize(w, h int) Item {
	it.Width, it.Height = w, h
	return it
}
