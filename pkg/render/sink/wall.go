package sink

import (
	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/paging"
)

// Wall is one rendered page of a gallery.
type Wall struct {
	Title  string
	Items  []gallery.Item
	Layout brick.Layout
	Page   paging.Page
	// Tag is the active filter, if any.
	Tag string
}

// item returns the item a cell shows.
func (w Wall) item(c brick.Cell) (gallery.Item, bool) {
	if c.Index < 0 || c.Index >= len(w.Items) {
		return gallery.Item{}, false
	}
	return w.Items[c.Index], true
}
