package gallery

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/errors"
)

// Catalog is an ordered image collection.
type Catalog struct {
	Title     string `json:"title,omitempty" toml:"title,omitempty"`
	ImageRoot string `json:"image_root,omitempty" toml:"image_root,omitempty"`
	Images    []Item `json:"images" toml:"images"`
}

// Load reads a catalog from path. Files ending in .json are decoded as JSON,
// everything else as TOML.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "catalog %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "read catalog %s", path)
	}

	c, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, err
	}

	if c.ImageRoot == "" {
		c.ImageRoot = filepath.Dir(path)
	} else if !filepath.IsAbs(c.ImageRoot) {
		c.ImageRoot = filepath.Join(filepath.Dir(path), c.ImageRoot)
	}
	return c, nil
}

// FormatOf returns the catalog format for a file name: "json" for .json
// files, "toml" otherwise.
func FormatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "toml"
}

// Parse decodes catalog data in the given format ("toml" or "json") and
// validates it.
func Parse(data []byte, format string) (*Catalog, error) {
	var c Catalog
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "decode JSON catalog")
		}
	case "toml":
		md, err := toml.Decode(string(data), &c)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "decode TOML catalog")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidCatalog, "unknown catalog key %q", undecoded[0].String())
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported catalog format %q", format)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Encode writes the catalog in the given format ("toml" or "json").
func (c *Catalog) Encode(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode JSON catalog")
		}
	case "toml":
		if err := toml.NewEncoder(w).Encode(c); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode TOML catalog")
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported catalog format %q", format)
	}
	return nil
}

// Validate checks every item's path and any declared size.
func (c *Catalog) Validate() error {
	seen := make(map[string]int, len(c.Images))
	for i, it := range c.Images {
		if err := errors.ValidateImagePath(it.Src); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidCatalog, err, "image %d", i)
		}
		if j, dup := seen[it.Src]; dup {
			return errors.New(errors.ErrCodeInvalidCatalog, "image %d duplicates image %d (%s)", i, j, it.Src)
		}
		seen[it.Src] = i

		if it.Width != 0 || it.Height != 0 {
			if err := errors.ValidateDimensions(float64(it.Width), float64(it.Height)); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidCatalog, err, "image %d (%s)", i, it.Src)
			}
		}
	}
	return nil
}

// Len returns the number of images.
func (c *Catalog) Len() int { return len(c.Images) }

// Filter returns the images carrying tag, in catalog order. An empty tag
// returns every image.
func (c *Catalog) Filter(tag string) []Item {
	if tag == "" {
		return slices.Clone(c.Images)
	}
	var out []Item
	for _, it := range c.Images {
		if it.HasTag(tag) {
			out = append(out, it)
		}
	}
	return out
}

// Tags returns the distinct lower-cased tags in sorted order.
func (c *Catalog) Tags() []string {
	set := make(map[string]struct{})
	for _, it := range c.Images {
		for _, t := range it.Tags {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Path returns the filesystem path of an item under the image root.
func (c *Catalog) Path(it Item) string {
	return filepath.Join(c.ImageRoot, filepath.FromSlash(it.Src))
}

// Lookup returns the item with the given src.
func (c *Catalog) Lookup(src string) (Item, bool) {
	for _, it := range c.Images {
		if it.Src == src {
			return it, true
		}
	}
	return Item{}, false
}

// Sizes returns the natural sizes of items. Every item must have a size.
func Sizes(items []Item) ([]brick.Size, error) {
	sizes := make([]brick.Size, len(items))
	for i, it := range items {
		if !it.HasSize() {
			return nil, errors.New(errors.ErrCodeInvalidDimensions, "image %s has no known size", it.Src)
		}
		sizes[i] = it.Size()
	}
	return sizes, nil
}
