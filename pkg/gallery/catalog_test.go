package gallery

import (
	"bytes"
	"path/filepath"
	"strings"
	"reflect"
	"testing"

	"github.com/matzehuels/brickwall/pkg/errors"
)

func TestLoadTOML(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "catalog.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.Title != "Drawings" {
		t.Errorf("Title = %q", c.Title)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if want := filepath.Join("testdata", "images"); c.ImageRoot != want {
		t.Errorf("ImageRoot = %q, want %q", c.ImageRoot, want)
	}

	bella := c.Images[0]
	if !bella.HasSize() || bella.Width != 1400 || bella.Height != 1700 {
		t.Errorf("bella size = %dx%d", bella.Width, bella.Height)
	}
	if len(bella.Description) != 2 {
		t.Errorf("bella description has %d paragraphs, want 2", len(bella.Description))
	}
	if c.Images[1].HasSize() {
		t.Error("kitty should have no declared size")
	}
}

func TestLoadJSON(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "catalog.json"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Len() != 2 || c.ImageRoot != "testdata" {
		t.Errorf("Load() = %d images, root %q", c.Len(), c.ImageRoot)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.toml"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
		code   errors.Code
	}{
		{"bad toml", `images = [`, "toml", errors.ErrCodeInvalidCatalog},
		{"unknown key", "[[images]]\nsrc = \"a.jpg\"\ncolour = \"red\"\n", "toml", errors.ErrCodeInvalidCatalog},
		{"traversal", "[[images]]\nsrc = \"../a.jpg\"\n", "toml", errors.ErrCodeInvalidCatalog},
		{"zero height", "[[images]]\nsrc = \"a.jpg\"\nwidth = 10\n", "toml", errors.ErrCodeInvalidCatalog},
		{"duplicate", "[[images]]\nsrc = \"a.jpg\"\n[[images]]\nsrc = \"a.jpg\"\n", "toml", errors.ErrCodeInvalidCatalog},
		{"unknown json field", `{"images": [{"src": "a.jpg", "colour": "red"}]}`, "json", errors.ErrCodeInvalidCatalog},
		{"bad format", `x`, "yaml", errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestFilterAndTags(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "catalog.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := c.Filter(""); len(got) != 3 {
		t.Errorf("Filter(\"\") = %d items, want 3", len(got))
	}

	color := c.Filter("color")
	if len(color) != 2 || color[0].Src != "drawings/bella/bella.jpg" {
		t.Errorf("Filter(color) = %+v", color)
	}
	if got := c.Filter("unicorn"); len(got) != 0 {
		t.Errorf("Filter(unicorn) = %d items, want 0", len(got))
	}

	want := []string{"cat", "color", "commission", "dog", "drawing", "maine", "nature"}
	if got := c.Tags(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestItemHelpers(t *testing.T) {
	it := Item{Src: "drawings/dog/drawing.jpg"}
	if it.Caption() != "drawing.jpg" {
		t.Errorf("Caption() = %q", it.Caption())
	}

	sized := it.WithSize(640, 480)
	if it.HasSize() || !sized.HasSize() {
		t.Error("WithSize should return a sized copy")
	}
	if s := sized.Size(); s.Width != 640 || s.Height != 480 {
		t.Errorf("Size() = %+v", s)
	}
}

func TestSizes(t *testing.T) {
	items := []Item{{Src: "a", Width: 2, Height: 1}, {Src: "b", Width: 1, Height: 2}}
	sizes, err := Sizes(items)
	if err != nil || len(sizes) != 2 {
		t.Fatalf("Sizes() = %v, %v", sizes, err)
	}

	if _, err := Sizes([]Item{{Src: "c"}}); !errors.Is(err, errors.ErrCodeInvalidDimensions) {
		t.Errorf("Sizes(unsized) error = %v", err)
	}
}

func TestLookupAndPath(t *testing.T) {
	c := &Catalog{ImageRoot: "root", Images: []Item{{Src: "a/b.jpg"}}}
	it, ok := c.Lookup("a/b.jpg")
	if !ok {
		t.Fatal("Lookup() should find a/b.jpg")
	}
	if got, want := c.Path(it), filepath.Join("root", "a", "b.jpg"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
	if _, ok := c.Lookup("nope"); ok {
		t.Error("Lookup(nope) should fail")
	}
}

func TestEncodeKeepsSizes(t *testing.T) {
	c := &Catalog{Title: "Drawings", Images: []Item{
		{Src: "a.jpg", Tags: []string{"ink"}},
		{Src: "b.jpg", Width: 40, Height: 30},
	}}

	for _, format := range []string{"toml", "json"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := c.Encode(&buf, format); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if format == "toml" && strings.Contains(buf.String(), "width = 0") {
				t.Errorf("unknown sizes should be omitted:\n%s", buf.String())
			}
			got, err := Parse(buf.Bytes(), format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got.Images[0].HasSize() || got.Images[1].Size() != c.Images[1].Size() {
				t.Errorf("images = %+v", got.Images)
			}
		})
	}

	if err := c.Encode(&bytes.Buffer{}, "yaml"); err == nil {
		t.Error("Encode should reject unknown formats")
	}
}
