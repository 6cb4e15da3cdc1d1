package probe

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/cache"
	"github.com/matzehuels/brickwall/pkg/errors"
)

func writeImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	var err error
	switch filepath.Ext(name) {
	case ".png":
		err = png.Encode(&buf, img)
	case ".jpg":
		err = jpeg.Encode(&buf, img, nil)
	case ".gif":
		err = gif.Encode(&buf, img, nil)
	default:
		t.Fatalf("unsupported extension %q", name)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeSize(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		w, h   int
		format string
	}{
		{"a.png", 40, 30, "png"},
		{"b.jpg", 16, 32, "jpeg"},
		{"c.gif", 10, 10, "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := os.ReadFile(writeImage(t, dir, tt.name, tt.w, tt.h))
			if err != nil {
				t.Fatal(err)
			}
			s, format, err := DecodeSize(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("DecodeSize() error: %v", err)
			}
			if format != tt.format {
				t.Errorf("format = %q, want %q", format, tt.format)
			}
			if s != (brick.Size{Width: float64(tt.w), Height: float64(tt.h)}) {
				t.Errorf("size = %+v, want %dx%d", s, tt.w, tt.h)
			}
		})
	}
}

func TestDecodeSizeInvalid(t *testing.T) {
	_, _, err := DecodeSize(strings.NewReader("not an image"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("DecodeSize(garbage) = %v, want INVALID_FORMAT", err)
	}
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, errors.ErrCodeImageNotFound) {
		t.Errorf("File(missing) = %v, want IMAGE_NOT_FOUND", err)
	}
}

func TestProberEach(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{
		{Index: 0, Path: writeImage(t, dir, "0.png", 30, 20)},
		{Index: 1, Path: writeImage(t, dir, "1.png", 20, 30)},
		{Index: 2, Path: writeImage(t, dir, "2.jpg", 64, 16)},
		{Index: 3, Path: writeImage(t, dir, "3.gif", 8, 8)},
	}

	p := &Prober{Workers: 2}
	var got []Loaded
	err := p.Each(context.Background(), jobs, func(l Loaded) error {
		got = append(got, l)
		return nil
	})
	if err != nil {
		t.Fatalf("Each() error: %v", err)
	}
	if len(got) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(got), len(jobs))
	}

	sort.Slice(got, func(i, j int) bool { return got[i].Index < got[j].Index })
	want := []brick.Size{{30, 20}, {20, 30}, {64, 16}, {8, 8}}
	for i, l := range got {
		if l.Index != i || l.Size != want[i] {
			t.Errorf("result %d = %+v, want size %+v", i, l, want[i])
		}
	}
}

func TestProberFeedsAssembler(t *testing.T) {
	dir := t.TempDir()
	dims := [][2]int{{40, 20}, {30, 20}, {20, 30}, {20, 20}, {80, 20}, {25, 20}}
	jobs := make([]Job, len(dims))
	sizes := make([]brick.Size, len(dims))
	for i, d := range dims {
		jobs[i] = Job{Index: i, Path: writeImage(t, dir, string(rune('a'+i))+".png", d[0], d[1])}
		sizes[i] = brick.Size{Width: float64(d[0]), Height: float64(d[1])}
	}

	asm := brick.NewAssembler(brick.DefaultPacker(), len(jobs))
	var rows []brick.Row
	err := (&Prober{Workers: 3}).Each(context.Background(), jobs, func(l Loaded) error {
		r, err := asm.Add(l.Index, l.Size)
		rows = append(rows, r...)
		return err
	})
	if err != nil {
		t.Fatalf("Each() error: %v", err)
	}
	if !asm.Done() {
		t.Fatal("assembler should be done")
	}

	want := brick.DefaultPacker().Pack(sizes)
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range rows {
		if rows[i].Start != want[i].Start || rows[i].Len() != want[i].Len() {
			t.Errorf("row %d = [%d,%d), want [%d,%d)", i, rows[i].Start, rows[i].End(), want[i].Start, want[i].End())
		}
	}
}

func TestProberFailureAborts(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	jobs := []Job{
		{Index: 0, Path: writeImage(t, dir, "ok.png", 10, 10)},
		{Index: 1, Path: bad},
	}

	err := (&Prober{Workers: 1}).Each(context.Background(), jobs, func(Loaded) error { return nil })
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Each() = %v, want INVALID_FORMAT", err)
	}
}

func TestProberCallbackError(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{
		{Index: 0, Path: writeImage(t, dir, "a.png", 10, 10)},
		{Index: 1, Path: writeImage(t, dir, "b.png", 10, 10)},
	}

	stop := errors.New(errors.ErrCodeInternal, "stop")
	err := (&Prober{}).Each(context.Background(), jobs, func(Loaded) error { return stop })
	if err != stop {
		t.Errorf("Each() = %v, want callback error", err)
	}
}

func TestProberCache(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{{Index: 0, Path: writeImage(t, dir, "a.png", 12, 9)}}

	c := cache.NewMemoryCache()
	p := &Prober{Cache: c, Keyer: cache.NewDefaultKeyer()}

	var first, second Loaded
	if err := p.Each(context.Background(), jobs, func(l Loaded) error { first = l; return nil }); err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first probe should not be cached")
	}
	if c.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", c.Len())
	}

	if err := p.Each(context.Background(), jobs, func(l Loaded) error { second = l; return nil }); err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Size != first.Size {
		t.Errorf("second probe = %+v, want cached %+v", second, first.Size)
	}
}

func TestProberCancelled(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{{Index: 0, Path: writeImage(t, dir, "a.png", 10, 10)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&Prober{}).Each(ctx, jobs, func(Loaded) error { return nil })
	if err != context.Canceled {
		t.Errorf("Each(cancelled) = %v, want context.Canceled", err)
	}
}
