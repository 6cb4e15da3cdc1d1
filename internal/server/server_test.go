package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickwall/pkg/cache"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/pipeline"
	"github.com/matzehuels/brickwall/pkg/store"
)

var testDims = [][2]int{{30, 20}, {20, 30}, {40, 10}, {20, 20}, {25, 20}}

func newTestServer(t *testing.T) (*Server, *gallery.Catalog) {
	t.Helper()
	dir := t.TempDir()

	cat := &gallery.Catalog{Title: "Test wall", ImageRoot: dir}
	for i, d := range testDims {
		name := fmt.Sprintf("img%02d.png", i)
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, d[0], d[1]))); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		it := gallery.Item{Src: name, Date: "2020"}
		if i%2 == 0 {
			it.Tags = []string{"even"}
		}
		cat.Images = append(cat.Images, it)
	}

	logger := log.New(io.Discard)
	srv, err := New(Config{
		Catalog:  cat,
		Runner:   pipeline.NewRunner(cache.NewMemoryCache(), nil, logger),
		Store:    store.NewMemoryStore(),
		Logger:   logger,
		Defaults: pipeline.Options{PageSize: 2, Width: 100},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, cat
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresCatalogAndRunner(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New without catalog should fail")
	}
	if _, err := New(Config{Catalog: &gallery.Catalog{}}); err == nil {
		t.Error("New without runner should fail")
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
		Images int    `json:"images"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Images != len(testDims) {
		t.Errorf("body = %+v", body)
	}
}

func TestTags(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/tags", nil)
	if !strings.Contains(rec.Body.String(), `"even"`) {
		t.Errorf("tags body = %s", rec.Body.String())
	}
}

func TestLayoutPaging(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		query      string
		wantStatus int
		wantImages int
	}{
		{"", http.StatusOK, 2},
		{"?page=2", http.StatusOK, 1},
		{"?size=5", http.StatusOK, 5},
		{"?all=true", http.StatusOK, 5},
		{"?tag=even", http.StatusOK, 2},
		{"?page=9", http.StatusNotFound, 0},
		{"?page=x", http.StatusBadRequest, 0},
		{"?width=wide", http.StatusBadRequest, 0},
		{"?all=maybe", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/layout"+tt.query, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if !strings.Contains(rec.Body.String(), `"code"`) {
					t.Errorf("error body = %s", rec.Body.String())
				}
				return
			}
			var out struct {
				Width  float64 `json:"width"`
				Images []struct {
					Src string `json:"src"`
				} `json:"images"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatal(err)
			}
			if len(out.Images) != tt.wantImages {
				t.Errorf("images = %d, want %d", len(out.Images), tt.wantImages)
			}
			if out.Width != 100 {
				t.Errorf("width = %v, want 100", out.Width)
			}
		})
	}
}

func TestLayoutCacheHeader(t *testing.T) {
	srv, _ := newTestServer(t)
	first := do(t, srv, http.MethodGet, "/api/layout", nil)
	if got := first.Header().Get("X-Brickwall-Cache"); got != "miss" {
		t.Errorf("first request cache = %q, want miss", got)
	}
	second := do(t, srv, http.MethodGet, "/api/layout", nil)
	if got := second.Header().Get("X-Brickwall-Cache"); got != "hit" {
		t.Errorf("second request cache = %q, want hit", got)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached body differs")
	}
}

func TestGalleryFormats(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/gallery", "text/html", `class="image-row"`},
		{"/gallery.svg", "image/svg+xml", "<svg"},
		{"/gallery.png", "image/png", "\x89PNG"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.path, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}

func TestGalleryPageLinksKeepQuery(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/gallery?tag=even&size=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "page=1") || !strings.Contains(body, "tag=even") {
		t.Errorf("next link missing query: %s", body)
	}
}

func TestRenders(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/renders", strings.NewReader(`{"page":1,"title":"Saved"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created renderSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Title != "Saved" || created.Page != 1 || created.Images != 2 {
		t.Errorf("created = %+v", created)
	}
	if loc := rec.Header().Get("Location"); loc != created.URL {
		t.Errorf("Location = %q, want %q", loc, created.URL)
	}

	rec = do(t, srv, http.MethodGet, created.URL, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got store.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != created.ID || len(got.Items) != 2 {
		t.Errorf("record = %+v", got)
	}

	rec = do(t, srv, http.MethodGet, created.URL+"?format=svg", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<svg") {
		t.Errorf("svg re-render status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, created.URL+"?format=pdf", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad format status = %d, want 400", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/renders", nil)
	var list struct {
		Renders []renderSummary `json:"renders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Renders) != 1 || list.Renders[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestRenderErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"unknown field", http.MethodPost, "/api/renders", `{"colour":"red"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/renders", `{`, http.StatusBadRequest},
		{"page out of range", http.MethodPost, "/api/renders", `{"page":40}`, http.StatusNotFound},
		{"invalid id", http.MethodGet, "/api/renders/not-a-uuid", "", http.StatusBadRequest},
		{"missing id", http.MethodGet, "/api/renders/6f1c1e7a-9d1b-4c8e-8f3a-2b7d1c0e5a44", "", http.StatusNotFound},
		{"bad limit", http.MethodGet, "/api/renders?limit=1000", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			rec := do(t, srv, tt.method, tt.target, body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestImages(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/images/img00.png", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("not a PNG")
	}

	rec = do(t, srv, http.MethodGet, "/images/other.png", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("uncatalogued image status = %d, want 404", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/images/..%2Fsecret", nil)
	if rec.Code == http.StatusOK {
		t.Error("path traversal was served")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", rec.Code)
	}
}
