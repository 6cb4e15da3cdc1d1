package store

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/paging"
)

func testRecord(ttl time.Duration) *Record {
	r := New(ttl)
	r.Title = "Drawings"
	r.Items = []gallery.Item{{Src: "a.jpg", Width: 300, Height: 200}}
	r.Page = paging.First(1, 12)
	r.Layout = brick.Compute([]brick.Size{{Width: 300, Height: 200}}, brick.DefaultConfig())
	return r
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			r := testRecord(0)
			if err := s.Save(ctx, r); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			got, err := s.Get(ctx, r.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got.Title != r.Title || len(got.Items) != 1 || got.Layout.Len() != 1 {
				t.Errorf("Get() = %+v", got)
			}
			if got.Layout.Rows[0].Cells[0].Width != brick.DefaultRowWidth {
				t.Errorf("layout width = %v", got.Layout.Rows[0].Cells[0].Width)
			}

			if err := s.Delete(ctx, r.ID); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := s.Get(ctx, r.ID); !errors.Is(err, errors.ErrCodeRecordNotFound) {
				t.Errorf("Get after Delete = %v, want RECORD_NOT_FOUND", err)
			}
			if err := s.Delete(ctx, r.ID); err != nil {
				t.Errorf("Delete(missing) error: %v", err)
			}
		})
	}
}

func TestStoreExpired(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			r := testRecord(time.Hour)
			past := time.Now().Add(-time.Minute)
			r.ExpiresAt = &past
			if err := s.Save(ctx, r); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, r.ID); !errors.Is(err, errors.ErrCodeRecordNotFound) {
				t.Errorf("Get(expired) = %v, want RECORD_NOT_FOUND", err)
			}
			list, _ := s.List(ctx, 0)
			if len(list) != 0 {
				t.Errorf("List() returned %d expired records", len(list))
			}
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
			var ids []string
			for i := range 3 {
				r := testRecord(-1)
				r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
				if err := s.Save(ctx, r); err != nil {
					t.Fatal(err)
				}
				ids = append(ids, r.ID)
			}

			list, err := s.List(ctx, 2)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("List(2) returned %d records", len(list))
			}
			if list[0].ID != ids[2] || list[1].ID != ids[1] {
				t.Errorf("List() order = %s, %s; want newest first", list[0].ID, list[1].ID)
			}
		})
	}
}

func TestSaveAssignsID(t *testing.T) {
	s := NewMemoryStore()
	r := &Record{Title: "x"}
	if err := s.Save(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if ValidateID(r.ID) != nil || r.CreatedAt.IsZero() {
		t.Errorf("Save() should assign id and timestamp, got %+v", r)
	}

	bad := &Record{ID: "../../etc/passwd"}
	if err := s.Save(context.Background(), bad); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save(bad id) = %v, want INVALID_INPUT", err)
	}
}

func TestNewTTL(t *testing.T) {
	if r := New(-1); r.ExpiresAt != nil {
		t.Error("negative ttl should never expire")
	}
	r := New(0)
	if r.ExpiresAt == nil || r.ExpiresAt.Sub(r.CreatedAt) != DefaultTTL {
		t.Errorf("zero ttl should use DefaultTTL, got %v", r.ExpiresAt)
	}
}

func TestFileStoreCleanup(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())

	r := testRecord(time.Hour)
	past := time.Now().Add(-time.Minute)
	r.ExpiresAt = &past
	_ = s.Save(ctx, r)
	keep := testRecord(time.Hour)
	_ = s.Save(ctx, keep)

	if err := s.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, keep.ID); err != nil {
		t.Errorf("Cleanup removed a live record: %v", err)
	}
}

func TestNewFileStoreRequiresDir(t *testing.T) {
	if _, err := NewFileStore(""); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("NewFileStore(\"\") = %v", err)
	}
}
