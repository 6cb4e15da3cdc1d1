//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/brickwall/pkg/errors"
)

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "brickwall_test"})
	if err != nil {
		t.Fatalf("NewMongoStore() error: %v", err)
	}
	defer s.Close(ctx)

	r := testRecord(time.Hour)
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	defer s.Delete(ctx, r.ID)

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Title != r.Title || got.Layout.Len() != r.Layout.Len() {
		t.Errorf("Get() = %+v", got)
	}

	list, err := s.List(ctx, 10)
	if err != nil || len(list) == 0 {
		t.Errorf("List() = %d records, err %v", len(list), err)
	}

	if err := s.Delete(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, r.ID); !errors.Is(err, errors.ErrCodeRecordNotFound) {
		t.Errorf("Get after Delete = %v", err)
	}
}
