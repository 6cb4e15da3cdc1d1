// Package store persists render records: snapshots of a computed gallery
// page that can be fetched again by ID.
//
// Backends:
//   - [MemoryStore]: in-process, for development and tests
//   - [FileStore]: JSON files in a directory, for single-host deployments
//   - [MongoStore]: MongoDB, for shared deployments
//
// Records expire after their TTL. Get never returns an expired record.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/paging"
)

// DefaultTTL is how long a record is kept when no TTL is given.
const DefaultTTL = 30 * 24 * time.Hour

// Record is a stored gallery page.
type Record struct {
	ID        string         `json:"id" bson:"_id"`
	Title     string         `json:"title,omitempty" bson:"title,omitempty"`
	Catalog   string         `json:"catalog,omitempty" bson:"catalog,omitempty"`
	Tag       string         `json:"tag,omitempty" bson:"tag,omitempty"`
	Page      paging.Page    `json:"page" bson:"page"`
	Items     []gallery.Item `json:"items" bson:"items"`
	Layout    brick.Layout   `json:"layout" bson:"layout"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

// IsExpired reports whether the record has passed its expiry.
func (r *Record) IsExpired() bool {
	return r.ExpiresAt != nil && time.Now().After(*r.ExpiresAt)
}

// Store is the interface for record storage backends.
type Store interface {
	// Save assigns the record an ID if it has none and stores it.
	Save(ctx context.Context, r *Record) error

	// Get retrieves a record by ID. Missing and expired records return a
	// RECORD_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// New creates a record with a fresh ID. A zero ttl means DefaultTTL; a
// negative ttl means the record never expires.
func New(ttl time.Duration) *Record {
	now := time.Now().UTC()
	r := &Record{ID: uuid.NewString(), CreatedAt: now}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		r.ExpiresAt = &exp
	}
	return r
}

// ValidateID rejects IDs that are not UUIDs.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid record id %q", id)
	}
	return nil
}

func prepare(r *Record) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil record")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	} else if err := ValidateID(r.ID); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeRecordNotFound, "render %s not found", id)
}
