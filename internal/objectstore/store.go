// Package objectstore stores file bytes in an S3-compatible bucket.
package objectstore

import (
	"context"
	"io"
	"time"
)

// Store is the object store contract. Paths are bucket-relative keys.
type Store interface {
	// Put writes body at path. It never overwrites: an existing object
	// yields an error matching common.ErrAlreadyExists.
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error
	// Remove deletes a batch of objects. Per-object failures are joined
	// into the returned error.
	Remove(ctx context.Context, paths []string) error
	// SignedURL returns a time-limited GET URL for a private object.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	// PublicURL returns the unauthenticated URL of path.
	PublicURL(path string) string
}
