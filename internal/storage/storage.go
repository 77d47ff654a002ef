// Package storage contains the storage-tier abstraction the file lifecycle
// engine moves blobs through, plus its local-disk and S3-compatible
// implementations and the content digest helper.
package storage

import (
	"context"
	"errors"
	"io"

	"filerapi/internal/model"
)

// ErrNotExist is returned by Open/Size when no blob lives under the path.
var ErrNotExist = errors.New("blob does not exist")

// Tier is a named storage backend holding blobs under slash-separated
// relative paths. Save may rename on collision and returns the path actually
// used; callers must treat that as the blob's name from then on.
type Tier interface {
	// Name identifies the tier ("public", "private").
	Name() string
	// Open returns the blob's content for streaming reads.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Save writes r under path, picking an alternate name if the path is
	// taken, and returns the path written. size may be -1 when unknown.
	Save(ctx context.Context, path string, r io.Reader, size int64) (string, error)
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error
	// Exists reports whether a blob lives under path.
	Exists(ctx context.Context, path string) (bool, error)
	// Size returns the blob's byte size.
	Size(ctx context.Context, path string) (int64, error)
	// URL returns a client-reachable URL for the blob.
	URL(path string) string
	// AbsolutePath returns the blob's filesystem path, or "" when the tier
	// is not filesystem-backed.
	AbsolutePath(path string) string
}

// Tiers pairs the two tiers a deployment runs with.
type Tiers struct {
	Public  Tier
	Private Tier
}

// For resolves the tier holding blobs of the given visibility.
func (t Tiers) For(v model.Visibility) Tier {
	if v == model.VisibilityPublic {
		return t.Public
	}
	return t.Private
}
