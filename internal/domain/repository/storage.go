package repository

import (
	"context"
	"io"
	"time"
)

// ObjectStorage defines the interface for both supported storage drivers:
// local filesystem (afero) and S3-compatible object storage (minio-go).
// key is always a forward-slash path relative to the storage root, e.g.
// "uploads/raw/{videoId}.mp4" or "hls/{videoId}/720p/segment_000.ts".
type ObjectStorage interface {
	// Upload stores an object, creating any missing parent directories/prefixes.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Download retrieves an object from the storage.
	// Caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object from the storage. For a missing key the local
	// backend returns ErrObjectNotFound; the S3 backend treats it as a no-op.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every object whose key starts with prefix, used to
	// clean up a video's HLS outputs in one call.
	DeletePrefix(ctx context.Context, prefix string) error

	// Exists checks if an object exists in the storage.
	Exists(ctx context.Context, key string) (bool, error)

	// Stat returns metadata about a stored object, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}
