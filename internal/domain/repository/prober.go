package repository

import (
	"context"
	"errors"
	"io"
)

var (
	ErrSourceUnreadable = errors.New("source unreadable")
	ErrNoVideoStream    = errors.New("no video stream")
	ErrInvalidMetadata  = errors.New("invalid metadata")
)

// MediaMetadata is the set of source attributes needed to plan a transcode.
type MediaMetadata struct {
	DurationSec float64
	Width       int
	Height      int
	BitrateKbps int
	FPS         float64
	Codec       string
	AspectRatio string
}

// MediaProber extracts MediaMetadata from a source video, either by path
// (local storage) or by streaming an arbitrary reader (object storage).
// Implementations should be provided by the infrastructure layer (e.g., ffprobe).
type MediaProber interface {
	// Probe inspects a local file path.
	Probe(ctx context.Context, path string) (MediaMetadata, error)

	// ProbeReader inspects an arbitrary stream, used when the source lives
	// in object storage and must be fetched into a temp file or pipe first.
	ProbeReader(ctx context.Context, r io.Reader) (MediaMetadata, error)
}
