package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
)

// ProgressFunc reports incremental transcode progress. percent is 0-100 over
// the whole ladder run; resolution names the rendition currently encoding.
// percent is monotonically non-decreasing within a resolution.
type ProgressFunc func(resolution model.Resolution, percent int)

// TranscodeRequest describes one full ABR transcode run for a video.
type TranscodeRequest struct {
	VideoID              uuid.UUID
	InputPath            string // storage key of the source blob, e.g. "uploads/raw/{videoId}.mp4"
	RequestedResolutions []model.Resolution
	Metadata             *MediaMetadata // nil triggers an internal probe
	OnProgress           ProgressFunc   // nil is a valid no-op
}

// TranscodeOutput mirrors one encoded rendition before it is persisted as a
// model.VideoOutput.
type TranscodeOutput struct {
	Resolution   model.Resolution
	Width        int
	Height       int
	BitrateKbps  int
	PlaylistPath string
	SegmentPaths []string
	FileSize     int64
	SegmentCount int
}

// Transcoder drives FFmpeg to produce an HLS ladder and thumbnail for a
// single source video. Implementations should be provided by the
// infrastructure layer (e.g., an os/exec wrapper around ffmpeg).
type Transcoder interface {
	// TranscodeToHLS runs the never-upscale-filtered resolution ladder and
	// returns one TranscodeOutput per surviving resolution, plus the
	// relative master playlist path when at least one output exists.
	TranscodeToHLS(ctx context.Context, req TranscodeRequest) (outputs []TranscodeOutput, masterPlaylistPath string, err error)

	// GenerateThumbnail extracts a single frame from the source and stores
	// it at thumbnailPath. Only an error is returned; the seek time is not
	// reported back.
	GenerateThumbnail(ctx context.Context, inputPath, thumbnailPath string, durationSec float64) error
}
