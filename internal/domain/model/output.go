package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// OutputStatus is the lifecycle state of one HLS rendition.
type OutputStatus string

const (
	OutputPending    OutputStatus = "PENDING"
	OutputProcessing OutputStatus = "PROCESSING"
	OutputReady      OutputStatus = "READY"
	OutputFailed     OutputStatus = "FAILED"
)

// Resolution identifies one rung of the transcoding ladder.
type Resolution string

const (
	Resolution480p  Resolution = "480p"
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
)

const DefaultSegmentDuration = 10.0

var ErrUpscaleRejected = errors.New("cannot create an output taller than the source")

// VideoOutput is one HLS rendition of a Video.
type VideoOutput struct {
	ID              uuid.UUID
	VideoID         uuid.UUID
	Resolution      Resolution
	Width           int
	Height          int
	BitrateKbps     int
	PlaylistPath    string
	SegmentDir      string
	FileSize        int64
	SegmentCount    int
	SegmentDuration float64
	Status          OutputStatus
	CompletedAt     *time.Time
}

// NewVideoOutput constructs a READY output once the transcoder has finalized its
// segments and playlist. height must never exceed the source height.
func NewVideoOutput(videoID uuid.UUID, res Resolution, width, height, bitrateKbps int, playlistPath, segmentDir string, fileSize int64, segmentCount int, sourceHeight int) (*VideoOutput, error) {
	if height > sourceHeight {
		return nil, ErrUpscaleRejected
	}
	now := time.Now()
	return &VideoOutput{
		ID:              uuid.New(),
		VideoID:         videoID,
		Resolution:      res,
		Width:           width,
		Height:          height,
		BitrateKbps:     bitrateKbps,
		PlaylistPath:    playlistPath,
		SegmentDir:      segmentDir,
		FileSize:        fileSize,
		SegmentCount:    segmentCount,
		SegmentDuration: DefaultSegmentDuration,
		Status:          OutputReady,
		CompletedAt:     &now,
	}, nil
}
