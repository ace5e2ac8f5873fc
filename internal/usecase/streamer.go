package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
	"github.com/streamforge/streamforge/internal/infrastructure/storage"
)

// ErrInvalidSegmentName is returned when a requested segment name does not
// match the fixed naming scheme produced by the transcoder.
var ErrInvalidSegmentName = errors.New("invalid segment name")

var segmentNamePattern = regexp.MustCompile(`^segment_\d{3}\.ts$`)

// Streamer serves HLS playlists, segments, and thumbnails for READY videos.
type Streamer interface {
	// GetMasterPlaylist returns the bytes of a video's master playlist.
	GetMasterPlaylist(ctx context.Context, videoID uuid.UUID) (io.ReadCloser, error)

	// GetVariantPlaylist returns the bytes of one resolution's playlist.
	GetVariantPlaylist(ctx context.Context, videoID uuid.UUID, resolution model.Resolution) (io.ReadCloser, error)

	// GetSegment returns the bytes of one MPEG-TS segment. name must match
	// /^segment_\d{3}\.ts$/ or ErrInvalidSegmentName is returned.
	GetSegment(ctx context.Context, videoID uuid.UUID, resolution model.Resolution, name string) (io.ReadCloser, error)

	// GetThumbnail returns the bytes of a video's generated thumbnail.
	GetThumbnail(ctx context.Context, videoID uuid.UUID) (io.ReadCloser, error)
}

type streamerService struct {
	videos  repository.VideoRepository
	outputs repository.OutputRepository
	storage repository.ObjectStorage
}

// NewStreamer creates a new Streamer instance.
func NewStreamer(videos repository.VideoRepository, outputs repository.OutputRepository, storage repository.ObjectStorage) Streamer {
	return &streamerService{videos: videos, outputs: outputs, storage: storage}
}

func (s *streamerService) GetMasterPlaylist(ctx context.Context, videoID uuid.UUID) (io.ReadCloser, error) {
	video, err := s.requireReady(ctx, videoID)
	if err != nil {
		return nil, err
	}

	list, err := s.outputs.ListByVideoID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	if !anyReady(list) {
		return nil, repository.ErrOutputNotFound
	}

	key := storage.MasterPlaylistKey(video.ID)
	reader, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, repository.ErrMasterPlaylistNotFound
		}
		return nil, err
	}
	return reader, nil
}

func (s *streamerService) GetVariantPlaylist(ctx context.Context, videoID uuid.UUID, resolution model.Resolution) (io.ReadCloser, error) {
	if _, err := s.requireReady(ctx, videoID); err != nil {
		return nil, err
	}

	output, err := s.outputs.GetByVideoIDAndResolution(ctx, videoID, resolution)
	if err != nil {
		return nil, err
	}
	if output.Status != model.OutputReady {
		return nil, repository.ErrOutputNotFound
	}

	reader, err := s.storage.Download(ctx, output.PlaylistPath)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, repository.ErrPlaylistNotFound
		}
		return nil, err
	}
	return reader, nil
}

func (s *streamerService) GetSegment(ctx context.Context, videoID uuid.UUID, resolution model.Resolution, name string) (io.ReadCloser, error) {
	if !segmentNamePattern.MatchString(name) {
		return nil, ErrInvalidSegmentName
	}

	if _, err := s.requireReady(ctx, videoID); err != nil {
		return nil, err
	}

	output, err := s.outputs.GetByVideoIDAndResolution(ctx, videoID, resolution)
	if err != nil {
		return nil, err
	}
	if output.Status != model.OutputReady {
		return nil, repository.ErrOutputNotFound
	}

	key := fmt.Sprintf("%s/%s", output.SegmentDir, name)
	reader, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, repository.ErrSegmentNotFound
		}
		return nil, err
	}
	return reader, nil
}

func (s *streamerService) GetThumbnail(ctx context.Context, videoID uuid.UUID) (io.ReadCloser, error) {
	video, err := s.requireReady(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.ThumbnailPath == nil {
		return nil, repository.ErrThumbnailNotFound
	}

	reader, err := s.storage.Download(ctx, *video.ThumbnailPath)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, repository.ErrThumbnailNotFound
		}
		return nil, err
	}
	return reader, nil
}

// requireReady loads a video and verifies it is ready to be streamed.
func (s *streamerService) requireReady(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsReady() {
		return nil, repository.ErrVideoNotReady
	}
	return video, nil
}

func anyReady(outputs []*model.VideoOutput) bool {
	for _, o := range outputs {
		if o.Status == model.OutputReady {
			return true
		}
	}
	return false
}

var _ Streamer = (*streamerService)(nil)
