package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
	"github.com/streamforge/streamforge/internal/infrastructure/storage"
)

// CreateVideoInput contains the input parameters for registering an uploaded video.
type CreateVideoInput struct {
	// ID, when non-zero, is assigned to the new video instead of a freshly
	// generated one. The HTTP handler precomputes it so the uploaded blob's
	// storage path can embed the same ID the database row will carry.
	ID           uuid.UUID
	Title        string
	Description  string
	Tags         []string
	OriginalName string
	Extension    string
	FileSize     int64
	MimeType     string
	UploadPath   string
}

// VideoService defines the interface for video metadata operations: the read
// side and lifecycle management that sit outside the transcoding pipeline.
type VideoService interface {
	// CreateVideo validates and persists video metadata for an already
	// uploaded blob, in PENDING status.
	CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error)

	// GetVideo retrieves video information by ID.
	GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error)

	// ListVideos returns a page of videos and the total count ignoring pagination.
	ListVideos(ctx context.Context, filter repository.VideoListFilter) ([]*model.Video, int, error)

	// DeleteVideo removes a video's database rows and storage artifacts.
	DeleteVideo(ctx context.Context, videoID uuid.UUID) error
}

type videoService struct {
	repo    repository.VideoRepository
	storage repository.ObjectStorage
}

// NewVideoService creates a new VideoService instance.
func NewVideoService(repo repository.VideoRepository, storage repository.ObjectStorage) VideoService {
	return &videoService{repo: repo, storage: storage}
}

func (s *videoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	video, err := model.NewVideo(
		input.Title, input.Description, input.Tags,
		input.OriginalName, input.Extension, input.FileSize,
		input.MimeType, input.UploadPath,
	)
	if err != nil {
		return nil, err
	}

	if input.ID != uuid.Nil {
		video.ID = input.ID
	}

	if err := s.repo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	return video, nil
}

func (s *videoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	return s.repo.GetByID(ctx, videoID)
}

func (s *videoService) ListVideos(ctx context.Context, filter repository.VideoListFilter) ([]*model.Video, int, error) {
	return s.repo.List(ctx, filter)
}

// DeleteVideo removes the video's HLS tree, original upload, and thumbnail
// from storage, then deletes its database rows. Storage cleanup is
// best-effort: a missing object is not an error, but a storage failure is
// surfaced so the caller can retry instead of losing track of orphaned blobs.
func (s *videoService) DeleteVideo(ctx context.Context, videoID uuid.UUID) error {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	if err := s.storage.DeletePrefix(ctx, storage.HLSOutputPrefix(videoID)+"/"); err != nil {
		return fmt.Errorf("delete hls artifacts: %w", err)
	}
	if err := s.deleteIgnoreNotFound(ctx, video.UploadPath); err != nil {
		return fmt.Errorf("delete source blob: %w", err)
	}
	if video.ThumbnailPath != nil {
		if err := s.deleteIgnoreNotFound(ctx, *video.ThumbnailPath); err != nil {
			return fmt.Errorf("delete thumbnail: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	return nil
}

// deleteIgnoreNotFound treats a missing object as already-deleted, since
// storage cleanup here is best-effort over state the DB has already decided
// to discard.
func (s *videoService) deleteIgnoreNotFound(ctx context.Context, key string) error {
	err := s.storage.Delete(ctx, key)
	if err != nil && !errors.Is(err, repository.ErrObjectNotFound) {
		return err
	}
	return nil
}

var _ VideoService = (*videoService)(nil)
