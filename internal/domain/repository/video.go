package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
)

// VideoListFilter narrows ListVideos to a status and paginates the result.
type VideoListFilter struct {
	Status model.Status // zero value means no status filter
	Limit  int
	Offset int
}

// VideoRepository defines the interface for video persistence operations.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type VideoRepository interface {
	// Create persists a new video entity.
	// Returns error if the video already exists or persistence fails.
	Create(ctx context.Context, video *model.Video) error

	// GetByID retrieves a video by its unique identifier.
	// Returns nil and ErrVideoNotFound if the video does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)

	// List returns videos matching filter, newest first, with total count
	// ignoring pagination.
	List(ctx context.Context, filter VideoListFilter) ([]*model.Video, int, error)

	// Update persists changes to an existing video entity.
	// Returns ErrVideoNotFound if the video does not exist.
	Update(ctx context.Context, video *model.Video) error

	// UpdateStatus updates only the status field of a video.
	// This is optimized for status transitions without full entity update.
	// Returns ErrVideoNotFound if the video does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error

	// Delete removes a video row. Callers are responsible for removing the
	// corresponding storage objects first.
	Delete(ctx context.Context, id uuid.UUID) error
}

// OutputRepository persists the HLS renditions produced for a video.
type OutputRepository interface {
	// SaveAll replaces the set of outputs for a video (delete, then insert).
	// It is atomic only when the implementation runs on a transaction.
	SaveAll(ctx context.Context, videoID uuid.UUID, outputs []*model.VideoOutput) error

	// ListByVideoID returns every rendition recorded for a video.
	ListByVideoID(ctx context.Context, videoID uuid.UUID) ([]*model.VideoOutput, error)

	// GetByVideoIDAndResolution returns a single rendition, or ErrOutputNotFound.
	GetByVideoIDAndResolution(ctx context.Context, videoID uuid.UUID, res model.Resolution) (*model.VideoOutput, error)
}

// JobRepository persists transcoding job state alongside the durable queue.
type JobRepository interface {
	// Create persists a new job row. Returns ErrJobAlreadyQueued if a job
	// with the same JobKey is already QUEUED or PROCESSING.
	Create(ctx context.Context, job *model.TranscodingJob) error

	// GetByID retrieves a job by its unique identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*model.TranscodingJob, error)

	// GetByVideoID retrieves the most recent job for a video.
	GetByVideoID(ctx context.Context, videoID uuid.UUID) (*model.TranscodingJob, error)

	// UpdateStatus transitions a job's status, optionally stamping
	// startedAt/completedAt and recording an error message.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.JobStatus, errorMessage string) error

	// UpdateProgress persists incremental worker progress.
	UpdateProgress(ctx context.Context, id uuid.UUID, percentage int, detail model.JobProgressDetail) error

	// ScheduleRetry increments attemptCount, sets RETRYING status, and
	// records nextRetryAt for the backoff-governed re-enqueue.
	ScheduleRetry(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error
}
