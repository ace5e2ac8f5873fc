package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
	"github.com/streamforge/streamforge/internal/infrastructure/cache"
	"github.com/streamforge/streamforge/internal/infrastructure/metrics"
	"github.com/streamforge/streamforge/internal/infrastructure/storage"
)

const (
	defaultBaseRetryDelay = 1 * time.Second
	defaultMaxRetryDelay  = 5 * time.Minute
)

// WorkerConfig holds configuration for workerService.
type WorkerConfig struct {
	// DeleteSourceAfterTranscode removes the uploaded source blob once a job
	// attempt finishes successfully, including when the transcoder skipped
	// some requested renditions.
	DeleteSourceAfterTranscode bool

	// BaseRetryDelay and MaxRetryDelay govern the exponential backoff applied
	// between attempts: delay = min(base * 2^attempt, max).
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
}

// DefaultWorkerConfig returns the default configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		DeleteSourceAfterTranscode: false,
		BaseRetryDelay:             defaultBaseRetryDelay,
		MaxRetryDelay:              defaultMaxRetryDelay,
	}
}

// Worker executes one attempt of a transcoding job end to end. Its HandleTask
// method is the handler passed to JobQueue.Consume.
type Worker interface {
	HandleTask(ctx context.Context, task repository.TranscodeTask) error
}

type workerService struct {
	videos     repository.VideoRepository
	outputs    repository.OutputRepository
	jobs       repository.JobRepository
	storage    repository.ObjectStorage
	transcoder repository.Transcoder
	prober     repository.MediaProber
	events     repository.EventPublisher // optional, nil disables fanout
	cache      cache.VideoCache           // optional, nil disables invalidation

	deleteSourceAfterTranscode bool
	baseRetryDelay             time.Duration
	maxRetryDelay              time.Duration
}

// NewWorker creates a new Worker instance. events and videoCache may be nil.
func NewWorker(
	videos repository.VideoRepository,
	outputs repository.OutputRepository,
	jobs repository.JobRepository,
	storage repository.ObjectStorage,
	tc repository.Transcoder,
	prober repository.MediaProber,
	events repository.EventPublisher,
	videoCache cache.VideoCache,
	cfg WorkerConfig,
) Worker {
	baseDelay := cfg.BaseRetryDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseRetryDelay
	}
	maxDelay := cfg.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxRetryDelay
	}
	return &workerService{
		videos:                     videos,
		outputs:                    outputs,
		jobs:                       jobs,
		storage:                    storage,
		transcoder:                 tc,
		prober:                     prober,
		events:                     events,
		cache:                      videoCache,
		deleteSourceAfterTranscode: cfg.DeleteSourceAfterTranscode,
		baseRetryDelay:             baseDelay,
		maxRetryDelay:              maxDelay,
	}
}

// HandleTask runs the QUEUED->PROCESSING->COMPLETED|RETRYING|FAILED state
// machine for one job attempt.
func (w *workerService) HandleTask(ctx context.Context, task repository.TranscodeTask) error {
	job, err := w.jobs.GetByID(ctx, task.JobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	video, err := w.videos.GetByID(ctx, task.VideoID)
	if err != nil {
		return fmt.Errorf("load video: %w", err)
	}

	if err := w.transitionToProcessing(ctx, job, video); err != nil {
		return fmt.Errorf("transition to processing: %w", err)
	}

	metadata, err := w.probeAndRecordMetadata(ctx, video, task.InputPath)
	if err != nil {
		return w.failAttempt(ctx, job, video, fmt.Errorf("probe source: %w", err))
	}

	outputs, _, err := w.transcoder.TranscodeToHLS(ctx, repository.TranscodeRequest{
		VideoID:              video.ID,
		InputPath:            task.InputPath,
		RequestedResolutions: task.Resolutions,
		Metadata:             metadata,
		OnProgress:           w.progressReporter(job.ID),
	})
	if err != nil {
		return w.failAttempt(ctx, job, video, fmt.Errorf("transcode: %w", err))
	}

	thumbnailKey := storage.ThumbnailKey(video.ID)
	if err := w.transcoder.GenerateThumbnail(ctx, task.InputPath, thumbnailKey, metadata.DurationSec); err != nil {
		return w.failAttempt(ctx, job, video, fmt.Errorf("generate thumbnail: %w", err))
	}

	if err := w.finish(ctx, job, video, outputs, thumbnailKey, metadata.Height); err != nil {
		return w.failAttempt(ctx, job, video, fmt.Errorf("finish: %w", err))
	}

	if w.deleteSourceAfterTranscode {
		if err := w.storage.Delete(ctx, task.InputPath); err != nil {
			slog.Warn("failed to delete source blob after transcode",
				"video_id", video.ID, "error", err)
		}
	}

	return nil
}

func (w *workerService) transitionToProcessing(ctx context.Context, job *model.TranscodingJob, video *model.Video) error {
	if err := w.jobs.UpdateStatus(ctx, job.ID, model.JobProcessing, ""); err != nil {
		return err
	}

	oldStatus := video.Status
	if err := video.TransitionTo(model.StatusProcessing); err != nil {
		return err
	}
	if err := w.videos.Update(ctx, video); err != nil {
		return err
	}
	w.onStatusChange(ctx, video.ID, oldStatus, video.Status)
	return nil
}

// probeAndRecordMetadata streams the source once through the prober and
// persists the rounded duration, avoiding a second probe inside the
// transcoder.
func (w *workerService) probeAndRecordMetadata(ctx context.Context, video *model.Video, inputPath string) (*repository.MediaMetadata, error) {
	reader, err := w.storage.Download(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	metadata, err := w.prober.ProbeReader(ctx, reader)
	if err != nil {
		return nil, err
	}

	video.SetMetadata(int(math.Round(metadata.DurationSec)))
	if err := w.videos.Update(ctx, video); err != nil {
		return nil, err
	}

	return &metadata, nil
}

// progressReporter adapts the transcoder's per-resolution progress callback
// into job-progress writes, already debounced to at most once per 1% change
// by the transcoder itself.
func (w *workerService) progressReporter(jobID uuid.UUID) repository.ProgressFunc {
	return func(resolution model.Resolution, percent int) {
		detail := model.JobProgressDetail{
			Percent:           percent,
			CurrentResolution: string(resolution),
			CurrentTask:       "transcoding",
		}
		if err := w.jobs.UpdateProgress(context.Background(), jobID, percent, detail); err != nil {
			slog.Warn("failed to record job progress", "job_id", jobID, "error", err)
		}
	}
}

func (w *workerService) finish(ctx context.Context, job *model.TranscodingJob, video *model.Video, outputs []repository.TranscodeOutput, thumbnailKey string, sourceHeight int) error {
	modelOutputs := make([]*model.VideoOutput, 0, len(outputs))
	for _, o := range outputs {
		output, err := model.NewVideoOutput(
			video.ID, o.Resolution, o.Width, o.Height, o.BitrateKbps,
			o.PlaylistPath, storage.SegmentDir(video.ID, o.Resolution),
			o.FileSize, o.SegmentCount, sourceHeight,
		)
		if err != nil {
			return fmt.Errorf("build output %s: %w", o.Resolution, err)
		}
		modelOutputs = append(modelOutputs, output)
	}

	if err := w.outputs.SaveAll(ctx, video.ID, modelOutputs); err != nil {
		return fmt.Errorf("save outputs: %w", err)
	}

	if thumbnailKey != "" {
		video.SetThumbnail(thumbnailKey)
	}

	oldStatus := video.Status
	if err := video.TransitionTo(model.StatusReady); err != nil {
		return fmt.Errorf("transition to ready: %w", err)
	}
	if err := w.videos.Update(ctx, video); err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if err := w.jobs.UpdateStatus(ctx, job.ID, model.JobCompleted, ""); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if err := w.jobs.UpdateProgress(ctx, job.ID, 100, model.JobProgressDetail{Percent: 100}); err != nil {
		slog.Warn("failed to record final job progress", "job_id", job.ID, "error", err)
	}

	metrics.JobsCompletedTotal.WithLabelValues("ready").Inc()
	metrics.WorkerJobDuration.WithLabelValues("ready").Observe(time.Since(job.CreatedAt).Seconds())

	w.onStatusChange(ctx, video.ID, oldStatus, video.Status)
	return nil
}

// failAttempt records the failure against both the video and the job, then
// schedules a retry if attempts remain. It always returns a non-nil error so
// the caller's queue driver can apply its own redelivery policy.
func (w *workerService) failAttempt(ctx context.Context, job *model.TranscodingJob, video *model.Video, cause error) error {
	oldStatus := video.Status
	if err := video.TransitionTo(model.StatusFailed); err == nil {
		if updateErr := w.videos.Update(ctx, video); updateErr != nil {
			slog.Error("failed to persist video failure", "video_id", video.ID, "error", updateErr)
		} else {
			w.onStatusChange(ctx, video.ID, oldStatus, video.Status)
		}
	}

	nextAttempt := job.AttemptCount + 1
	if nextAttempt < job.MaxAttempts {
		delay := backoffDelay(nextAttempt, w.baseRetryDelay, w.maxRetryDelay)
		if err := w.jobs.ScheduleRetry(ctx, job.ID, time.Now().Add(delay)); err != nil {
			slog.Error("failed to schedule job retry", "job_id", job.ID, "error", err)
		}
	} else {
		if err := w.jobs.UpdateStatus(ctx, job.ID, model.JobFailed, cause.Error()); err != nil {
			slog.Error("failed to record terminal job failure", "job_id", job.ID, "error", err)
		}
		metrics.JobsCompletedTotal.WithLabelValues("failed").Inc()
		metrics.WorkerJobDuration.WithLabelValues("failed").Observe(time.Since(job.CreatedAt).Seconds())
	}

	return cause
}

// onStatusChange fans out the transition and drops any cached copy of the
// video so the next read observes the new status. Both are best-effort.
func (w *workerService) onStatusChange(ctx context.Context, videoID uuid.UUID, oldStatus, newStatus model.Status) {
	if w.cache != nil {
		if err := w.cache.Delete(ctx, videoID); err != nil {
			slog.Warn("failed to invalidate video cache", "video_id", videoID, "error", err)
		}
	}

	if w.events == nil {
		return
	}
	event := repository.StatusChangeEvent{
		VideoID:   videoID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
	if err := w.events.PublishStatusChange(ctx, event); err != nil {
		slog.Warn("failed to publish status change event", "video_id", videoID, "error", err)
	}
}

// backoffDelay returns 2^attempt * base, capped at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	delay := base * time.Duration(math.Pow(2, float64(attempt)))
	if delay > max {
		return max
	}
	return delay
}

var _ Worker = (*workerService)(nil)
