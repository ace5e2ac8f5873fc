package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
)

func newPendingJob(videoID uuid.UUID) *model.TranscodingJob {
	job := model.NewTranscodingJob(videoID, []model.Resolution{model.Resolution720p}, "uploads/v.mp4", 3)
	return job
}

func newPendingVideo() *model.Video {
	video, _ := model.NewVideo("title", "desc", nil, "v.mp4", ".mp4", 1024, "video/mp4", "uploads/v.mp4")
	return video
}

func TestWorker_HandleTask_HappyPath(t *testing.T) {
	video := newPendingVideo()
	job := newPendingJob(video.ID)

	var videoUpdates []model.Status
	var publishedEvents []repository.StatusChangeEvent
	var cacheInvalidations []uuid.UUID
	var savedOutputs []*model.VideoOutput

	videos := &mockVideoRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Video, error) { return video, nil },
		updateFn: func(ctx context.Context, v *model.Video) error {
			videoUpdates = append(videoUpdates, v.Status)
			return nil
		},
	}
	outputs := &mockOutputRepository{
		saveAllFn: func(ctx context.Context, videoID uuid.UUID, o []*model.VideoOutput) error {
			savedOutputs = o
			return nil
		},
	}
	jobs := &mockJobRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TranscodingJob, error) { return job, nil },
	}
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("fake"))), nil
		},
	}
	transcoder := &mockTranscoder{
		transcodeToHLSFn: func(ctx context.Context, req repository.TranscodeRequest) ([]repository.TranscodeOutput, string, error) {
			return []repository.TranscodeOutput{
				{Resolution: model.Resolution720p, Width: 1280, Height: 720, BitrateKbps: 2500,
					PlaylistPath: "hls/x/720p/playlist.m3u8", FileSize: 100, SegmentCount: 3},
			}, "hls/x/master.m3u8", nil
		},
	}
	prober := &mockMediaProber{
		probeReaderFn: func(ctx context.Context, r io.Reader) (repository.MediaMetadata, error) {
			return repository.MediaMetadata{DurationSec: 30, Width: 1920, Height: 1080}, nil
		},
	}
	events := &mockEventPublisher{
		publishStatusChangeFn: func(ctx context.Context, e repository.StatusChangeEvent) error {
			publishedEvents = append(publishedEvents, e)
			return nil
		},
	}
	cache := &mockVideoCache{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			cacheInvalidations = append(cacheInvalidations, id)
			return nil
		},
	}

	worker := NewWorker(videos, outputs, jobs, storage, transcoder, prober, events, cache, DefaultWorkerConfig())

	err := worker.HandleTask(context.Background(), repository.TranscodeTask{
		JobID: job.ID, VideoID: video.ID, Resolutions: []model.Resolution{model.Resolution720p}, InputPath: "uploads/v.mp4",
	})
	if err != nil {
		t.Fatalf("HandleTask() error = %v", err)
	}

	if len(videoUpdates) < 2 || videoUpdates[len(videoUpdates)-1] != model.StatusReady {
		t.Errorf("expected video to end in READY, updates = %v", videoUpdates)
	}
	if len(savedOutputs) != 1 || savedOutputs[0].Height != 720 {
		t.Errorf("unexpected saved outputs: %+v", savedOutputs)
	}
	if len(publishedEvents) != 2 {
		t.Errorf("expected 2 status change events (PROCESSING, READY), got %d", len(publishedEvents))
	}
	if len(cacheInvalidations) != 2 {
		t.Errorf("expected cache invalidation on each status change, got %d", len(cacheInvalidations))
	}
}

func TestWorker_HandleTask_TranscodeFailureSchedulesRetry(t *testing.T) {
	video := newPendingVideo()
	job := newPendingJob(video.ID)
	job.MaxAttempts = 3
	job.AttemptCount = 0

	var retryScheduled bool
	videos := &mockVideoRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Video, error) { return video, nil },
	}
	jobs := &mockJobRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TranscodingJob, error) { return job, nil },
		scheduleRetryFn: func(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error {
			retryScheduled = true
			return nil
		},
	}
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("fake"))), nil
		},
	}
	prober := &mockMediaProber{
		probeReaderFn: func(ctx context.Context, r io.Reader) (repository.MediaMetadata, error) {
			return repository.MediaMetadata{DurationSec: 30, Height: 1080}, nil
		},
	}
	transcoder := &mockTranscoder{
		transcodeToHLSFn: func(ctx context.Context, req repository.TranscodeRequest) ([]repository.TranscodeOutput, string, error) {
			return nil, "", repository.ErrAllRenditionsFailed
		},
	}

	worker := NewWorker(videos, &mockOutputRepository{}, jobs, storage, transcoder, prober, nil, nil, DefaultWorkerConfig())

	err := worker.HandleTask(context.Background(), repository.TranscodeTask{
		JobID: job.ID, VideoID: video.ID, Resolutions: []model.Resolution{model.Resolution720p}, InputPath: "uploads/v.mp4",
	})
	if err == nil {
		t.Fatal("expected HandleTask to return the transcode error")
	}
	if !errors.Is(err, repository.ErrAllRenditionsFailed) {
		t.Errorf("err = %v, want wrapping ErrAllRenditionsFailed", err)
	}
	if video.Status != model.StatusFailed {
		t.Errorf("video status = %v, want FAILED", video.Status)
	}
	if !retryScheduled {
		t.Error("expected a retry to be scheduled since attempts remain")
	}
}

func TestWorker_HandleTask_ThumbnailFailureFailsTheAttempt(t *testing.T) {
	video := newPendingVideo()
	job := newPendingJob(video.ID)
	job.MaxAttempts = 3
	job.AttemptCount = 0

	var terminalStatus model.JobStatus
	videos := &mockVideoRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Video, error) { return video, nil },
	}
	outputs := &mockOutputRepository{}
	jobs := &mockJobRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TranscodingJob, error) { return job, nil },
		scheduleRetryFn: func(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error {
			terminalStatus = model.JobRetrying
			return nil
		},
	}
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("fake"))), nil
		},
	}
	prober := &mockMediaProber{
		probeReaderFn: func(ctx context.Context, r io.Reader) (repository.MediaMetadata, error) {
			return repository.MediaMetadata{DurationSec: 30, Height: 1080}, nil
		},
	}
	transcoder := &mockTranscoder{
		transcodeToHLSFn: func(ctx context.Context, req repository.TranscodeRequest) ([]repository.TranscodeOutput, string, error) {
			return []repository.TranscodeOutput{
				{Resolution: model.Resolution720p, Width: 1280, Height: 720, BitrateKbps: 2500, PlaylistPath: "p.m3u8", FileSize: 1, SegmentCount: 1},
			}, "master.m3u8", nil
		},
		generateThumbnailFn: func(ctx context.Context, inputPath, thumbnailPath string, durationSec float64) error {
			return errors.New("thumbnail encoder crashed")
		},
	}

	worker := NewWorker(videos, outputs, jobs, storage, transcoder, prober, nil, nil, DefaultWorkerConfig())
	err := worker.HandleTask(context.Background(), repository.TranscodeTask{
		JobID: job.ID, VideoID: video.ID, Resolutions: []model.Resolution{model.Resolution720p}, InputPath: "uploads/v.mp4",
	})
	if err == nil {
		t.Fatal("expected HandleTask to fail the attempt when thumbnail generation fails")
	}
	if video.ThumbnailPath != nil {
		t.Errorf("expected no thumbnail path recorded, got %v", *video.ThumbnailPath)
	}
	if video.Status != model.StatusFailed {
		t.Errorf("video status = %v, want FAILED", video.Status)
	}
	if terminalStatus != model.JobRetrying {
		t.Error("expected the attempt to be retried since attempts remain")
	}
}

func TestWorker_HandleTask_ExhaustedAttemptsMarksJobFailed(t *testing.T) {
	video := newPendingVideo()
	job := newPendingJob(video.ID)
	job.MaxAttempts = 1
	job.AttemptCount = 0

	var terminalStatus model.JobStatus
	videos := &mockVideoRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Video, error) { return video, nil },
	}
	jobs := &mockJobRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TranscodingJob, error) { return job, nil },
		updateStatusFn: func(ctx context.Context, id uuid.UUID, status model.JobStatus, errorMessage string) error {
			terminalStatus = status
			return nil
		},
	}
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return nil, repository.ErrObjectNotFound
		},
	}
	prober := &mockMediaProber{}
	transcoder := &mockTranscoder{}

	worker := NewWorker(videos, &mockOutputRepository{}, jobs, storage, transcoder, prober, nil, nil, DefaultWorkerConfig())
	err := worker.HandleTask(context.Background(), repository.TranscodeTask{
		JobID: job.ID, VideoID: video.ID, Resolutions: []model.Resolution{model.Resolution720p}, InputPath: "uploads/v.mp4",
	})
	if err == nil {
		t.Fatal("expected an error when the source is unreachable")
	}
	if terminalStatus != model.JobFailed {
		t.Errorf("terminal job status = %v, want FAILED", terminalStatus)
	}
}
