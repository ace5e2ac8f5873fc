package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
)

// mockVideoRepository provides a configurable mock for repository.VideoRepository.
type mockVideoRepository struct {
	createFn       func(ctx context.Context, video *model.Video) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*model.Video, error)
	listFn         func(ctx context.Context, filter repository.VideoListFilter) ([]*model.Video, int, error)
	updateFn       func(ctx context.Context, video *model.Video) error
	updateStatusFn func(ctx context.Context, id uuid.UUID, status model.Status) error
	deleteFn       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockVideoRepository) Create(ctx context.Context, video *model.Video) error {
	if m.createFn != nil {
		return m.createFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) List(ctx context.Context, filter repository.VideoListFilter) ([]*model.Video, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockVideoRepository) Update(ctx context.Context, video *model.Video) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockVideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

var _ repository.VideoRepository = (*mockVideoRepository)(nil)

// mockOutputRepository provides a configurable mock for repository.OutputRepository.
type mockOutputRepository struct {
	saveAllFn                  func(ctx context.Context, videoID uuid.UUID, outputs []*model.VideoOutput) error
	listByVideoIDFn            func(ctx context.Context, videoID uuid.UUID) ([]*model.VideoOutput, error)
	getByVideoIDAndResolutionFn func(ctx context.Context, videoID uuid.UUID, res model.Resolution) (*model.VideoOutput, error)
}

func (m *mockOutputRepository) SaveAll(ctx context.Context, videoID uuid.UUID, outputs []*model.VideoOutput) error {
	if m.saveAllFn != nil {
		return m.saveAllFn(ctx, videoID, outputs)
	}
	return nil
}

func (m *mockOutputRepository) ListByVideoID(ctx context.Context, videoID uuid.UUID) ([]*model.VideoOutput, error) {
	if m.listByVideoIDFn != nil {
		return m.listByVideoIDFn(ctx, videoID)
	}
	return nil, nil
}

func (m *mockOutputRepository) GetByVideoIDAndResolution(ctx context.Context, videoID uuid.UUID, res model.Resolution) (*model.VideoOutput, error) {
	if m.getByVideoIDAndResolutionFn != nil {
		return m.getByVideoIDAndResolutionFn(ctx, videoID, res)
	}
	return nil, repository.ErrOutputNotFound
}

var _ repository.OutputRepository = (*mockOutputRepository)(nil)

// mockJobRepository provides a configurable mock for repository.JobRepository.
type mockJobRepository struct {
	createFn         func(ctx context.Context, job *model.TranscodingJob) error
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*model.TranscodingJob, error)
	getByVideoIDFn   func(ctx context.Context, videoID uuid.UUID) (*model.TranscodingJob, error)
	updateStatusFn   func(ctx context.Context, id uuid.UUID, status model.JobStatus, errorMessage string) error
	updateProgressFn func(ctx context.Context, id uuid.UUID, percentage int, detail model.JobProgressDetail) error
	scheduleRetryFn  func(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error
}

func (m *mockJobRepository) Create(ctx context.Context, job *model.TranscodingJob) error {
	if m.createFn != nil {
		return m.createFn(ctx, job)
	}
	return nil
}

func (m *mockJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TranscodingJob, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrJobNotFound
}

func (m *mockJobRepository) GetByVideoID(ctx context.Context, videoID uuid.UUID) (*model.TranscodingJob, error) {
	if m.getByVideoIDFn != nil {
		return m.getByVideoIDFn(ctx, videoID)
	}
	return nil, repository.ErrJobNotFound
}

func (m *mockJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.JobStatus, errorMessage string) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status, errorMessage)
	}
	return nil
}

func (m *mockJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, percentage int, detail model.JobProgressDetail) error {
	if m.updateProgressFn != nil {
		return m.updateProgressFn(ctx, id, percentage, detail)
	}
	return nil
}

func (m *mockJobRepository) ScheduleRetry(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error {
	if m.scheduleRetryFn != nil {
		return m.scheduleRetryFn(ctx, id, nextRetryAt)
	}
	return nil
}

var _ repository.JobRepository = (*mockJobRepository)(nil)

// mockJobQueue provides a configurable mock for repository.JobQueue.
type mockJobQueue struct {
	enqueueFn func(ctx context.Context, jobKey string, task repository.TranscodeTask, priority repository.Priority) error
	consumeFn func(ctx context.Context, concurrency int, handler func(ctx context.Context, task repository.TranscodeTask) error) error
	statsFn   func(ctx context.Context) (repository.QueueStats, error)
}

func (m *mockJobQueue) Enqueue(ctx context.Context, jobKey string, task repository.TranscodeTask, priority repository.Priority) error {
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, jobKey, task, priority)
	}
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, concurrency int, handler func(ctx context.Context, task repository.TranscodeTask) error) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, concurrency, handler)
	}
	return nil
}

func (m *mockJobQueue) Stats(ctx context.Context) (repository.QueueStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return repository.QueueStats{}, nil
}

func (m *mockJobQueue) Close() error {
	return nil
}

var _ repository.JobQueue = (*mockJobQueue)(nil)

// mockObjectStorage provides a configurable mock for repository.ObjectStorage.
type mockObjectStorage struct {
	uploadFn       func(ctx context.Context, key string, reader io.Reader, contentType string) error
	downloadFn     func(ctx context.Context, key string) (io.ReadCloser, error)
	deleteFn       func(ctx context.Context, key string) error
	deletePrefixFn func(ctx context.Context, prefix string) error
	existsFn       func(ctx context.Context, key string) (bool, error)
	statFn         func(ctx context.Context, key string) (repository.ObjectInfo, error)
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, reader, contentType)
	}
	return nil
}

func (m *mockObjectStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, key)
	}
	return nil, repository.ErrObjectNotFound
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func (m *mockObjectStorage) DeletePrefix(ctx context.Context, prefix string) error {
	if m.deletePrefixFn != nil {
		return m.deletePrefixFn(ctx, prefix)
	}
	return nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockObjectStorage) Stat(ctx context.Context, key string) (repository.ObjectInfo, error) {
	if m.statFn != nil {
		return m.statFn(ctx, key)
	}
	return repository.ObjectInfo{}, repository.ErrObjectNotFound
}

var _ repository.ObjectStorage = (*mockObjectStorage)(nil)

// mockTranscoder provides a configurable mock for repository.Transcoder.
type mockTranscoder struct {
	transcodeToHLSFn     func(ctx context.Context, req repository.TranscodeRequest) ([]repository.TranscodeOutput, string, error)
	generateThumbnailFn  func(ctx context.Context, inputPath, thumbnailPath string, durationSec float64) error
}

func (m *mockTranscoder) TranscodeToHLS(ctx context.Context, req repository.TranscodeRequest) ([]repository.TranscodeOutput, string, error) {
	if m.transcodeToHLSFn != nil {
		return m.transcodeToHLSFn(ctx, req)
	}
	return nil, "", nil
}

func (m *mockTranscoder) GenerateThumbnail(ctx context.Context, inputPath, thumbnailPath string, durationSec float64) error {
	if m.generateThumbnailFn != nil {
		return m.generateThumbnailFn(ctx, inputPath, thumbnailPath, durationSec)
	}
	return nil
}

var _ repository.Transcoder = (*mockTranscoder)(nil)

// mockMediaProber provides a configurable mock for repository.MediaProber.
type mockMediaProber struct {
	probeFn       func(ctx context.Context, path string) (repository.MediaMetadata, error)
	probeReaderFn func(ctx context.Context, r io.Reader) (repository.MediaMetadata, error)
}

func (m *mockMediaProber) Probe(ctx context.Context, path string) (repository.MediaMetadata, error) {
	if m.probeFn != nil {
		return m.probeFn(ctx, path)
	}
	return repository.MediaMetadata{}, nil
}

func (m *mockMediaProber) ProbeReader(ctx context.Context, r io.Reader) (repository.MediaMetadata, error) {
	if m.probeReaderFn != nil {
		return m.probeReaderFn(ctx, r)
	}
	return repository.MediaMetadata{}, nil
}

var _ repository.MediaProber = (*mockMediaProber)(nil)

// mockVideoCache provides a configurable mock for cache.VideoCache.
type mockVideoCache struct {
	getFn    func(ctx context.Context, videoID uuid.UUID) (*model.Video, error)
	setFn    func(ctx context.Context, video *model.Video, ttl time.Duration) error
	deleteFn func(ctx context.Context, videoID uuid.UUID) error
}

func (m *mockVideoCache) Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	if m.getFn != nil {
		return m.getFn(ctx, videoID)
	}
	return nil, nil
}

func (m *mockVideoCache) Set(ctx context.Context, video *model.Video, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, video, ttl)
	}
	return nil
}

func (m *mockVideoCache) Delete(ctx context.Context, videoID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, videoID)
	}
	return nil
}

// mockEventPublisher provides a configurable mock for repository.EventPublisher.
type mockEventPublisher struct {
	publishStatusChangeFn func(ctx context.Context, event repository.StatusChangeEvent) error
}

func (m *mockEventPublisher) PublishStatusChange(ctx context.Context, event repository.StatusChangeEvent) error {
	if m.publishStatusChangeFn != nil {
		return m.publishStatusChangeFn(ctx, event)
	}
	return nil
}

func (m *mockEventPublisher) Close() error {
	return nil
}

var _ repository.EventPublisher = (*mockEventPublisher)(nil)
