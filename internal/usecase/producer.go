package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
	"github.com/streamforge/streamforge/internal/infrastructure/metrics"
)

// defaultLadder is the resolution set requested when the caller does not
// specify one explicitly.
var defaultLadder = []model.Resolution{
	model.Resolution480p,
	model.Resolution720p,
	model.Resolution1080p,
}

// SubmitTranscodeInput describes a request to start transcoding a video that
// has already been persisted and uploaded.
type SubmitTranscodeInput struct {
	VideoID     uuid.UUID
	InputPath   string
	Resolutions []model.Resolution
	Priority    repository.Priority
}

// Producer submits transcoding work for a video.
type Producer interface {
	// SubmitTranscode creates a job row and enqueues it under the video's
	// deterministic key. If a job is already queued or processing for this
	// video, the existing job is returned alongside ErrJobAlreadyQueued.
	SubmitTranscode(ctx context.Context, input SubmitTranscodeInput) (*model.TranscodingJob, error)
}

// ProducerConfig holds configuration for producerService.
type ProducerConfig struct {
	MaxAttempts int
}

// DefaultProducerConfig returns the default configuration.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{MaxAttempts: model.DefaultMaxAttempts}
}

type producerService struct {
	jobs  repository.JobRepository
	queue repository.JobQueue

	maxAttempts int
}

// NewProducer creates a new Producer instance.
func NewProducer(jobs repository.JobRepository, queue repository.JobQueue, cfg ProducerConfig) Producer {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = model.DefaultMaxAttempts
	}
	return &producerService{jobs: jobs, queue: queue, maxAttempts: maxAttempts}
}

func (p *producerService) SubmitTranscode(ctx context.Context, input SubmitTranscodeInput) (*model.TranscodingJob, error) {
	resolutions := input.Resolutions
	if len(resolutions) == 0 {
		resolutions = defaultLadder
	}

	job := model.NewTranscodingJob(input.VideoID, resolutions, input.InputPath, p.maxAttempts)

	if err := p.jobs.Create(ctx, job); err != nil {
		if errors.Is(err, repository.ErrJobAlreadyQueued) {
			existing, getErr := p.jobs.GetByVideoID(ctx, input.VideoID)
			if getErr != nil {
				return nil, getErr
			}
			return existing, repository.ErrJobAlreadyQueued
		}
		return nil, fmt.Errorf("create job: %w", err)
	}

	priority := input.Priority
	if priority == 0 {
		priority = repository.PriorityNormal
	}

	task := repository.TranscodeTask{
		JobID:        job.ID,
		VideoID:      job.VideoID,
		Resolutions:  job.JobData.Resolutions,
		InputPath:    job.JobData.InputPath,
		AttemptCount: job.AttemptCount,
		MaxAttempts:  job.MaxAttempts,
	}

	if err := p.queue.Enqueue(ctx, job.JobKey, task, priority); err != nil {
		if errors.Is(err, repository.ErrJobAlreadyQueued) {
			// The DB row is new but a queue entry with this key already
			// exists (e.g. a prior attempt's retry is still in flight).
			// Treat as success: at most one active job per video holds.
			return job, nil
		}
		// Queue unavailable: the job row is left QUEUED and becomes a
		// retry candidate for an operator-triggered resubmission.
		return job, fmt.Errorf("enqueue transcode task: %w", err)
	}

	metrics.JobsEnqueuedTotal.WithLabelValues(priorityLabel(priority)).Inc()
	return job, nil
}

func priorityLabel(p repository.Priority) string {
	switch p {
	case repository.PriorityLow:
		return "low"
	case repository.PriorityHigh:
		return "high"
	default:
		return "normal"
	}
}

var _ Producer = (*producerService)(nil)
