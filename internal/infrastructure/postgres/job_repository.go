package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
)

// JobRepository implements repository.JobRepository using PostgreSQL.
type JobRepository struct {
	db DBTX
}

// NewJobRepository creates a new JobRepository instance.
func NewJobRepository(db DBTX) *JobRepository {
	return &JobRepository{db: db}
}

// Create persists a new job row. A unique index on (job_key) WHERE status IN
// ('QUEUED', 'PROCESSING') enforces at most one active job per video.
func (r *JobRepository) Create(ctx context.Context, job *model.TranscodingJob) error {
	jobData, err := json.Marshal(job.JobData)
	if err != nil {
		return fmt.Errorf("failed to marshal job data: %w", err)
	}
	progress, err := json.Marshal(job.Progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	const query = `
		INSERT INTO transcoding_jobs (
			id, job_key, video_id, job_type, status, progress_percentage, progress,
			attempt_count, max_attempts, job_data, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.Exec(ctx, query,
		job.ID, job.JobKey, job.VideoID, string(job.JobType), string(job.Status),
		job.ProgressPercentage, progress, job.AttemptCount, job.MaxAttempts, jobData,
		job.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrJobAlreadyQueued
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetByID retrieves a job by its unique identifier.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TranscodingJob, error) {
	const query = `
		SELECT id, job_key, video_id, job_type, status, progress_percentage, progress,
			attempt_count, max_attempts, job_data, result_data, error_message,
			created_at, started_at, completed_at, next_retry_at, worker_id
		FROM transcoding_jobs
		WHERE id = $1
	`

	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// GetByVideoID retrieves the most recent job for a video.
func (r *JobRepository) GetByVideoID(ctx context.Context, videoID uuid.UUID) (*model.TranscodingJob, error) {
	const query = `
		SELECT id, job_key, video_id, job_type, status, progress_percentage, progress,
			attempt_count, max_attempts, job_data, result_data, error_message,
			created_at, started_at, completed_at, next_retry_at, worker_id
		FROM transcoding_jobs
		WHERE video_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	job, err := scanJob(r.db.QueryRow(ctx, query, videoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job by video ID: %w", err)
	}

	return job, nil
}

// UpdateStatus transitions a job's status, stamping startedAt/completedAt as appropriate.
func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.JobStatus, errorMessage string) error {
	now := time.Now()

	var query string
	var args []any
	switch status {
	case model.JobProcessing:
		query = `UPDATE transcoding_jobs SET status = $2, started_at = $3, error_message = $4 WHERE id = $1`
		args = []any{id, string(status), now, errorMessage}
	case model.JobCompleted:
		query = `UPDATE transcoding_jobs SET status = $2, completed_at = $3, error_message = $4 WHERE id = $1`
		args = []any{id, string(status), now, errorMessage}
	case model.JobFailed:
		// attempt_count is incremented here too: ScheduleRetry increments it for
		// every retried attempt, but a terminal failure goes straight through
		// UpdateStatus without ever calling ScheduleRetry.
		query = `UPDATE transcoding_jobs SET status = $2, completed_at = $3, error_message = $4, attempt_count = attempt_count + 1 WHERE id = $1`
		args = []any{id, string(status), now, errorMessage}
	default:
		query = `UPDATE transcoding_jobs SET status = $2, error_message = $3 WHERE id = $1`
		args = []any{id, string(status), errorMessage}
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrJobNotFound
	}

	return nil
}

// UpdateProgress persists incremental worker progress.
func (r *JobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, percentage int, detail model.JobProgressDetail) error {
	progress, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	const query = `
		UPDATE transcoding_jobs
		SET progress_percentage = $2, progress = $3
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, percentage, progress)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrJobNotFound
	}

	return nil
}

// ScheduleRetry increments attemptCount, sets RETRYING status, and records nextRetryAt.
func (r *JobRepository) ScheduleRetry(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error {
	const query = `
		UPDATE transcoding_jobs
		SET status = $2, attempt_count = attempt_count + 1, next_retry_at = $3
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, string(model.JobRetrying), nextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrJobNotFound
	}

	return nil
}

func scanJob(row rowScanner) (*model.TranscodingJob, error) {
	var (
		job          model.TranscodingJob
		jobType      string
		status       string
		jobData      []byte
		progress     []byte
		resultData   *string
		errorMessage *string
		workerID     *string
	)

	err := row.Scan(
		&job.ID, &job.JobKey, &job.VideoID, &jobType, &status, &job.ProgressPercentage, &progress,
		&job.AttemptCount, &job.MaxAttempts, &jobData, &resultData, &errorMessage,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.NextRetryAt, &workerID,
	)
	if err != nil {
		return nil, err
	}

	job.JobType = model.JobType(jobType)
	job.Status = model.JobStatus(status)
	if resultData != nil {
		job.ResultData = *resultData
	}
	if errorMessage != nil {
		job.ErrorMessage = *errorMessage
	}
	if workerID != nil {
		job.WorkerID = *workerID
	}
	if len(jobData) > 0 {
		if err := json.Unmarshal(jobData, &job.JobData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job data: %w", err)
		}
	}
	if len(progress) > 0 {
		if err := json.Unmarshal(progress, &job.Progress); err != nil {
			return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
		}
	}

	return &job, nil
}

// Compile-time verification that JobRepository implements repository.JobRepository.
var _ repository.JobRepository = (*JobRepository)(nil)
